// Package kv is a versioned key-value abstraction with JSON helpers.
//
// Every entry carries a version that increases on each write. CompareAndSwap
// writes only when the caller saw the latest version, which lets UpdateJSON run
// read-modify-write cycles without losing concurrent updates.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/joshua-takyi/mentorlink/internal/observability"
)

var (
	ErrNotFound        = errors.New("kv: key not found")
	ErrVersionConflict = errors.New("kv: version conflict")
	// ErrNoChange is returned by an UpdateJSON callback to skip the write.
	ErrNoChange = errors.New("kv: no change")
	// ErrContended means UpdateJSON kept losing to other writers until it ran
	// out of attempts or time. The caller may retry the whole request.
	ErrContended = fmt.Errorf("%w: too many concurrent writers", ErrVersionConflict)
)

const maxUpdateAttempts = 64

var (
	retryBaseDelay = 2 * time.Millisecond
	retryMaxDelay  = 50 * time.Millisecond
)

type Entry struct {
	Value   []byte
	Version int64
}

type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	// Set writes unconditionally.
	Set(ctx context.Context, key string, value []byte) error
	// CompareAndSwap writes only when the stored version equals version.
	// Version 0 means the key must not exist yet.
	CompareAndSwap(ctx context.Context, key string, version int64, value []byte) (int64, error)
	Name() string
}

func GetJSON(ctx context.Context, s Store, key string, dst any) (int64, error) {
	e, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if err := json.Unmarshal(e.Value, dst); err != nil {
		return 0, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return e.Version, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// UpdateJSON loads key into a T, lets fn mutate it and saves it with
// CompareAndSwap. Conflicts are retried with jittered exponential backoff until
// maxUpdateAttempts or ctx runs out, then ErrContended is returned. exists is
// false when the key was absent and cur holds the zero value.
func UpdateJSON[T any](ctx context.Context, s Store, key string, fn func(cur *T, exists bool) error) (T, error) {
	var zero T
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var cur T
		version, err := GetJSON(ctx, s, key, &cur)
		exists := err == nil
		if err != nil && !errors.Is(err, ErrNotFound) {
			return zero, err
		}

		if err := fn(&cur, exists); err != nil {
			if errors.Is(err, ErrNoChange) {
				return cur, nil
			}
			return zero, err
		}

		raw, err := json.Marshal(cur)
		if err != nil {
			return zero, fmt.Errorf("failed to encode %s: %w", key, err)
		}

		_, err = s.CompareAndSwap(ctx, key, version, raw)
		if err == nil {
			return cur, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return zero, err
		}
		observability.RecordKVConflict(s.Name())
		if err := wait(ctx, retryDelay(attempt)); err != nil {
			return zero, fmt.Errorf("update %s: %w: %w", key, ErrContended, err)
		}
	}
	return zero, fmt.Errorf("update %s: %w after %d attempts", key, ErrContended, maxUpdateAttempts)
}

// retryDelay doubles from retryBaseDelay up to retryMaxDelay and picks a
// random point in the upper half so racing writers spread out.
func retryDelay(attempt int) time.Duration {
	delay := retryMaxDelay
	if attempt < 16 {
		delay = min(retryBaseDelay<<uint(attempt), retryMaxDelay)
	}
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half+1)))
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
