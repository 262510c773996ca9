package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/supabase-community/supabase-go"
)

type supabaseRow struct {
	Key     string          `json:"key"`
	Value   json.RawMessage `json:"value"`
	Version int64           `json:"version"`
}

// SupabaseStore keeps entries in a table (key text primary key, value jsonb,
// version bigint) reached through the hosted REST layer.
type SupabaseStore struct {
	client *supabase.Client
	table  string
}

func NewSupabaseStore(client *supabase.Client, table string) *SupabaseStore {
	return &SupabaseStore{client: client, table: table}
}

func (s *SupabaseStore) Name() string { return "supabase" }

func (s *SupabaseStore) Get(ctx context.Context, key string) (Entry, error) {
	raw, _, err := s.client.From(s.table).
		Select("key,value,version", "", false).
		Eq("key", key).
		Execute()
	if err != nil {
		return Entry{}, fmt.Errorf("supabase kv get %s: %w", key, err)
	}
	rows, err := decodeRows(raw)
	if err != nil {
		return Entry{}, err
	}
	if len(rows) == 0 {
		return Entry{}, ErrNotFound
	}
	return Entry{Value: rows[0].Value, Version: rows[0].Version}, nil
}

// Set reads the current version first; the upsert itself is last-writer-wins.
func (s *SupabaseStore) Set(ctx context.Context, key string, value []byte) error {
	var version int64
	if cur, err := s.Get(ctx, key); err == nil {
		version = cur.Version
	}
	row := supabaseRow{Key: key, Value: value, Version: version + 1}
	_, _, err := s.client.From(s.table).
		Insert(row, true, "key", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("supabase kv set %s: %w", key, err)
	}
	return nil
}

func (s *SupabaseStore) CompareAndSwap(ctx context.Context, key string, version int64, value []byte) (int64, error) {
	next := version + 1
	row := supabaseRow{Key: key, Value: value, Version: next}

	if version == 0 {
		_, _, err := s.client.From(s.table).
			Insert(row, false, "", "minimal", "").
			Execute()
		if err != nil {
			if isUniqueViolation(err) {
				return 0, ErrVersionConflict
			}
			return 0, fmt.Errorf("supabase kv cas %s: %w", key, err)
		}
		return next, nil
	}

	raw, _, err := s.client.From(s.table).
		Update(map[string]any{"value": row.Value, "version": next}, "representation", "").
		Eq("key", key).
		Eq("version", strconv.FormatInt(version, 10)).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("supabase kv cas %s: %w", key, err)
	}
	rows, err := decodeRows(raw)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, ErrVersionConflict
	}
	return next, nil
}

func decodeRows(raw []byte) ([]supabaseRow, error) {
	var rows []supabaseRow
	if len(raw) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode kv rows: %w", err)
	}
	return rows, nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
