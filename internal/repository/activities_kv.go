package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/joshua-takyi/mentorlink/internal/kv"
	"github.com/joshua-takyi/mentorlink/internal/models"
)

const activitiesKey = "activities"

func memberActivitiesKey(email string) string {
	return "user_activities_" + email
}

// KVActivityStore keeps the whole catalogue as one JSON array and each
// member's joined activity ids under a second key.
//
// Join writes the catalogue first and the member list second. Both writes are
// compare-and-swap, but nothing spans them: a failure in between leaves the
// participant recorded on the activity only. Duplicate checks and
// ListForMember read both places, so the member still cannot join twice.
type KVActivityStore struct {
	store  kv.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewKVActivityStore(store kv.Store, logger *slog.Logger) *KVActivityStore {
	return &KVActivityStore{store: store, logger: logger, now: time.Now}
}

func (s *KVActivityStore) Name() string { return "kv" }

func (s *KVActivityStore) Ping(ctx context.Context) error {
	_, err := s.store.Get(ctx, activitiesKey)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return err
	}
	return nil
}

func (s *KVActivityStore) List(ctx context.Context) ([]models.Activity, error) {
	var list []models.Activity
	if _, err := kv.GetJSON(ctx, s.store, activitiesKey, &list); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}
	return models.NormalizeActivities(list), nil
}

func (s *KVActivityStore) Get(ctx context.Context, id string) (*models.Activity, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(list, id); i >= 0 {
		return &list[i], nil
	}
	return nil, models.ErrNotFound
}

func (s *KVActivityStore) Create(ctx context.Context, owner *models.Identity, req *models.CreateActivityRequest) (*models.Activity, error) {
	now := s.now()
	activity := models.NewActivity(fmt.Sprintf("activity_%d", now.UnixNano()), req, owner, now)

	_, err := kv.UpdateJSON(ctx, s.store, activitiesKey, func(cur *[]models.Activity, _ bool) error {
		*cur = append([]models.Activity{*activity}, *cur...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save activity: %w", err)
	}
	return activity, nil
}

func (s *KVActivityStore) Join(ctx context.Context, id string, user *models.Identity) (*models.Activity, error) {
	joined, err := s.joinedIDs(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	var updated models.Activity
	_, err = kv.UpdateJSON(ctx, s.store, activitiesKey, func(cur *[]models.Activity, _ bool) error {
		list := *cur
		i := indexOf(list, id)
		if i < 0 {
			return models.ErrNotFound
		}
		a := &list[i]
		if a.HasParticipant(user.ID) || slices.Contains(joined, id) {
			return models.ErrAlreadyJoined
		}
		if a.IsFull() {
			return models.ErrActivityFull
		}
		a.Enroll(user, s.now())
		updated = *a
		return nil
	})
	if err != nil {
		return nil, err
	}

	_, err = kv.UpdateJSON(ctx, s.store, memberActivitiesKey(user.Email), func(cur *[]string, _ bool) error {
		if slices.Contains(*cur, id) {
			return kv.ErrNoChange
		}
		*cur = append(*cur, id)
		return nil
	})
	if err != nil {
		s.logger.Error("Enrollment saved on activity but not on member list",
			"activity_id", id,
			"email", user.Email,
			"error", err,
		)
		return nil, fmt.Errorf("failed to record enrollment for %s: %w", user.Email, err)
	}

	return &updated, nil
}

func (s *KVActivityStore) ListForMember(ctx context.Context, user *models.Identity) (*models.MemberActivities, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	joined, err := s.joinedIDs(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	out := &models.MemberActivities{
		Created:       []models.Activity{},
		Participating: []models.Activity{},
	}
	for _, a := range list {
		if a.OwnerID != "" && a.OwnerID == user.ID {
			out.Created = append(out.Created, a)
		}
		if slices.Contains(joined, a.ID) || a.HasParticipant(user.ID) {
			out.Participating = append(out.Participating, a)
		}
	}
	return out, nil
}

// Seed writes the example catalogue when the collection is missing or empty.
// Concurrent callers race on compare-and-swap, so it lands once.
func (s *KVActivityStore) Seed(ctx context.Context) (bool, error) {
	var seeded bool
	_, err := kv.UpdateJSON(ctx, s.store, activitiesKey, func(cur *[]models.Activity, _ bool) error {
		seeded = false
		if len(*cur) > 0 {
			return kv.ErrNoChange
		}
		*cur = models.NormalizeActivities(models.SeedActivities())
		seeded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed activities: %w", err)
	}
	return seeded, nil
}

func (s *KVActivityStore) joinedIDs(ctx context.Context, email string) ([]string, error) {
	var ids []string
	if _, err := kv.GetJSON(ctx, s.store, memberActivitiesKey(email), &ids); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("failed to load joined activities: %w", err)
	}
	return ids, nil
}

// RegisterMember is a no-op: the key-value backend has no member table.
func (s *KVActivityStore) RegisterMember(context.Context, *models.Identity) error {
	return nil
}

func indexOf(list []models.Activity, id string) int {
	return slices.IndexFunc(list, func(a models.Activity) bool { return a.ID == id })
}
