package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joshua-takyi/mentorlink/internal/events"
	"github.com/joshua-takyi/mentorlink/internal/models"
	"github.com/joshua-takyi/mentorlink/internal/observability"
)

type ActivityService struct {
	store     models.ActivityStore
	publisher events.Publisher
	logger    *slog.Logger
}

func NewActivityService(store models.ActivityStore, publisher events.Publisher, logger *slog.Logger) *ActivityService {
	return &ActivityService{store: store, publisher: publisher, logger: logger}
}

func (as *ActivityService) Backend() string {
	return as.store.Name()
}

func (as *ActivityService) List(ctx context.Context) ([]models.Activity, error) {
	return as.store.List(ctx)
}

func (as *ActivityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	return as.store.Get(ctx, id)
}

// Create only requires a title and description; min <= max and date order
// are left to the caller.
func (as *ActivityService) Create(ctx context.Context, owner *models.Identity, req *models.CreateActivityRequest) (*models.Activity, error) {
	req.Normalize()
	if err := models.ValidateStruct(req); err != nil {
		return nil, err
	}

	a, err := as.store.Create(ctx, owner, req)
	if err != nil {
		return nil, err
	}
	observability.RecordActivityCreated(as.store.Name())
	as.logger.Info("Activity created", "activity_id", a.ID, "owner", owner.ID, "backend", as.store.Name())
	as.publish(ctx, events.New(events.ActivityCreated, a.ID, a))
	return a, nil
}

func (as *ActivityService) Join(ctx context.Context, user *models.Identity, id string) (*models.Activity, error) {
	a, err := as.store.Join(ctx, id, user)
	observability.RecordJoin(as.store.Name(), joinOutcome(err))
	if err != nil {
		return nil, err
	}

	as.logger.Info("Member joined activity", "activity_id", id, "user_id", user.ID, "participants", a.Participants)
	as.publish(ctx, events.New(events.ActivityJoined, id, map[string]any{
		"activity_id":  id,
		"user_id":      user.ID,
		"participants": a.Participants,
	}))
	return a, nil
}

func (as *ActivityService) MyActivities(ctx context.Context, user *models.Identity) (*models.MemberActivities, error) {
	return as.store.ListForMember(ctx, user)
}

// Seed loads the example catalogue into an empty store.
func (as *ActivityService) Seed(ctx context.Context) (bool, error) {
	seeded, err := as.store.Seed(ctx)
	if err != nil {
		return false, err
	}
	if seeded {
		as.logger.Info("Seeded example activities", "backend", as.store.Name())
	}
	return seeded, nil
}

func (as *ActivityService) publish(ctx context.Context, evt events.Event) {
	if err := as.publisher.Publish(ctx, evt); err != nil {
		as.logger.Warn("Event not published", "type", evt.Type, "key", evt.Key, "error", err)
	}
}

func joinOutcome(err error) string {
	switch {
	case err == nil:
		return "joined"
	case errors.Is(err, models.ErrActivityFull):
		return "full"
	case errors.Is(err, models.ErrAlreadyJoined):
		return "duplicate"
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrMemberNotFound):
		return "not_found"
	default:
		return "error"
	}
}
