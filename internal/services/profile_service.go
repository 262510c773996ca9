package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joshua-takyi/mentorlink/internal/models"
)

type ProfileService struct {
	profiles models.ProfileRepo
	logger   *slog.Logger
	now      func() time.Time
}

func NewProfileService(profiles models.ProfileRepo, logger *slog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: logger, now: time.Now}
}

// Get returns the stored profile or a skeleton built from the identity.
func (ps *ProfileService) Get(ctx context.Context, id *models.Identity) (*models.Profile, error) {
	p, err := ps.profiles.GetProfile(ctx, id.Email)
	if errors.Is(err, models.ErrProfileNotFound) {
		return models.DefaultProfile(id), nil
	}
	if err != nil {
		return nil, err
	}
	p.Normalize()
	return p, nil
}

// Save replaces the whole document. The email always comes from the
// identity, whatever the body said.
func (ps *ProfileService) Save(ctx context.Context, id *models.Identity, p *models.Profile) (*models.Profile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Email != "" && p.Email != id.Email {
		ps.logger.Warn("Ignoring profile email override", "user_id", id.ID)
	}
	p.Email = id.Email
	now := ps.now().UTC()
	p.UpdatedAt = &now
	p.Normalize()

	if err := ps.profiles.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SaveAvailability merges only the availability map into the current
// profile, creating the skeleton first when none exists.
func (ps *ProfileService) SaveAvailability(ctx context.Context, id *models.Identity, req *models.AvailabilityRequest) (models.Availability, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	saved, err := ps.profiles.UpdateProfile(ctx, id.Email, func(cur *models.Profile) (*models.Profile, error) {
		if cur == nil {
			cur = models.DefaultProfile(id)
		}
		cur.Email = id.Email
		cur.Availability = req.Availability
		now := ps.now().UTC()
		cur.UpdatedAt = &now
		cur.Normalize()
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	return saved.Availability, nil
}
