package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/joshua-takyi/mentorlink/internal/kv"
	"github.com/joshua-takyi/mentorlink/internal/models"
)

func mentorKey(id string) string {
	return "mentor:" + id
}

func profileKey(email string) string {
	return "member_profile_" + email
}

// KVMentorRepo keeps mentor summaries under mentor:<id>.
type KVMentorRepo struct {
	store kv.Store
}

func NewKVMentorRepo(store kv.Store) *KVMentorRepo {
	return &KVMentorRepo{store: store}
}

func (r *KVMentorRepo) SaveMentor(ctx context.Context, mentor *models.Mentor) error {
	if err := kv.SetJSON(ctx, r.store, mentorKey(mentor.ID), mentor); err != nil {
		return fmt.Errorf("failed to save mentor: %w", err)
	}
	return nil
}

func (r *KVMentorRepo) GetMentor(ctx context.Context, id string) (*models.Mentor, error) {
	var m models.Mentor
	if _, err := kv.GetJSON(ctx, r.store, mentorKey(id), &m); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, models.ErrMentorNotFound
		}
		return nil, fmt.Errorf("failed to load mentor: %w", err)
	}
	return &m, nil
}

// KVProfileRepo keeps one profile document per email.
type KVProfileRepo struct {
	store kv.Store
}

func NewKVProfileRepo(store kv.Store) *KVProfileRepo {
	return &KVProfileRepo{store: store}
}

func (r *KVProfileRepo) GetProfile(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	if _, err := kv.GetJSON(ctx, r.store, profileKey(email), &p); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, models.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &p, nil
}

func (r *KVProfileRepo) SaveProfile(ctx context.Context, profile *models.Profile) error {
	if err := kv.SetJSON(ctx, r.store, profileKey(profile.Email), profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *KVProfileRepo) UpdateProfile(ctx context.Context, email string, fn func(cur *models.Profile) (*models.Profile, error)) (*models.Profile, error) {
	saved, err := kv.UpdateJSON(ctx, r.store, profileKey(email), func(cur *models.Profile, exists bool) error {
		var in *models.Profile
		if exists {
			in = cur
		}
		next, err := fn(in)
		if err != nil {
			return err
		}
		*cur = *next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &saved, nil
}
