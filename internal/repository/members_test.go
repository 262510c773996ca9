package repository

import (
	"context"
	"testing"
	"time"

	"github.com/joshua-takyi/mentorlink/internal/kv"
	"github.com/joshua-takyi/mentorlink/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMentorRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewKVMentorRepo(kv.NewMemoryStore())

	_, err := repo.GetMentor(ctx, "u1")
	require.ErrorIs(t, err, models.ErrMentorNotFound)

	require.NoError(t, repo.SaveMentor(ctx, models.NewMentor("u1", "Ana Maria", "ana@x.com", time.Now())))
	m, err := repo.GetMentor(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "AM", m.Avatar)
	assert.Equal(t, "Mentor Iniciante", m.LevelName)
}

func TestProfileRepoUpdateCreatesAndMerges(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	repo := NewKVProfileRepo(store)

	_, err := repo.GetProfile(ctx, "ana@x.com")
	require.ErrorIs(t, err, models.ErrProfileNotFound)

	saved, err := repo.UpdateProfile(ctx, "ana@x.com", func(cur *models.Profile) (*models.Profile, error) {
		assert.Nil(t, cur)
		return &models.Profile{Email: "ana@x.com", Bio: "first"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "first", saved.Bio)

	saved, err = repo.UpdateProfile(ctx, "ana@x.com", func(cur *models.Profile) (*models.Profile, error) {
		require.NotNil(t, cur)
		cur.Phone = "1199999"
		return cur, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "first", saved.Bio)
	assert.Equal(t, "1199999", saved.Phone)

	e, err := store.Get(ctx, "member_profile_ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), e.Version)
}
