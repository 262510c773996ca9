//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshua-takyi/mentorlink/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("mentorlink"),
		postgrescontainer.WithUsername("mentorlink"),
		postgrescontainer.WithPassword("mentorlink"),
		postgrescontainer.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, file, _, _ := runtime.Caller(0)
	migration, err := os.ReadFile(filepath.Join(filepath.Dir(file), "..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(migration))
	require.NoError(t, err)
	return pool
}

func TestPostgresJoinFlow(t *testing.T) {
	ctx := context.Background()
	store := NewPostgresActivityStore(startPostgres(t), testLogger())
	require.NoError(t, store.Ping(ctx))

	owner := &models.Identity{ID: "u0", Email: "carla@x.com", Name: "Carla"}
	require.NoError(t, store.RegisterMember(ctx, owner))

	req := &models.CreateActivityRequest{Title: "Clube de leitura", Description: "Encontros quinzenais", MaxParticipants: 2, StartDate: "2024-05-01"}
	req.Normalize()
	created, err := store.Create(ctx, owner, req)
	require.NoError(t, err)
	assert.Equal(t, "Carla", created.Owner)
	assert.Equal(t, "2024-05-01", created.StartDate)
	assert.Equal(t, models.StatusAvailable, created.Status)

	members := make([]*models.Identity, 3)
	for i := range members {
		members[i] = &models.Identity{Email: fmt.Sprintf("m%d@x.com", i), Name: fmt.Sprintf("M%d", i)}
		require.NoError(t, store.RegisterMember(ctx, members[i]))
	}

	joined, err := store.Join(ctx, created.ID, members[0])
	require.NoError(t, err)
	assert.Equal(t, 1, joined.Participants)

	_, err = store.Join(ctx, created.ID, members[0])
	require.ErrorIs(t, err, models.ErrAlreadyJoined)

	_, err = store.Join(ctx, created.ID, members[1])
	require.NoError(t, err)

	_, err = store.Join(ctx, created.ID, members[2])
	require.ErrorIs(t, err, models.ErrActivityFull)

	_, err = store.Join(ctx, "activity_1", members[2])
	require.ErrorIs(t, err, models.ErrNotFound)

	mine, err := store.ListForMember(ctx, members[0])
	require.NoError(t, err)
	require.Len(t, mine.Participating, 1)
	assert.Empty(t, mine.Created)

	mine, err = store.ListForMember(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine.Created, 1)
}

func TestPostgresConcurrentJoinsRespectCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewPostgresActivityStore(startPostgres(t), testLogger())

	owner := &models.Identity{Email: "owner@x.com", Name: "Owner"}
	require.NoError(t, store.RegisterMember(ctx, owner))
	req := &models.CreateActivityRequest{Title: "Oficina", Description: "Vagas limitadas", MaxParticipants: 3}
	req.Normalize()
	created, err := store.Create(ctx, owner, req)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		m := &models.Identity{Email: fmt.Sprintf("c%d@x.com", i), Name: "C"}
		require.NoError(t, store.RegisterMember(ctx, m))
		wg.Add(1)
		go func() {
			defer wg.Done()
			jctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			_, _ = store.Join(jctx, created.ID, m)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Participants)
}

func TestPostgresRegistersMissingMembers(t *testing.T) {
	ctx := context.Background()
	store := NewPostgresActivityStore(startPostgres(t), testLogger())

	// neither account has a members row yet
	owner := &models.Identity{Email: "dani@x.com", Name: "Dani"}
	req := &models.CreateActivityRequest{Title: "Plantão de dúvidas", Description: "Aberto"}
	req.Normalize()
	created, err := store.Create(ctx, owner, req)
	require.NoError(t, err)
	assert.Equal(t, "Dani", created.Owner)

	mine, err := store.ListForMember(ctx, &models.Identity{Email: "ghost@x.com"})
	require.NoError(t, err)
	assert.Empty(t, mine.Created)
	assert.Empty(t, mine.Participating)

	joined, err := store.Join(ctx, created.ID, &models.Identity{Email: "ghost@x.com", Name: "Ghost"})
	require.NoError(t, err)
	assert.Equal(t, 1, joined.Participants)

	mine, err = store.ListForMember(ctx, &models.Identity{Email: "ghost@x.com"})
	require.NoError(t, err)
	require.Len(t, mine.Participating, 1)
}

func TestPostgresPendingParticipantsDoNotHoldSeats(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t)
	store := NewPostgresActivityStore(pool, testLogger())

	owner := &models.Identity{Email: "owner@x.com", Name: "Owner"}
	pending := &models.Identity{Email: "pending@x.com", Name: "Pending"}
	seated := &models.Identity{Email: "seated@x.com", Name: "Seated"}
	for _, m := range []*models.Identity{owner, pending, seated} {
		require.NoError(t, store.RegisterMember(ctx, m))
	}

	req := &models.CreateActivityRequest{Title: "Mentoria", Description: "Uma vaga", MaxParticipants: 1}
	req.Normalize()
	created, err := store.Create(ctx, owner, req)
	require.NoError(t, err)

	_, err = pool.Exec(ctx,
		`INSERT INTO activity_participants (activity_id, member_id, role, status)
        SELECT $1::uuid, id, $2, 'pending' FROM members WHERE email = $3`,
		created.ID, models.ParticipantRole, pending.Email,
	)
	require.NoError(t, err)

	joined, err := store.Join(ctx, created.ID, seated)
	require.NoError(t, err)
	assert.Equal(t, 1, joined.Participants)

	_, err = store.Join(ctx, created.ID, &models.Identity{Email: "late@x.com", Name: "Late"})
	require.ErrorIs(t, err, models.ErrActivityFull)
}
