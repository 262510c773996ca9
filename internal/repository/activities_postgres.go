package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshua-takyi/mentorlink/internal/models"
)

const activityColumns = `a.id::text, a.name, a.description, a.type, a.status, a.category,
        to_char(a.start_date, 'YYYY-MM-DD'), to_char(a.end_date, 'YYYY-MM-DD'),
        a.min_participants, a.max_participants, a.tags, a.created_by::text, a.created_at, m.name`

// PostgresActivityStore talks to the same schema over a direct connection.
// Join runs in one transaction holding a row lock on the activity, so the
// existence, duplicate and capacity checks see a stable count.
type PostgresActivityStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresActivityStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresActivityStore {
	return &PostgresActivityStore{pool: pool, logger: logger}
}

func (s *PostgresActivityStore) Name() string { return "postgres" }

func (s *PostgresActivityStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, "SELECT 1 FROM activities a JOIN activity_participants p ON p.activity_id = a.id LIMIT 1")
	return err
}

func (s *PostgresActivityStore) List(ctx context.Context) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + `
        FROM activities a LEFT JOIN members m ON m.id = a.created_by
        ORDER BY a.created_at DESC`
	return s.queryActivities(ctx, query)
}

func (s *PostgresActivityStore) Get(ctx context.Context, id string) (*models.Activity, error) {
	if !isUUID(id) {
		return nil, models.ErrNotFound
	}
	query := `SELECT ` + activityColumns + `
        FROM activities a LEFT JOIN members m ON m.id = a.created_by
        WHERE a.id = $1::uuid`
	list, err := s.queryActivities(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, models.ErrNotFound
	}
	return &list[0], nil
}

func (s *PostgresActivityStore) Create(ctx context.Context, owner *models.Identity, req *models.CreateActivityRequest) (*models.Activity, error) {
	memberID, err := s.ensureMember(ctx, s.pool, owner)
	if err != nil {
		return nil, err
	}

	const stmt = `INSERT INTO activities (name, description, type, status, category, start_date, end_date, min_participants, max_participants, tags, created_by)
        VALUES ($1, $2, $3, $4, $5, $6::date, $7::date, $8, $9, $10, $11::uuid)
        RETURNING id::text`

	var id string
	err = s.pool.QueryRow(ctx, stmt,
		req.Title,
		req.Description,
		models.TypeToDB(req.Type),
		models.StatusToDB(req.Status),
		nullIfEmpty(req.Category),
		nullIfEmpty(req.StartDate),
		nullIfEmpty(req.EndDate),
		req.MinParticipants,
		req.MaxParticipants,
		req.Tags,
		memberID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *PostgresActivityStore) Join(ctx context.Context, id string, user *models.Identity) (*models.Activity, error) {
	if !isUUID(id) {
		return nil, models.ErrNotFound
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	memberID, err := s.ensureMember(ctx, tx, user)
	if err != nil {
		return nil, err
	}

	var limit int
	err = tx.QueryRow(ctx, `SELECT max_participants FROM activities WHERE id = $1::uuid FOR UPDATE`, id).Scan(&limit)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock activity: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM activity_participants WHERE activity_id = $1::uuid AND member_id = $2::uuid)`,
		id, memberID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if exists {
		return nil, models.ErrAlreadyJoined
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM activity_participants WHERE activity_id = $1::uuid AND status = $2`, id, models.ParticipantAccepted).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	if limit > 0 && count >= limit {
		return nil, models.ErrActivityFull
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO activity_participants (activity_id, member_id, role, status) VALUES ($1::uuid, $2::uuid, $3, $4)`,
		id, memberID, models.ParticipantRole, models.ParticipantAccepted,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			s.logger.Debug("Join lost a race to a concurrent insert", "activity_id", id, "member_id", memberID)
			return nil, models.ErrAlreadyJoined
		}
		return nil, fmt.Errorf("failed to join activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *PostgresActivityStore) ListForMember(ctx context.Context, user *models.Identity) (*models.MemberActivities, error) {
	memberID, err := s.memberID(ctx, s.pool, user.Email)
	if errors.Is(err, models.ErrMemberNotFound) {
		return &models.MemberActivities{Created: []models.Activity{}, Participating: []models.Activity{}}, nil
	}
	if err != nil {
		return nil, err
	}

	created, err := s.queryActivities(ctx, `SELECT `+activityColumns+`
        FROM activities a LEFT JOIN members m ON m.id = a.created_by
        WHERE a.created_by = $1::uuid
        ORDER BY a.created_at DESC`, memberID)
	if err != nil {
		return nil, err
	}

	participating, err := s.queryActivities(ctx, `SELECT `+activityColumns+`
        FROM activity_participants p
        JOIN activities a ON a.id = p.activity_id
        LEFT JOIN members m ON m.id = a.created_by
        WHERE p.member_id = $1::uuid
        ORDER BY p.joined_at DESC`, memberID)
	if err != nil {
		return nil, err
	}

	return &models.MemberActivities{Created: created, Participating: participating}, nil
}

func (s *PostgresActivityStore) Seed(context.Context) (bool, error) {
	return false, nil
}

func (s *PostgresActivityStore) RegisterMember(ctx context.Context, id *models.Identity) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO members (email, name) VALUES ($1, $2)
        ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name`,
		id.Email, id.DisplayName(),
	)
	if err != nil {
		return fmt.Errorf("failed to register member: %w", err)
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ensureMember returns the member row for id, creating it for accounts that
// signed up before the members table was populated.
func (s *PostgresActivityStore) ensureMember(ctx context.Context, q querier, id *models.Identity) (string, error) {
	memberID, err := s.memberID(ctx, q, id.Email)
	if !errors.Is(err, models.ErrMemberNotFound) {
		return memberID, err
	}

	s.logger.Info("Registering missing member row", "email", id.Email)
	_, err = q.Exec(ctx,
		`INSERT INTO members (email, name) VALUES ($1, $2) ON CONFLICT (email) DO NOTHING`,
		id.Email, id.DisplayName(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to register member: %w", err)
	}
	return s.memberID(ctx, q, id.Email)
}

func (s *PostgresActivityStore) memberID(ctx context.Context, q querier, email string) (string, error) {
	var id string
	err := q.QueryRow(ctx, `SELECT id::text FROM members WHERE email = $1`, email).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", models.ErrMemberNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up member: %w", err)
	}
	return id, nil
}

// queryActivities scans activity rows and then attaches their participants
// with one extra query.
func (s *PostgresActivityStore) queryActivities(ctx context.Context, query string, args ...any) ([]models.Activity, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}

	var list []activityRow
	for rows.Next() {
		var (
			r         activityRow
			id        string
			createdBy *string
			ownerName *string
		)
		if err := rows.Scan(&id, &r.Name, &r.Description, &r.Type, &r.Status, &r.Category,
			&r.StartDate, &r.EndDate, &r.MinParticipants, &r.MaxParticipants, &r.Tags,
			&createdBy, &r.CreatedAt, &ownerName); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		r.ID = rowID(id)
		if createdBy != nil {
			id := rowID(*createdBy)
			r.CreatedBy = &id
		}
		if ownerName != nil {
			r.CreatedByMember = &memberRef{Name: *ownerName}
		}
		list = append(list, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return []models.Activity{}, nil
	}

	ids := make([]string, len(list))
	byID := make(map[string]int, len(list))
	for i := range list {
		ids[i] = string(list[i].ID)
		byID[ids[i]] = i
	}
	if err := s.attachParticipants(ctx, ids, func(activityID string, p participantRow) {
		if i, ok := byID[activityID]; ok {
			list[i].Participants = append(list[i].Participants, p)
		}
	}); err != nil {
		return nil, err
	}
	return toActivities(list), nil
}

func (s *PostgresActivityStore) attachParticipants(ctx context.Context, ids []string, add func(string, participantRow)) error {
	rows, err := s.pool.Query(ctx, `SELECT p.activity_id::text, p.member_id::text, p.role, p.status, p.joined_at, m.name, m.email, coalesce(m.bio, '')
        FROM activity_participants p JOIN members m ON m.id = p.member_id
        WHERE p.activity_id = ANY($1::uuid[])
        ORDER BY p.joined_at`, ids)
	if err != nil {
		return fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			activityID string
			memberID   string
			p          participantRow
			member     memberRef
		)
		if err := rows.Scan(&activityID, &memberID, &p.Role, &p.Status, &p.JoinedAt, &member.Name, &member.Email, &member.Bio); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		p.MemberID = rowID(memberID)
		p.Member = &member
		add(activityID, p)
	}
	return rows.Err()
}
