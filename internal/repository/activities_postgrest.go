package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/mentorlink/internal/models"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

// PostgrestActivityStore reads and writes the relational tables through the
// hosted REST layer. Each call is its own statement: the join flow's checks
// and insert do not share a transaction, and the primary key on
// activity_participants is what finally rejects a racing duplicate.
type PostgrestActivityStore struct {
	client *supabase.Client
	logger *slog.Logger
}

func NewPostgrestActivityStore(client *supabase.Client, logger *slog.Logger) *PostgrestActivityStore {
	return &PostgrestActivityStore{client: client, logger: logger}
}

func (s *PostgrestActivityStore) Name() string { return "postgrest" }

func (s *PostgrestActivityStore) Ping(ctx context.Context) error {
	_, _, err := s.client.From(models.ActivitiesTable).
		Select("id", "", false).
		Limit(1, "").
		Execute()
	if err != nil {
		return fmt.Errorf("activities table unreachable: %w", err)
	}
	_, _, err = s.client.From(models.ParticipantsTable).
		Select("activity_id", "", false).
		Limit(1, "").
		Execute()
	if err != nil {
		return fmt.Errorf("participants table unreachable: %w", err)
	}
	return nil
}

func (s *PostgrestActivityStore) List(ctx context.Context) ([]models.Activity, error) {
	var rows []activityRow
	err := s.query(s.client.From(models.ActivitiesTable).
		Select(listSelect, "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}), &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return toActivities(rows), nil
}

func (s *PostgrestActivityStore) Get(ctx context.Context, id string) (*models.Activity, error) {
	if !validRowID(id) {
		return nil, models.ErrNotFound
	}
	var rows []activityRow
	err := s.query(s.client.From(models.ActivitiesTable).
		Select(detailSelect, "", false).
		Eq("id", id), &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	if len(rows) == 0 {
		return nil, models.ErrNotFound
	}
	a := rows[0].toActivity()
	return &a, nil
}

func (s *PostgrestActivityStore) Create(ctx context.Context, owner *models.Identity, req *models.CreateActivityRequest) (*models.Activity, error) {
	memberID, err := s.ensureMember(ctx, owner)
	if err != nil {
		return nil, err
	}

	var rows []activityRow
	err = s.query(s.client.From(models.ActivitiesTable).
		Insert(insertRow(req, memberID), false, "", "representation", ""), &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to create activity: no row returned")
	}

	a := rows[0].toActivity()
	a.Owner = owner.DisplayName()
	return &a, nil
}

func (s *PostgrestActivityStore) Join(ctx context.Context, id string, user *models.Identity) (*models.Activity, error) {
	if !validRowID(id) {
		return nil, models.ErrNotFound
	}
	memberID, err := s.ensureMember(ctx, user)
	if err != nil {
		return nil, err
	}

	var probe []probeRow
	err = s.query(s.client.From(models.ActivitiesTable).
		Select(probeSelect, "", false).
		Eq("id", id), &probe)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	if len(probe) == 0 {
		return nil, models.ErrNotFound
	}

	var existing []participantRow
	err = s.query(s.client.From(models.ParticipantsTable).
		Select("member_id", "", false).
		Eq("activity_id", id).
		Eq("member_id", memberID), &existing)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if len(existing) > 0 {
		return nil, models.ErrAlreadyJoined
	}

	if limit := probe[0].MaxParticipants; limit != nil && *limit > 0 && probe[0].count() >= *limit {
		return nil, models.ErrActivityFull
	}

	_, _, err = s.client.From(models.ParticipantsTable).
		Insert(map[string]any{
			"activity_id": id,
			"member_id":   memberID,
			"role":        models.ParticipantRole,
			"status":      models.ParticipantAccepted,
		}, false, "", "minimal", "").
		Execute()
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.Debug("Join lost a race to a concurrent insert", "activity_id", id, "member_id", memberID)
			return nil, models.ErrAlreadyJoined
		}
		return nil, fmt.Errorf("failed to join activity: %w", err)
	}

	return s.Get(ctx, id)
}

func (s *PostgrestActivityStore) ListForMember(ctx context.Context, user *models.Identity) (*models.MemberActivities, error) {
	memberID, err := s.memberID(user.Email)
	if errors.Is(err, models.ErrMemberNotFound) {
		return &models.MemberActivities{Created: []models.Activity{}, Participating: []models.Activity{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var created []activityRow
	err = s.query(s.client.From(models.ActivitiesTable).
		Select(listSelect, "", false).
		Eq("created_by", memberID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}), &created)
	if err != nil {
		return nil, fmt.Errorf("failed to list created activities: %w", err)
	}

	var joined []participationRow
	err = s.query(s.client.From(models.ParticipantsTable).
		Select(mineSelect, "", false).
		Eq("member_id", memberID), &joined)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}

	out := &models.MemberActivities{
		Created:       toActivities(created),
		Participating: make([]models.Activity, 0, len(joined)),
	}
	for _, p := range joined {
		if p.Activity == nil {
			continue
		}
		out.Participating = append(out.Participating, p.Activity.toActivity())
	}
	return out, nil
}

func (s *PostgrestActivityStore) Seed(context.Context) (bool, error) {
	return false, nil
}

// RegisterMember upserts the member row that activities and enrollments
// reference.
func (s *PostgrestActivityStore) RegisterMember(ctx context.Context, id *models.Identity) error {
	_, _, err := s.client.From(models.MembersTable).
		Insert(map[string]any{
			"email": id.Email,
			"name":  id.DisplayName(),
		}, true, "email", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to register member: %w", err)
	}
	return nil
}

// ensureMember returns the member row for id, registering it first when the
// account predates the members table.
func (s *PostgrestActivityStore) ensureMember(ctx context.Context, id *models.Identity) (string, error) {
	memberID, err := s.memberID(id.Email)
	if !errors.Is(err, models.ErrMemberNotFound) {
		return memberID, err
	}

	s.logger.Info("Registering missing member row", "email", id.Email)
	if err := s.RegisterMember(ctx, id); err != nil {
		return "", err
	}
	return s.memberID(id.Email)
}

func (s *PostgrestActivityStore) memberID(email string) (string, error) {
	var rows []struct {
		ID rowID `json:"id"`
	}
	err := s.query(s.client.From(models.MembersTable).
		Select("id", "", false).
		Eq("email", email), &rows)
	if err != nil {
		return "", fmt.Errorf("failed to look up member: %w", err)
	}
	if len(rows) == 0 {
		return "", models.ErrMemberNotFound
	}
	return string(rows[0].ID), nil
}

func (s *PostgrestActivityStore) query(fb *postgrest.FilterBuilder, dst any) error {
	raw, _, err := fb.Execute()
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode rows: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
