package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/joshua-takyi/mentorlink/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/supabase-go"
)

type fakeMember struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type fakeParticipant struct {
	ActivityID string
	MemberID   string
	Status     string
}

// fakeRest serves the handful of PostgREST requests the activity store
// makes, backed by in-memory tables.
type fakeRest struct {
	mu           sync.Mutex
	members      []fakeMember
	activities   map[string]map[string]any
	participants []fakeParticipant

	memberWrites int
	// hideEnrollment makes the enrollment check miss existing rows, the
	// way a concurrent insert slips between check and write.
	hideEnrollment bool
}

func newFakeRest(t *testing.T) (*fakeRest, *PostgrestActivityStore) {
	t.Helper()
	f := &fakeRest{activities: map[string]map[string]any{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	client, err := supabase.NewClient(srv.URL, "service-key", nil)
	require.NoError(t, err)
	return f, NewPostgrestActivityStore(client, testLogger())
}

func (f *fakeRest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	eq := func(col string) string { return strings.TrimPrefix(q.Get(col), "eq.") }

	switch r.Method + " " + strings.TrimPrefix(r.URL.Path, "/rest/v1/") {
	case "GET " + models.MembersTable:
		out := []fakeMember{}
		for _, m := range f.members {
			if m.Email == eq("email") {
				out = append(out, m)
			}
		}
		writeRows(w, http.StatusOK, out)

	case "POST " + models.MembersTable:
		var body fakeMember
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.memberWrites++
		if f.member(body.Email) == nil {
			f.members = append(f.members, fakeMember{ID: uuid.NewString(), Email: body.Email, Name: body.Name})
		}
		w.WriteHeader(http.StatusCreated)

	case "GET " + models.ActivitiesTable:
		out := []map[string]any{}
		for id, a := range f.activities {
			if want := eq("id"); want != "" && want != id {
				continue
			}
			if strings.HasPrefix(q.Get("select"), "id,max_participants,") {
				out = append(out, f.probe(id, a))
			} else {
				out = append(out, f.detail(id, a))
			}
		}
		writeRows(w, http.StatusOK, out)

	case "POST " + models.ActivitiesTable:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := uuid.NewString()
		body["id"] = id
		f.activities[id] = body
		writeRows(w, http.StatusCreated, []map[string]any{f.detail(id, body)})

	case "GET " + models.ParticipantsTable:
		out := []map[string]any{}
		if !f.hideEnrollment {
			for _, p := range f.participants {
				if p.ActivityID == eq("activity_id") && p.MemberID == eq("member_id") {
					out = append(out, map[string]any{"member_id": p.MemberID})
				}
			}
		}
		writeRows(w, http.StatusOK, out)

	case "POST " + models.ParticipantsTable:
		var body struct {
			ActivityID string `json:"activity_id"`
			MemberID   string `json:"member_id"`
			Status     string `json:"status"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, p := range f.participants {
			if p.ActivityID == body.ActivityID && p.MemberID == body.MemberID {
				writeRows(w, http.StatusConflict, map[string]string{
					"code":    "23505",
					"message": `duplicate key value violates unique constraint "activity_participants_pkey"`,
				})
				return
			}
		}
		f.participants = append(f.participants, fakeParticipant{ActivityID: body.ActivityID, MemberID: body.MemberID, Status: body.Status})
		w.WriteHeader(http.StatusCreated)

	default:
		writeRows(w, http.StatusNotFound, map[string]string{"code": "PGRST205", "message": "unknown route"})
	}
}

func (f *fakeRest) member(email string) *fakeMember {
	for i := range f.members {
		if f.members[i].Email == email {
			return &f.members[i]
		}
	}
	return nil
}

func (f *fakeRest) probe(id string, a map[string]any) map[string]any {
	parts := []map[string]any{}
	for _, p := range f.participants {
		if p.ActivityID == id {
			parts = append(parts, map[string]any{"status": p.Status})
		}
	}
	return map[string]any{"id": id, "max_participants": a["max_participants"], "participants": parts}
}

func (f *fakeRest) detail(id string, a map[string]any) map[string]any {
	row := map[string]any{}
	for k, v := range a {
		row[k] = v
	}
	parts := []map[string]any{}
	for _, p := range f.participants {
		if p.ActivityID == id {
			parts = append(parts, map[string]any{"member_id": p.MemberID, "role": models.ParticipantRole, "status": p.Status})
		}
	}
	row["participants"] = parts
	for _, m := range f.members {
		if m.ID == a["created_by"] {
			row["created_by_member"] = map[string]any{"name": m.Name, "email": m.Email}
		}
	}
	return row
}

func writeRows(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func restActivity(t *testing.T, s *PostgrestActivityStore, owner *models.Identity, seats int) *models.Activity {
	t.Helper()
	req := &models.CreateActivityRequest{Title: "Mentoria", Description: "Encontros semanais", MaxParticipants: seats}
	req.Normalize()
	a, err := s.Create(context.Background(), owner, req)
	require.NoError(t, err)
	return a
}

func TestPostgrestCreateUsesMemberRow(t *testing.T) {
	ctx := context.Background()
	f, s := newFakeRest(t)

	owner := &models.Identity{Email: "carla@x.com", Name: "Carla"}
	require.NoError(t, s.RegisterMember(ctx, owner))
	created := restActivity(t, s, owner, 3)

	assert.Equal(t, "Carla", created.Owner)
	assert.Equal(t, f.member("carla@x.com").ID, created.OwnerID)
	assert.Equal(t, 1, f.memberWrites, "existing member is not registered again")
}

func TestPostgrestCreateRegistersMissingMember(t *testing.T) {
	f, s := newFakeRest(t)

	created := restActivity(t, s, &models.Identity{Email: "dani@x.com", Name: "Dani"}, 3)

	m := f.member("dani@x.com")
	require.NotNil(t, m)
	assert.Equal(t, "Dani", m.Name)
	assert.Equal(t, m.ID, created.OwnerID)
}

func TestPostgrestJoinRules(t *testing.T) {
	ctx := context.Background()
	_, s := newFakeRest(t)
	a := restActivity(t, s, &models.Identity{Email: "owner@x.com", Name: "Owner"}, 1)

	// no members row yet, registered on the way in
	joined, err := s.Join(ctx, a.ID, &models.Identity{Email: "ghost@x.com", Name: "Ghost"})
	require.NoError(t, err)
	assert.Equal(t, 1, joined.Participants)

	_, err = s.Join(ctx, a.ID, &models.Identity{Email: "ghost@x.com", Name: "Ghost"})
	assert.ErrorIs(t, err, models.ErrAlreadyJoined)

	_, err = s.Join(ctx, a.ID, &models.Identity{Email: "late@x.com", Name: "Late"})
	assert.ErrorIs(t, err, models.ErrActivityFull)

	_, err = s.Join(ctx, uuid.NewString(), &models.Identity{Email: "late@x.com"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.Join(ctx, "activity_1", &models.Identity{Email: "late@x.com"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPostgrestJoinIgnoresPendingParticipants(t *testing.T) {
	ctx := context.Background()
	f, s := newFakeRest(t)
	a := restActivity(t, s, &models.Identity{Email: "owner@x.com", Name: "Owner"}, 1)

	f.mu.Lock()
	f.participants = append(f.participants, fakeParticipant{ActivityID: a.ID, MemberID: uuid.NewString(), Status: "pending"})
	f.mu.Unlock()

	joined, err := s.Join(ctx, a.ID, &models.Identity{Email: "bia@x.com", Name: "Bia"})
	require.NoError(t, err)
	assert.Equal(t, 1, joined.Participants)
}

func TestPostgrestJoinRaceMapsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	f, s := newFakeRest(t)
	a := restActivity(t, s, &models.Identity{Email: "owner@x.com", Name: "Owner"}, 5)
	bia := &models.Identity{Email: "bia@x.com", Name: "Bia"}

	_, err := s.Join(ctx, a.ID, bia)
	require.NoError(t, err)

	f.mu.Lock()
	f.hideEnrollment = true
	f.mu.Unlock()

	_, err = s.Join(ctx, a.ID, bia)
	assert.ErrorIs(t, err, models.ErrAlreadyJoined)
}

func TestPostgrestListForUnknownMemberIsEmpty(t *testing.T) {
	f, s := newFakeRest(t)

	mine, err := s.ListForMember(context.Background(), &models.Identity{Email: "ghost@x.com"})
	require.NoError(t, err)
	assert.Empty(t, mine.Created)
	assert.Empty(t, mine.Participating)
	assert.Nil(t, f.member("ghost@x.com"), "reads do not register members")
}
