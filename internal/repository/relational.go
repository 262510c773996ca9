package repository

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/mentorlink/internal/models"
)

const (
	listSelect   = "*, created_by_member:members!activities_created_by_fkey(name), participants:activity_participants(member_id, role, status, joined_at, member:members(name, email))"
	detailSelect = "*, created_by_member:members!activities_created_by_fkey(name, email), participants:activity_participants(member_id, role, status, joined_at, member:members(name, email, bio))"
	probeSelect  = "id, max_participants, participants:activity_participants(status)"
	mineSelect   = "role, status, joined_at, activity:activities(*)"
)

// rowID accepts both numeric and text primary keys.
type rowID string

func (r *rowID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = rowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = rowID(n.String())
	return nil
}

type memberRef struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Bio   string `json:"bio"`
}

type participantRow struct {
	MemberID rowID      `json:"member_id"`
	Role     string     `json:"role"`
	Status   string     `json:"status"`
	JoinedAt *time.Time `json:"joined_at"`
	Member   *memberRef `json:"member"`
}

type activityRow struct {
	ID              rowID            `json:"id"`
	Name            string           `json:"name"`
	Description     *string          `json:"description"`
	Type            string           `json:"type"`
	Status          string           `json:"status"`
	Category        *string          `json:"category"`
	StartDate       *string          `json:"start_date"`
	EndDate         *string          `json:"end_date"`
	MinParticipants *int             `json:"min_participants"`
	MaxParticipants *int             `json:"max_participants"`
	Tags            []string         `json:"tags"`
	CreatedBy       *rowID           `json:"created_by"`
	CreatedAt       *time.Time       `json:"created_at"`
	CreatedByMember *memberRef       `json:"created_by_member"`
	Participants    []participantRow `json:"participants"`
}

type probeRow struct {
	ID              rowID `json:"id"`
	MaxParticipants *int  `json:"max_participants"`
	Participants    []struct {
		Status string `json:"status"`
	} `json:"participants"`
}

// count is the number of accepted participants, the ones holding a seat.
func (p *probeRow) count() int {
	n := 0
	for _, part := range p.Participants {
		if part.Status == models.ParticipantAccepted {
			n++
		}
	}
	return n
}

type participationRow struct {
	Role     string       `json:"role"`
	Status   string       `json:"status"`
	JoinedAt *time.Time   `json:"joined_at"`
	Activity *activityRow `json:"activity"`
}

// toActivity translates a relational row into the client vocabulary.
func (r *activityRow) toActivity() models.Activity {
	a := models.Activity{
		ID:                 string(r.ID),
		Title:              r.Name,
		Description:        deref(r.Description),
		Type:               models.TypeFromDB(r.Type),
		Status:             models.StatusFromDB(r.Status),
		Category:           deref(r.Category),
		StartDate:          dateOnly(deref(r.StartDate)),
		EndDate:            dateOnly(deref(r.EndDate)),
		EnrollmentOpen:     models.EnrollmentOpenFor(r.Status),
		Owner:              models.DefaultOwner,
		Tags:               r.Tags,
		ParticipantDetails: make([]models.Participant, 0, len(r.Participants)),
		CreatedAt:          r.CreatedAt,
	}
	if a.Category == "" {
		a.Category = models.DefaultCategory
	}
	if r.MaxParticipants != nil {
		a.MaxParticipants = *r.MaxParticipants
	}
	if r.MinParticipants != nil {
		a.MinParticipants = *r.MinParticipants
	}
	if r.CreatedBy != nil {
		a.OwnerID = string(*r.CreatedBy)
	}
	if r.CreatedByMember != nil && r.CreatedByMember.Name != "" {
		a.Owner = r.CreatedByMember.Name
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}

	for _, p := range r.Participants {
		if p.Status == models.ParticipantAccepted {
			a.Participants++
		}
		detail := models.Participant{
			ID:       string(p.MemberID),
			Role:     p.Role,
			Status:   p.Status,
			JoinedAt: p.JoinedAt,
		}
		if p.Member != nil {
			detail.Name = p.Member.Name
			detail.Email = p.Member.Email
			detail.Bio = p.Member.Bio
		}
		a.ParticipantDetails = append(a.ParticipantDetails, detail)
	}
	return a
}

func toActivities(rows []activityRow) []models.Activity {
	out := make([]models.Activity, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toActivity())
	}
	return out
}

// insertRow maps a create request onto relational columns.
func insertRow(req *models.CreateActivityRequest, memberID string) map[string]any {
	return map[string]any{
		"name":             req.Title,
		"description":      req.Description,
		"type":             models.TypeToDB(req.Type),
		"status":           models.StatusToDB(req.Status),
		"category":         nullIfEmpty(req.Category),
		"start_date":       nullIfEmpty(req.StartDate),
		"end_date":         nullIfEmpty(req.EndDate),
		"min_participants": req.MinParticipants,
		"max_participants": req.MaxParticipants,
		"tags":             req.Tags,
		"created_by":       memberID,
	}
}

// validRowID filters ids that cannot match a uuid primary key, such as the
// key-value backend's activity_<n>, so they read as not found instead of a
// query error.
func validRowID(id string) bool {
	if isUUID(id) {
		return true
	}
	_, err := strconv.ParseInt(id, 10, 64)
	return err == nil
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// dateOnly trims timestamps that a date column may come back as.
func dateOnly(s string) string {
	if len(s) > len(models.DateLayout) {
		return s[:len(models.DateLayout)]
	}
	return s
}
