package models

import (
	"strings"
	"time"
)

type ActivityType string

const (
	TypeMentoringPlan ActivityType = "plano-mentoria"
	TypeOpenActivity  ActivityType = "atividade-aberta"
)

type ActivityStatus string

const (
	StatusInProgress ActivityStatus = "em-andamento"
	StatusCompleted  ActivityStatus = "concluida"
	StatusScheduled  ActivityStatus = "agendada"
	StatusAvailable  ActivityStatus = "disponivel"
)

// Relational column values.
const (
	DBTypeMentoringPlan = "mentoring_plan"
	DBTypeOpenActivity  = "open_activity"

	DBStatusActive    = "active"
	DBStatusCompleted = "completed"
	DBStatusScheduled = "scheduled"
	DBStatusPending   = "pending"

	ParticipantRole     = "participant"
	ParticipantAccepted = "accepted"
)

const (
	DefaultMaxParticipants = 10
	DefaultMinParticipants = 1
	DefaultCategory        = "Geral"
	DefaultOwner           = "Sistema"
	DateLayout             = "2006-01-02"
)

type Participant struct {
	ID       string     `json:"id"`
	Name     string     `json:"nome"`
	Email    string     `json:"email"`
	Bio      string     `json:"bio,omitempty"`
	Role     string     `json:"role,omitempty"`
	Status   string     `json:"status,omitempty"`
	JoinedAt *time.Time `json:"dataIngresso,omitempty"`
}

type Activity struct {
	ID                 string         `json:"id"`
	Title              string         `json:"titulo"`
	Description        string         `json:"descricao"`
	Type               ActivityType   `json:"tipo"`
	Status             ActivityStatus `json:"status"`
	Category           string         `json:"categoria"`
	StartDate          string         `json:"dataInicio,omitempty"`
	EndDate            string         `json:"dataFim,omitempty"`
	Participants       int            `json:"participantes"`
	MaxParticipants    int            `json:"maxParticipantes"`
	MinParticipants    int            `json:"minParticipantes"`
	EnrollmentOpen     bool           `json:"inscricoesAbertas"`
	Owner              string         `json:"responsavel"`
	OwnerID            string         `json:"responsavelId,omitempty"`
	Tags               []string       `json:"tags"`
	ParticipantDetails []Participant  `json:"participantesDetalhes"`
	CreatedAt          *time.Time     `json:"createdAt,omitempty"`
}

// IsFull reports whether one more join would exceed the maximum. A zero
// maximum means unlimited.
func (a *Activity) IsFull() bool {
	return a.MaxParticipants > 0 && a.Participants >= a.MaxParticipants
}

func (a *Activity) HasParticipant(userID string) bool {
	for _, p := range a.ParticipantDetails {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// Enroll appends the identity as an accepted participant and bumps the count.
// Callers check IsFull and HasParticipant first.
func (a *Activity) Enroll(id *Identity, now time.Time) {
	joined := now.UTC()
	a.ParticipantDetails = append(a.ParticipantDetails, Participant{
		ID:       id.ID,
		Name:     id.DisplayName(),
		Email:    id.Email,
		Role:     ParticipantRole,
		Status:   ParticipantAccepted,
		JoinedAt: &joined,
	})
	a.Participants++
}

func (a *Activity) normalize() {
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if a.ParticipantDetails == nil {
		a.ParticipantDetails = []Participant{}
	}
}

// NormalizeActivities replaces nil collections in place.
func NormalizeActivities(list []Activity) []Activity {
	if list == nil {
		return []Activity{}
	}
	for i := range list {
		list[i].normalize()
	}
	return list
}

// CreateActivityRequest is the body of POST /activities. Zero capacities take
// the defaults; min <= max and date order are not enforced.
type CreateActivityRequest struct {
	Title           string         `json:"titulo" validate:"required"`
	Description     string         `json:"descricao" validate:"required"`
	Type            ActivityType   `json:"tipo" validate:"omitempty,oneof=plano-mentoria atividade-aberta"`
	Status          ActivityStatus `json:"status" validate:"omitempty,oneof=em-andamento concluida agendada disponivel"`
	Category        string         `json:"categoria"`
	StartDate       string         `json:"dataInicio" validate:"omitempty,datetime=2006-01-02"`
	EndDate         string         `json:"dataFim" validate:"omitempty,datetime=2006-01-02"`
	MaxParticipants int            `json:"maxParticipantes" validate:"gte=0"`
	MinParticipants int            `json:"minParticipantes" validate:"gte=0"`
	Tags            []string       `json:"tags"`
}

func (r *CreateActivityRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	if r.Type == "" {
		r.Type = TypeOpenActivity
	}
	if r.Status == "" {
		r.Status = StatusAvailable
	}
	if r.MaxParticipants == 0 {
		r.MaxParticipants = DefaultMaxParticipants
	}
	if r.MinParticipants == 0 {
		r.MinParticipants = DefaultMinParticipants
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
}

// NewActivity builds the stored record for a create request by the given owner.
func NewActivity(id string, req *CreateActivityRequest, owner *Identity, now time.Time) *Activity {
	created := now.UTC()
	return &Activity{
		ID:                 id,
		Title:              req.Title,
		Description:        req.Description,
		Type:               req.Type,
		Status:             req.Status,
		Category:           req.Category,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		MaxParticipants:    req.MaxParticipants,
		MinParticipants:    req.MinParticipants,
		EnrollmentOpen:     true,
		Owner:              owner.DisplayName(),
		OwnerID:            owner.ID,
		Tags:               req.Tags,
		ParticipantDetails: []Participant{},
		CreatedAt:          &created,
	}
}

// MemberActivities is the answer to "what am I involved in".
type MemberActivities struct {
	Created       []Activity `json:"created"`
	Participating []Activity `json:"participating"`
}

func TypeFromDB(v string) ActivityType {
	if v == DBTypeMentoringPlan {
		return TypeMentoringPlan
	}
	return TypeOpenActivity
}

func TypeToDB(t ActivityType) string {
	if t == TypeMentoringPlan {
		return DBTypeMentoringPlan
	}
	return DBTypeOpenActivity
}

func StatusFromDB(v string) ActivityStatus {
	switch v {
	case DBStatusActive:
		return StatusInProgress
	case DBStatusCompleted:
		return StatusCompleted
	case DBStatusScheduled:
		return StatusScheduled
	default:
		return StatusAvailable
	}
}

func StatusToDB(s ActivityStatus) string {
	switch s {
	case StatusInProgress:
		return DBStatusActive
	case StatusCompleted:
		return DBStatusCompleted
	case StatusScheduled:
		return DBStatusScheduled
	default:
		return DBStatusPending
	}
}

// EnrollmentOpenFor derives the open flag for relational rows.
func EnrollmentOpenFor(dbStatus string) bool {
	return dbStatus == DBStatusActive || dbStatus == DBStatusScheduled
}
