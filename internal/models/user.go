package models

import (
	"strings"
	"time"
	"unicode"
)

const (
	StartingLevel     = 1
	StartingLevelName = "Mentor Iniciante"
)

// Identity is what the identity provider vouches for once a token checks out.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// DisplayName falls back to the email when the account has no name metadata.
func (i *Identity) DisplayName() string {
	if strings.TrimSpace(i.Name) != "" {
		return i.Name
	}
	return i.Email
}

// Session is the result of a password sign-in.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	Identity     Identity
}

// Mentor is the summary record kept next to every auth account.
type Mentor struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Points          int       `json:"points"`
	Level           int       `json:"level"`
	LevelName       string    `json:"levelName"`
	Avatar          string    `json:"avatar"`
	CreatedAt       time.Time `json:"createdAt"`
	ActiveMentees   int       `json:"mentoradosAtivos"`
	TotalMentees    int       `json:"totalMentorados"`
	HoursDonated    int       `json:"horasDoadas"`
	TracksCompleted int       `json:"trilhasConcluidas"`
}

func NewMentor(id, name, email string, now time.Time) *Mentor {
	return &Mentor{
		ID:        id,
		Name:      name,
		Email:     email,
		Points:    0,
		Level:     StartingLevel,
		LevelName: StartingLevelName,
		Avatar:    Initials(name),
		CreatedAt: now.UTC(),
	}
}

// Initials takes the first letter of up to two words, upper-cased.
func Initials(name string) string {
	var b strings.Builder
	count := 0
	for _, word := range strings.Fields(name) {
		if count == 2 {
			break
		}
		r := []rune(word)[0]
		b.WriteRune(unicode.ToUpper(r))
		count++
	}
	return b.String()
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
