package helpers

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/joshua-takyi/mentorlink/internal/models"
)

// Claims is the payload of a Supabase access token.
type Claims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	SessionID    string         `json:"session_id"`
	UserMetadata map[string]any `json:"user_metadata"`
	jwt.RegisteredClaims
}

func (c *Claims) Name() string {
	if name, ok := c.UserMetadata["name"].(string); ok {
		return name
	}
	return ""
}

func (c *Claims) Identity() *models.Identity {
	return &models.Identity{
		ID:    c.Subject,
		Email: c.Email,
		Name:  c.Name(),
	}
}
