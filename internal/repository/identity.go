package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joshua-takyi/mentorlink/internal/helpers"
	"github.com/joshua-takyi/mentorlink/internal/kv"
	"github.com/joshua-takyi/mentorlink/internal/models"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

// SupabaseIdentity talks to Supabase Auth. When a verifier is set, access
// tokens are checked locally instead of calling the auth server, and tokens
// signed out through this service are remembered in the revoked store until
// they expire.
type SupabaseIdentity struct {
	client     *supabase.Client
	serviceKey string
	verifier   *helpers.TokenVerifier
	revoked    kv.Store
	logger     *slog.Logger
}

type revokedToken struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewSupabaseIdentity(client *supabase.Client, serviceKey string, verifier *helpers.TokenVerifier, revoked kv.Store, logger *slog.Logger) *SupabaseIdentity {
	return &SupabaseIdentity{
		client:     client,
		serviceKey: serviceKey,
		verifier:   verifier,
		revoked:    revoked,
		logger:     logger,
	}
}

// revokedKey prefers the session id so every token of a signed out session
// is refused; tokens without one are keyed by their hash.
func revokedKey(claims *helpers.Claims, accessToken string) string {
	if claims.SessionID != "" {
		return "revoked_session_" + claims.SessionID
	}
	sum := sha256.Sum256([]byte(accessToken))
	return "revoked_token_" + hex.EncodeToString(sum[:])
}

func (s *SupabaseIdentity) CreateUser(ctx context.Context, name, email, password string) (*models.Identity, error) {
	res, err := s.client.Auth.WithToken(s.serviceKey).AdminCreateUser(types.AdminCreateUserRequest{
		Email:        email,
		Password:     &password,
		EmailConfirm: true,
		UserMetadata: map[string]interface{}{"name": name},
	})
	if err != nil {
		s.logger.Warn("Auth account creation rejected", "email", email, "error", err)
		return nil, models.NewValidationError("%s", providerMessage(err))
	}
	return userIdentity(&res.User), nil
}

func (s *SupabaseIdentity) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	res, err := s.client.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		s.logger.Debug("Sign in failed", "email", email, "error", err)
		return nil, models.ErrInvalidCredentials
	}
	return &models.Session{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
		Identity:     *userIdentity(&res.User),
	}, nil
}

func (s *SupabaseIdentity) GetUser(ctx context.Context, accessToken string) (*models.Identity, error) {
	if s.verifier != nil {
		claims, err := s.verifier.Verify(accessToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
		}
		if s.revoked != nil {
			var entry revokedToken
			_, err := kv.GetJSON(ctx, s.revoked, revokedKey(claims, accessToken), &entry)
			switch {
			case err == nil:
				return nil, fmt.Errorf("%w: session signed out", models.ErrUnauthorized)
			case !errors.Is(err, kv.ErrNotFound):
				return nil, fmt.Errorf("failed to check token revocation: %w", err)
			}
		}
		return claims.Identity(), nil
	}

	res, err := s.client.Auth.WithToken(accessToken).GetUser()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}
	return userIdentity(&res.User), nil
}

func (s *SupabaseIdentity) SignOut(ctx context.Context, accessToken string) error {
	if err := s.client.Auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrLogoutFailed, err)
	}
	if s.verifier == nil || s.revoked == nil {
		return nil
	}

	claims, err := s.verifier.Verify(accessToken)
	if err != nil {
		// an expired or foreign token is refused locally already
		return nil
	}
	entry := revokedToken{UserID: claims.Subject}
	if claims.ExpiresAt != nil {
		entry.ExpiresAt = claims.ExpiresAt.Time
	}
	if err := kv.SetJSON(ctx, s.revoked, revokedKey(claims, accessToken), entry); err != nil {
		s.logger.Error("Signed out with the provider but token not revoked locally", "user_id", claims.Subject, "error", err)
		return fmt.Errorf("%w: %v", models.ErrLogoutFailed, err)
	}
	return nil
}

func userIdentity(u *types.User) *models.Identity {
	id := &models.Identity{ID: u.ID.String(), Email: u.Email}
	if name, ok := u.UserMetadata["name"].(string); ok {
		id.Name = name
	}
	return id
}

// providerMessage pulls the human readable part out of a gotrue error, which
// looks like "response status code 422: {"code":422,"msg":"..."}".
func providerMessage(err error) string {
	msg := err.Error()
	start := strings.Index(msg, "{")
	if start < 0 {
		return msg
	}
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal([]byte(msg[start:]), &body) != nil {
		return msg
	}
	for _, m := range []string{body.Msg, body.Message, body.ErrorDescription} {
		if m != "" {
			return m
		}
	}
	return msg
}
