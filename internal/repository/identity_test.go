package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joshua-takyi/mentorlink/internal/helpers"
	"github.com/joshua-takyi/mentorlink/internal/kv"
	"github.com/joshua-takyi/mentorlink/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/supabase-go"
)

const identitySecret = "identity-test-secret"

// authServer answers the logout endpoint and counts the calls.
func authServer(t *testing.T, status int) (*supabase.Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/auth/v1/logout" {
			calls.Add(1)
			w.WriteHeader(status)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := supabase.NewClient(srv.URL, "service-key", nil)
	require.NoError(t, err)
	return client, &calls
}

func accessToken(t *testing.T, subject, session string) string {
	t.Helper()
	claims := &helpers.Claims{
		Email:        subject + "@x.com",
		SessionID:    session,
		UserMetadata: map[string]any{"name": subject},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(identitySecret))
	require.NoError(t, err)
	return tok
}

func TestSignOutRevokesLocallyVerifiedToken(t *testing.T) {
	ctx := context.Background()
	client, calls := authServer(t, http.StatusNoContent)
	verifier := helpers.NewSecretVerifier(identitySecret)
	defer verifier.Close()
	idp := NewSupabaseIdentity(client, "service-key", verifier, kv.NewMemoryStore(), testLogger())

	token := accessToken(t, "ana", "session-1")
	sibling := accessToken(t, "ana", "session-1")
	other := accessToken(t, "ana", "session-2")

	id, err := idp.GetUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", id.Email)

	require.NoError(t, idp.SignOut(ctx, token))
	assert.Equal(t, int32(1), calls.Load())

	_, err = idp.GetUser(ctx, token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = idp.GetUser(ctx, sibling)
	assert.ErrorIs(t, err, models.ErrUnauthorized, "every token of the session is refused")

	id, err = idp.GetUser(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "ana", id.ID)
}

func TestSignOutWithoutSessionClaimRevokesByHash(t *testing.T) {
	ctx := context.Background()
	client, _ := authServer(t, http.StatusNoContent)
	verifier := helpers.NewSecretVerifier(identitySecret)
	defer verifier.Close()
	idp := NewSupabaseIdentity(client, "service-key", verifier, kv.NewMemoryStore(), testLogger())

	token := accessToken(t, "bia", "")
	require.NoError(t, idp.SignOut(ctx, token))

	_, err := idp.GetUser(ctx, token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = idp.GetUser(ctx, accessToken(t, "dora", ""))
	assert.NoError(t, err)
}

func TestSignOutRejectedByProviderKeepsToken(t *testing.T) {
	ctx := context.Background()
	client, _ := authServer(t, http.StatusUnauthorized)
	verifier := helpers.NewSecretVerifier(identitySecret)
	defer verifier.Close()
	store := kv.NewMemoryStore()
	idp := NewSupabaseIdentity(client, "service-key", verifier, store, testLogger())

	token := accessToken(t, "caio", "session-3")
	err := idp.SignOut(ctx, token)
	assert.ErrorIs(t, err, models.ErrLogoutFailed)

	_, err = kv.GetJSON(ctx, store, "revoked_session_session-3", &revokedToken{})
	assert.ErrorIs(t, err, kv.ErrNotFound)
	_, err = idp.GetUser(ctx, token)
	assert.NoError(t, err)
}
