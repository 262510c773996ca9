// Package testutil holds in-process stand-ins for external services.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/joshua-takyi/mentorlink/internal/models"
)

type account struct {
	identity models.Identity
	password string
}

// Identity is an in-memory identity provider with opaque random tokens.
type Identity struct {
	mu       sync.Mutex
	accounts map[string]*account
	tokens   map[string]models.Identity
}

func NewIdentity() *Identity {
	return &Identity{
		accounts: make(map[string]*account),
		tokens:   make(map[string]models.Identity),
	}
}

func (f *Identity) CreateUser(_ context.Context, name, email, password string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[email]; ok {
		return nil, models.NewValidationError("A user with this email address has already been registered")
	}
	acc := &account{
		identity: models.Identity{ID: uuid.NewString(), Email: email, Name: name},
		password: password,
	}
	f.accounts[email] = acc
	id := acc.identity
	return &id, nil
}

func (f *Identity) SignIn(_ context.Context, email, password string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[email]
	if !ok || acc.password != password {
		return nil, models.ErrInvalidCredentials
	}
	token := uuid.NewString()
	f.tokens[token] = acc.identity
	return &models.Session{AccessToken: token, ExpiresIn: 3600, Identity: acc.identity}, nil
}

func (f *Identity) GetUser(_ context.Context, accessToken string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.tokens[accessToken]
	if !ok {
		return nil, models.ErrUnauthorized
	}
	return &id, nil
}

func (f *Identity) SignOut(_ context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[accessToken]; !ok {
		return fmt.Errorf("%w: session not found", models.ErrLogoutFailed)
	}
	delete(f.tokens, accessToken)
	return nil
}
