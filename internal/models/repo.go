package models

import (
	"context"
	"errors"
)

const (
	MembersTable      = "members"
	ActivitiesTable   = "activities"
	ParticipantsTable = "activity_participants"
	KVStoreTable      = "kv_store"
)

var ErrProfileNotFound = errors.New("profile not found")

// IdentityProvider is the hosted auth service. Tokens are opaque to callers.
type IdentityProvider interface {
	CreateUser(ctx context.Context, name, email, password string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	GetUser(ctx context.Context, accessToken string) (*Identity, error)
	SignOut(ctx context.Context, accessToken string) error
}

type MentorRepo interface {
	SaveMentor(ctx context.Context, mentor *Mentor) error
	GetMentor(ctx context.Context, id string) (*Mentor, error)
}

type ProfileRepo interface {
	GetProfile(ctx context.Context, email string) (*Profile, error)
	SaveProfile(ctx context.Context, profile *Profile) error
	// UpdateProfile applies fn to the stored profile, or to nil when none
	// exists, and saves the result without losing concurrent updates.
	UpdateProfile(ctx context.Context, email string, fn func(cur *Profile) (*Profile, error)) (*Profile, error)
}

// ActivityStore is one storage backend for activities and enrollments,
// chosen once at startup.
type ActivityStore interface {
	Name() string
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]Activity, error)
	Get(ctx context.Context, id string) (*Activity, error)
	Create(ctx context.Context, owner *Identity, req *CreateActivityRequest) (*Activity, error)
	Join(ctx context.Context, id string, user *Identity) (*Activity, error)
	ListForMember(ctx context.Context, user *Identity) (*MemberActivities, error)
	// Seed writes the example catalogue when the store is empty and reports
	// whether it did.
	Seed(ctx context.Context) (bool, error)
}

// MemberDirectory keeps the relational member row in step with auth accounts.
type MemberDirectory interface {
	RegisterMember(ctx context.Context, id *Identity) error
}
