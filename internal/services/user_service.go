package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joshua-takyi/mentorlink/internal/events"
	"github.com/joshua-takyi/mentorlink/internal/models"
)

type UserService struct {
	identity  models.IdentityProvider
	mentors   models.MentorRepo
	members   models.MemberDirectory
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewUserService(identity models.IdentityProvider, mentors models.MentorRepo, members models.MemberDirectory, publisher events.Publisher, logger *slog.Logger) *UserService {
	return &UserService{
		identity:  identity,
		mentors:   mentors,
		members:   members,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates the auth account with the email already confirmed and
// writes the mentor summary next to it.
func (us *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.Identity, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := models.ValidateStruct(req); err != nil {
		return nil, err
	}

	id, err := us.identity.CreateUser(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if id.Name == "" {
		id.Name = req.Name
	}

	mentor := models.NewMentor(id.ID, req.Name, req.Email, us.now())
	if err := us.mentors.SaveMentor(ctx, mentor); err != nil {
		us.logger.Error("Auth account created without mentor summary", "user_id", id.ID, "error", err)
		return nil, fmt.Errorf("failed to create mentor record: %w", err)
	}

	if err := us.members.RegisterMember(ctx, id); err != nil {
		us.logger.Warn("Member row not created", "user_id", id.ID, "error", err)
	}

	us.publish(ctx, events.New(events.MentorRegistered, id.ID, mentor))
	return id, nil
}

func (us *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.Session, *models.Mentor, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := models.ValidateStruct(req); err != nil {
		return nil, nil, err
	}

	session, err := us.identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, nil, err
	}

	mentor, err := us.mentors.GetMentor(ctx, session.Identity.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, mentor, nil
}

// Authenticate resolves a bearer token to the identity behind it.
func (us *UserService) Authenticate(ctx context.Context, accessToken string) (*models.Identity, error) {
	if accessToken == "" {
		return nil, models.ErrUnauthorized
	}
	return us.identity.GetUser(ctx, accessToken)
}

func (us *UserService) VerifySession(ctx context.Context, accessToken string) (*models.Mentor, error) {
	id, err := us.Authenticate(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return us.mentors.GetMentor(ctx, id.ID)
}

func (us *UserService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return models.ErrUnauthorized
	}
	return us.identity.SignOut(ctx, accessToken)
}

func (us *UserService) publish(ctx context.Context, evt events.Event) {
	if err := us.publisher.Publish(ctx, evt); err != nil {
		us.logger.Warn("Event not published", "type", evt.Type, "key", evt.Key, "error", err)
	}
}
