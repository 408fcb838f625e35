// Package users implements the credential store: registration with salted
// password hashing, email/password authentication, and profile lookup.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatherly/server/internal/domain/ids"
	"github.com/gatherly/server/internal/sanitize"
)

// Service handles user registration, authentication, and profile lookup.
// The bcrypt cost factor is injected so tests can use the minimum cost.
type Service struct {
	repo       Repository
	bcryptCost int
	logger     zerolog.Logger
	validator  *validator.Validate
}

func NewService(repo Repository, bcryptCost int, logger zerolog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("component", "users").Logger(),
		validator:  validator.New(),
	}
}

type RegisterParams struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Register creates a new user storing only a bcrypt hash of the password.
// Returns ErrEmailTaken when the email is already registered.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	params.Name = sanitize.Text(strings.TrimSpace(params.Name))
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))

	if err := s.validator.Struct(params); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			field := strings.ToLower(fieldErrs[0].Field())
			return nil, ValidationError{Field: field, Message: "required"}
		}
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint user id: %w", err)
	}

	user, err := s.repo.Create(ctx, CreateParams{
		ID:           id,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Authenticate verifies email/password credentials. Unknown email and wrong
// password both return ErrInvalidCredentials so callers cannot tell which
// check failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetByID resolves a user by id. Used by the access guard to attach the
// caller identity after token verification.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Profile returns the user with createdEvents and attendingEvents populated.
func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreatedEventIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("created events: %w", err)
	}

	attending, err := s.repo.AttendingEventIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("attending events: %w", err)
	}

	return &Profile{
		User:            *user,
		CreatedEvents:   created,
		AttendingEvents: attending,
	}, nil
}
