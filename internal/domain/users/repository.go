package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// User is a stored account record. PasswordHash never crosses the API
// boundary; handlers serialize users through projections only.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateParams struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
}

// Profile is the full authenticated view of a user: the account fields plus
// the ids of events the user authored and joined.
type Profile struct {
	User
	CreatedEvents   []string
	AttendingEvents []string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	CreatedEventIDs(ctx context.Context, userID string) ([]string, error)
	AttendingEventIDs(ctx context.Context, userID string) ([]string, error)
}
