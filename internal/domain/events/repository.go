package events

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("event not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrForbidden       = errors.New("not authorized")
	ErrSelfAttend      = errors.New("cannot attend your own event")
	ErrAlreadyAttend   = errors.New("already attending this event")
	ErrEventFull       = errors.New("event is full")
)

// UserRef is the projection of a user embedded in event responses: name and
// email only, never the password hash. Public reads blank the email.
type UserRef struct {
	ID    string
	Name  string
	Email string
}

type Comment struct {
	ID        string
	Content   string
	Author    UserRef
	CreatedAt time.Time
}

// Event is an event record with its creator, attendees, and comments
// projected in. Attendees never exceed MaxAttendees and never include the
// creator.
type Event struct {
	ID           string
	Title        string
	Description  string
	Date         time.Time
	Location     string
	MaxAttendees int
	Creator      UserRef
	Attendees    []UserRef
	Comments     []Comment
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateParams struct {
	ID           string
	Title        string
	Description  string
	Date         time.Time
	Location     string
	MaxAttendees int
	CreatorID    string
}

// UpdateParams is a patch: nil fields are left unchanged.
type UpdateParams struct {
	Title        *string
	Description  *string
	Date         *time.Time
	Location     *string
	MaxAttendees *int
}

type CommentCreateParams struct {
	ID       string
	EventID  string
	AuthorID string
	Content  string
}

type Repository interface {
	List(ctx context.Context) ([]Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Create(ctx context.Context, params CreateParams) error
	Update(ctx context.Context, id string, params UpdateParams) error
	Delete(ctx context.Context, id string) error

	// AddAttendee appends userID to the event's attendee set only while the
	// set holds fewer than maxAttendees members. The size check and insert
	// run under a lock on the event row so concurrent attends cannot
	// overshoot capacity. Returns ErrEventFull when at capacity and
	// ErrAlreadyAttend on duplicates.
	AddAttendee(ctx context.Context, eventID, userID string, maxAttendees int) error

	AddComment(ctx context.Context, params CommentCreateParams) error
	GetComment(ctx context.Context, eventID, commentID string) (*Comment, error)
	DeleteComment(ctx context.Context, eventID, commentID string) error
}
