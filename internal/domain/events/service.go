// Package events implements the event lifecycle engine: ownership, capacity,
// and state-transition rules for create/update/delete/attend/comment, plus
// the read projections served to clients.
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/gatherly/server/internal/domain/ids"
	"github.com/gatherly/server/internal/metrics"
	"github.com/gatherly/server/internal/sanitize"
)

// Publisher receives a fire-and-forget notification after each successful
// mutation. Implementations must not block; there is no delivery guarantee.
type Publisher interface {
	Publish(kind string, payload any)
}

// Notification is the payload broadcast on the realtime channel after a
// successful mutation.
type Notification struct {
	Kind    string `json:"kind"`
	EventID string `json:"eventId"`
	ActorID string `json:"actorId,omitempty"`
}

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type Service struct {
	repo      Repository
	publisher Publisher
	logger    zerolog.Logger
	validator *validator.Validate
}

// NewService creates the lifecycle engine. publisher may be nil, in which
// case mutation notifications are dropped.
func NewService(repo Repository, publisher Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With().Str("component", "events").Logger(),
		validator: validator.New(),
	}
}

type createInput struct {
	Title        string    `validate:"required"`
	Date         time.Time `validate:"required"`
	Location     string    `validate:"required"`
	MaxAttendees int       `validate:"required,gte=1"`
}

// Create persists a new event with the caller as immutable creator.
func (s *Service) Create(ctx context.Context, callerID string, params CreateParams) (*Event, error) {
	params.Title = sanitize.Text(strings.TrimSpace(params.Title))
	params.Description = sanitize.HTML(params.Description)
	params.Location = sanitize.Text(strings.TrimSpace(params.Location))

	input := createInput{
		Title:        params.Title,
		Date:         params.Date,
		Location:     params.Location,
		MaxAttendees: params.MaxAttendees,
	}
	if err := s.validator.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			field := strings.ToLower(fieldErrs[0].Field())
			s.record("create", err)
			return nil, ValidationError{Field: field, Message: "missing or out of range"}
		}
		return nil, err
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint event id: %w", err)
	}
	params.ID = id
	params.CreatorID = callerID

	if err := s.repo.Create(ctx, params); err != nil {
		s.record("create", err)
		return nil, err
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload created event: %w", err)
	}

	s.record("create", nil)
	s.publish("event.created", id, callerID)
	s.logger.Info().Str("event_id", id).Str("creator_id", callerID).Msg("event created")
	return event, nil
}

// List returns all events with creator, attendees, and comments projected.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx)
}

// Get returns one event by id.
func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

// Update overwrites the patched fields. Only the creator may update.
func (s *Service) Update(ctx context.Context, callerID, id string, patch UpdateParams) (*Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.record("update", err)
		return nil, err
	}
	if event.Creator.ID != callerID {
		s.record("update", ErrForbidden)
		return nil, ErrForbidden
	}

	if patch.Title != nil {
		title := sanitize.Text(strings.TrimSpace(*patch.Title))
		if title == "" {
			return nil, ValidationError{Field: "title", Message: "must not be empty"}
		}
		patch.Title = &title
	}
	if patch.Description != nil {
		description := sanitize.HTML(*patch.Description)
		patch.Description = &description
	}
	if patch.Location != nil {
		location := sanitize.Text(strings.TrimSpace(*patch.Location))
		patch.Location = &location
	}
	if patch.MaxAttendees != nil && *patch.MaxAttendees < 1 {
		return nil, ValidationError{Field: "maxAttendees", Message: "must be at least 1"}
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		s.record("update", err)
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload updated event: %w", err)
	}

	s.record("update", nil)
	s.publish("event.updated", id, callerID)
	return updated, nil
}

// Delete removes the event. Only the creator may delete; attendee and
// comment rows go with it, so the id disappears from every user's
// attendingEvents.
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.record("delete", err)
		return err
	}
	if event.Creator.ID != callerID {
		s.record("delete", ErrForbidden)
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.record("delete", err)
		return err
	}

	s.record("delete", nil)
	s.publish("event.deleted", id, callerID)
	s.logger.Info().Str("event_id", id).Msg("event deleted")
	return nil
}

// Attend appends the caller to the attendee set. The creator cannot attend
// their own event, duplicates are rejected, and capacity is enforced
// atomically by the repository.
func (s *Service) Attend(ctx context.Context, callerID, id string) (*Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.record("attend", err)
		return nil, err
	}

	if event.Creator.ID == callerID {
		s.record("attend", ErrSelfAttend)
		return nil, ErrSelfAttend
	}
	for _, attendee := range event.Attendees {
		if attendee.ID == callerID {
			s.record("attend", ErrAlreadyAttend)
			return nil, ErrAlreadyAttend
		}
	}

	if err := s.repo.AddAttendee(ctx, id, callerID, event.MaxAttendees); err != nil {
		s.record("attend", err)
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload attended event: %w", err)
	}

	s.record("attend", nil)
	s.publish("event.attended", id, callerID)
	return updated, nil
}

// AddComment appends a comment authored by the caller.
func (s *Service) AddComment(ctx context.Context, callerID, eventID, content string) (*Event, error) {
	content = sanitize.Text(strings.TrimSpace(content))
	if content == "" {
		return nil, ValidationError{Field: "content", Message: "must not be empty"}
	}

	if _, err := s.repo.GetByID(ctx, eventID); err != nil {
		s.record("comment", err)
		return nil, err
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint comment id: %w", err)
	}

	if err := s.repo.AddComment(ctx, CommentCreateParams{
		ID:       id,
		EventID:  eventID,
		AuthorID: callerID,
		Content:  content,
	}); err != nil {
		s.record("comment", err)
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("reload commented event: %w", err)
	}

	s.record("comment", nil)
	s.publish("event.commented", eventID, callerID)
	return updated, nil
}

// DeleteComment removes a comment. Only the comment author or the event
// creator may delete it.
func (s *Service) DeleteComment(ctx context.Context, callerID, eventID, commentID string) error {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		s.record("uncomment", err)
		return err
	}

	comment, err := s.repo.GetComment(ctx, eventID, commentID)
	if err != nil {
		s.record("uncomment", err)
		return err
	}

	if comment.Author.ID != callerID && event.Creator.ID != callerID {
		s.record("uncomment", ErrForbidden)
		return ErrForbidden
	}

	if err := s.repo.DeleteComment(ctx, eventID, commentID); err != nil {
		s.record("uncomment", err)
		return err
	}

	s.record("uncomment", nil)
	s.publish("event.uncommented", eventID, callerID)
	return nil
}

func (s *Service) publish(kind, eventID, actorID string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(kind, Notification{Kind: kind, EventID: eventID, ActorID: actorID})
}

func (s *Service) record(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.EventOperations.WithLabelValues(operation, outcome).Inc()
}
