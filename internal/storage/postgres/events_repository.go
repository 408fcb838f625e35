package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/server/internal/domain/events"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `
SELECT e.id, e.title, e.description, e.event_date, e.location, e.max_attendees,
       e.created_at, e.updated_at,
       u.id, u.name, u.email
  FROM events e
  JOIN users u ON u.id = e.creator_id
`

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	rows, err := r.pool.Query(ctx, eventColumns+` ORDER BY e.event_date ASC, e.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var items []events.Event
	index := make(map[string]int)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		index[event.ID] = len(items)
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	if len(items) == 0 {
		return []events.Event{}, nil
	}

	if err := r.loadAttendees(ctx, items, index, ""); err != nil {
		return nil, err
	}
	if err := r.loadComments(ctx, items, index, ""); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	row := r.pool.QueryRow(ctx, eventColumns+` WHERE e.id = $1`, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, err
	}

	items := []events.Event{*event}
	index := map[string]int{event.ID: 0}
	if err := r.loadAttendees(ctx, items, index, id); err != nil {
		return nil, err
	}
	if err := r.loadComments(ctx, items, index, id); err != nil {
		return nil, err
	}
	return &items[0], nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*events.Event, error) {
	var event events.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Date,
		&event.Location,
		&event.MaxAttendees,
		&event.CreatedAt,
		&event.UpdatedAt,
		&event.Creator.ID,
		&event.Creator.Name,
		&event.Creator.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return &event, nil
}

// loadAttendees fills the Attendees projection for the given events. When
// eventID is non-empty only that event's rows are fetched.
func (r *EventRepository) loadAttendees(ctx context.Context, items []events.Event, index map[string]int, eventID string) error {
	query := `
SELECT a.event_id, u.id, u.name, u.email
  FROM event_attendees a
  JOIN users u ON u.id = a.user_id
`
	var args []any
	if eventID != "" {
		query += ` WHERE a.event_id = $1`
		args = append(args, eventID)
	}
	query += ` ORDER BY a.joined_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner string
		var ref events.UserRef
		if err := rows.Scan(&owner, &ref.ID, &ref.Name, &ref.Email); err != nil {
			return fmt.Errorf("scan attendee: %w", err)
		}
		if i, ok := index[owner]; ok {
			items[i].Attendees = append(items[i].Attendees, ref)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate attendees: %w", err)
	}
	return nil
}

func (r *EventRepository) loadComments(ctx context.Context, items []events.Event, index map[string]int, eventID string) error {
	query := `
SELECT c.event_id, c.id, c.content, c.created_at, u.id, u.name, u.email
  FROM event_comments c
  JOIN users u ON u.id = c.author_id
`
	var args []any
	if eventID != "" {
		query += ` WHERE c.event_id = $1`
		args = append(args, eventID)
	}
	query += ` ORDER BY c.created_at ASC, c.id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner string
		var comment events.Comment
		if err := rows.Scan(&owner, &comment.ID, &comment.Content, &comment.CreatedAt,
			&comment.Author.ID, &comment.Author.Name, &comment.Author.Email); err != nil {
			return fmt.Errorf("scan comment: %w", err)
		}
		if i, ok := index[owner]; ok {
			items[i].Comments = append(items[i].Comments, comment)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate comments: %w", err)
	}
	return nil
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO events (id, title, description, event_date, location, max_attendees, creator_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, params.ID, params.Title, params.Description, params.Date, params.Location, params.MaxAttendees, params.CreatorID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepository) Update(ctx context.Context, id string, params events.UpdateParams) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE events
   SET title         = COALESCE($2, title),
       description   = COALESCE($3, description),
       event_date    = COALESCE($4, event_date),
       location      = COALESCE($5, location),
       max_attendees = COALESCE($6, max_attendees),
       updated_at    = now()
 WHERE id = $1
`, id, params.Title, params.Description, params.Date, params.Location, params.MaxAttendees)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	// Attendee and comment rows cascade with the event row.
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) AddAttendee(ctx context.Context, eventID, userID string, maxAttendees int) error {
	// The lock and the conditional insert must be separate statements inside
	// one transaction. A session that blocks on the row lock keeps the
	// snapshot its current statement started with, so folding both into a
	// single statement would let two concurrent attends count the same
	// pre-insert attendee set and overshoot capacity. As its own statement,
	// the insert takes a fresh snapshot once the lock is granted.
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin attend: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked string
	if err := tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return events.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}

	tag, err := tx.Exec(ctx, `
INSERT INTO event_attendees (event_id, user_id)
SELECT $1, $2
 WHERE (SELECT count(*) FROM event_attendees WHERE event_id = $1) < $3
`, eventID, userID, maxAttendees)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return events.ErrAlreadyAttend
		}
		return fmt.Errorf("add attendee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrEventFull
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit attend: %w", err)
	}
	return nil
}

func (r *EventRepository) AddComment(ctx context.Context, params events.CommentCreateParams) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO event_comments (id, event_id, author_id, content)
VALUES ($1, $2, $3, $4)
`, params.ID, params.EventID, params.AuthorID, params.Content)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *EventRepository) GetComment(ctx context.Context, eventID, commentID string) (*events.Comment, error) {
	var comment events.Comment
	err := r.pool.QueryRow(ctx, `
SELECT c.id, c.content, c.created_at, u.id, u.name, u.email
  FROM event_comments c
  JOIN users u ON u.id = c.author_id
 WHERE c.event_id = $1 AND c.id = $2
`, eventID, commentID).Scan(
		&comment.ID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.Author.ID,
		&comment.Author.Name,
		&comment.Author.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

func (r *EventRepository) DeleteComment(ctx context.Context, eventID, commentID string) error {
	tag, err := r.pool.Exec(ctx, `
DELETE FROM event_comments WHERE event_id = $1 AND id = $2
`, eventID, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrCommentNotFound
	}
	return nil
}
