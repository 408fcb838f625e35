package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/server/internal/domain/users"
)

var _ users.Repository = (*UserRepository)(nil)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const uniqueViolation = "23505"

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	user := users.User{
		ID:           params.ID,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO users (id, name, email, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at
`, params.ID, params.Name, params.Email, params.PasswordHash).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, users.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.get(ctx, `
SELECT id, name, email, password_hash, created_at, updated_at
  FROM users
 WHERE id = $1
`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.get(ctx, `
SELECT id, name, email, password_hash, created_at, updated_at
  FROM users
 WHERE email = $1
`, email)
}

func (r *UserRepository) get(ctx context.Context, query, arg string) (*users.User, error) {
	var user users.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) CreatedEventIDs(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, `
SELECT id FROM events WHERE creator_id = $1 ORDER BY created_at ASC
`, userID)
}

func (r *UserRepository) AttendingEventIDs(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, `
SELECT event_id FROM event_attendees WHERE user_id = $1 ORDER BY joined_at ASC
`, userID)
}

func (r *UserRepository) ids(ctx context.Context, query, arg string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list event ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan event id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event ids: %w", err)
	}
	return ids, nil
}
