package pgstore

import (
	"context"

	"github.com/isdelr/teamkb-be/internal/models"
)

// CreateUser inserts a user.
func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	const query = `INSERT INTO users (id, username, password_hash, created_at) VALUES ($1, $2, $3, $4)`
	_, err := s.pool.Exec(ctx, query, user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	return conflict(err, "username "+user.Username+" is taken")
}

// GetUserByID fetches a user by identifier.
func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	const query = `SELECT id, username, password_hash, created_at FROM users WHERE id = $1`
	var u models.User
	if err := s.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		return models.User{}, notFound(err, "user", id)
	}
	return u, nil
}

// GetUserByUsername fetches a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`
	var u models.User
	if err := s.pool.QueryRow(ctx, query, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		return models.User{}, notFound(err, "user", username)
	}
	return u, nil
}
