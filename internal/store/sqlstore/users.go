package sqlstore

import (
	"context"

	"github.com/isdelr/teamkb-be/internal/models"
)

// CreateUser inserts a user; a taken username is a conflict.
func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	return conflict(err, "username "+user.Username+" is taken")
}

// GetUserByID retrieves a single user by their ID, including the password hash.
func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, username, password_hash, created_at FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, notFound(err, "user", id)
	}
	return user, nil
}

// GetUserByUsername retrieves a single user by their username, including the password hash.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, notFound(err, "user", username)
	}
	return user, nil
}

func scanUser(row scanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	return u, err
}
