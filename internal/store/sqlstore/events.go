package sqlstore

import (
	"context"

	"github.com/isdelr/teamkb-be/internal/models"
)

// CreateEvent records a new event.
func (s *Store) CreateEvent(ctx context.Context, e models.Event) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, message, user_id, team_id, article_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.Type, e.Message, e.UserID, e.TeamID, e.ArticleID, e.CreatedAt)
	return err
}

// ListEventsForUser returns the most recent events caused by a user.
func (s *Store) ListEventsForUser(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, message, user_id, team_id, article_id, created_at
		FROM events WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Message, &e.UserID, &e.TeamID, &e.ArticleID, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
