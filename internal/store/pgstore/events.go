package pgstore

import (
	"context"

	"github.com/isdelr/teamkb-be/internal/models"
)

// CreateEvent records an event.
func (s *Store) CreateEvent(ctx context.Context, e models.Event) error {
	const query = `INSERT INTO events (id, type, message, user_id, team_id, article_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.pool.Exec(ctx, query, e.ID, e.Type, e.Message, e.UserID, e.TeamID, e.ArticleID, e.CreatedAt)
	return err
}

// ListEventsForUser returns the most recent events caused by a user.
func (s *Store) ListEventsForUser(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	const query = `SELECT id, type, message, user_id, team_id, article_id, created_at
		FROM events WHERE user_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := s.pool.Query(ctx, query, userID, limit)
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
