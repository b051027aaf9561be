package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/models"
	"github.com/isdelr/teamkb-be/internal/store"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 100
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, userID, message string, team models.TeamRef, articleID *string) error
	GetRecentEvents(ctx context.Context, caller access.Caller, limit int) ([]models.Event, error)
}

// EventService provides business logic for the audit trail.
type EventService struct {
	events store.EventStore
}

// NewEventService creates a new EventService.
func NewEventService(events store.EventStore) *EventService {
	return &EventService{events: events}
}

// CreateEvent records a new event.
func (s *EventService) CreateEvent(ctx context.Context, eventType, userID, message string, team models.TeamRef, articleID *string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Message:   message,
		UserID:    userID,
		TeamID:    team.Ptr(),
		ArticleID: articleID,
		CreatedAt: now(),
	}
	return s.events.CreateEvent(ctx, event)
}

// GetRecentEvents returns the caller's own most recent events.
func (s *EventService) GetRecentEvents(ctx context.Context, caller access.Caller, limit int) ([]models.Event, error) {
	if !caller.Authenticated() {
		return nil, models.ErrUnauthenticated
	}
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}
	events, err := s.events.ListEventsForUser(ctx, caller.UserID, limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

// recordEvent writes an event and only logs a failure; the audit trail never
// fails the operation it describes.
func recordEvent(ctx context.Context, events EventServiceProvider, eventType, userID, message string, team models.TeamRef, articleID *string) {
	if events == nil {
		return
	}
	if err := events.CreateEvent(ctx, eventType, userID, message, team, articleID); err != nil {
		log.Warn().Err(err).Str("type", eventType).Str("user_id", userID).Msg("Failed to record event")
	}
}
