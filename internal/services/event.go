package services

import (
	"context"
	"time"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/cache"
	"connexa-backend/internal/models"
	"connexa-backend/internal/repository"
	"connexa-backend/internal/token"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	eventListCacheKey = "events:list"
	eventListCacheTTL = 30 * time.Second
)

// EventStore is the event persistence the service needs.
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	Update(ctx context.Context, id string, update repository.EventUpdate) (*models.Event, error)
	Delete(ctx context.Context, id string) error
}

// AttendeeCounter provides the aggregate count shown on event detail.
type AttendeeCounter interface {
	CountByEvent(ctx context.Context, eventID string) (int, error)
}

// EventService handles event business logic: CRUD, the public listing
// cache, and live feed notifications.
type EventService struct {
	events    EventStore
	attendees AttendeeCounter
	cache     *cache.Cache
	feed      *FeedHub
}

// NewEventService creates a new event service
func NewEventService(events EventStore, attendees AttendeeCounter, c *cache.Cache, feed *FeedHub) *EventService {
	return &EventService{
		events:    events,
		attendees: attendees,
		cache:     c,
		feed:      feed,
	}
}

// CreateEventCommand is a validated event creation request.
type CreateEventCommand struct {
	Title       string
	Description *string
	EventAt     time.Time
	HostName    *string
	Location    *string
}

// ListEvents returns all events, newest first, served from cache when
// possible.
func (s *EventService) ListEvents(ctx context.Context) ([]*models.Event, error) {
	var cached []*models.Event
	if s.cache.GetJSON(ctx, eventListCacheKey, &cached) {
		return cached, nil
	}

	events, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, eventListCacheKey, events, eventListCacheTTL)
	return events, nil
}

// CreateEvent stores a new event owned by the caller.
func (s *EventService) CreateEvent(ctx context.Context, owner token.Identity, cmd CreateEventCommand) (*models.Event, error) {
	if cmd.Title == "" || cmd.EventAt.IsZero() {
		return nil, apperrors.New(apperrors.CodeValidation, "title and event_at required")
	}

	ownerID := owner.UserID
	event := &models.Event{
		ID:          uuid.New().String(),
		Title:       cmd.Title,
		Description: cmd.Description,
		EventAt:     cmd.EventAt,
		HostName:    cmd.HostName,
		Location:    cmd.Location,
		OwnerID:     &ownerID,
		CreatedAt:   time.Now(),
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}

	s.invalidateListing(ctx)
	s.notify("event_created", event)

	log.Info().
		Str("event_id", event.ID).
		Str("owner_id", ownerID).
		Msg("Event created")

	return event, nil
}

// GetEventDetail returns an event together with its attendee count.
func (s *EventService) GetEventDetail(ctx context.Context, eventID string) (*models.Event, int, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.attendees.CountByEvent(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}
	return event, count, nil
}

// UpdateEvent applies a partial update. Access is checked by the caller.
func (s *EventService) UpdateEvent(ctx context.Context, eventID string, update repository.EventUpdate) (*models.Event, error) {
	if update.Empty() {
		return nil, apperrors.New(apperrors.CodeValidation, "No valid fields to update")
	}

	event, err := s.events.Update(ctx, eventID, update)
	if err != nil {
		return nil, err
	}

	s.invalidateListing(ctx)
	s.notify("event_updated", event)
	return event, nil
}

// DeleteEvent removes an event. Access is checked by the caller.
func (s *EventService) DeleteEvent(ctx context.Context, eventID string) error {
	if err := s.events.Delete(ctx, eventID); err != nil {
		return err
	}

	s.invalidateListing(ctx)
	s.notifyDeleted(eventID)

	log.Info().Str("event_id", eventID).Msg("Event deleted")
	return nil
}

func (s *EventService) invalidateListing(ctx context.Context) {
	s.cache.Delete(ctx, eventListCacheKey)
}

func (s *EventService) notify(kind string, event *models.Event) {
	if s.feed == nil {
		return
	}
	s.feed.Broadcast(FeedMessage{Type: kind, Event: event})
}

func (s *EventService) notifyDeleted(eventID string) {
	if s.feed == nil {
		return
	}
	s.feed.Broadcast(FeedMessage{Type: "event_deleted", EventID: eventID})
}
