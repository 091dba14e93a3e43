package services

import (
	"context"
	"time"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AttendeeStore is the attendee persistence the service needs.
type AttendeeStore interface {
	Create(ctx context.Context, attendee *models.Attendee) error
	ListByEvent(ctx context.Context, eventID string) ([]*models.Attendee, error)
	CountByEvent(ctx context.Context, eventID string) (int, error)
}

// AttendeeService handles public attendee registration and the
// privileged attendee listing.
type AttendeeService struct {
	attendees AttendeeStore
	events    OwnerStore
}

// NewAttendeeService creates a new attendee service
func NewAttendeeService(attendees AttendeeStore, events OwnerStore) *AttendeeService {
	return &AttendeeService{
		attendees: attendees,
		events:    events,
	}
}

// RegisterAttendeeCommand is a validated public registration request.
type RegisterAttendeeCommand struct {
	FirstName string
	LastName  string
	Email     string
	Contact   string
}

// RegisterAttendee stores a public registration for an event. No
// authentication is required; the event must exist.
func (s *AttendeeService) RegisterAttendee(ctx context.Context, eventID string, cmd RegisterAttendeeCommand) (*models.Attendee, error) {
	if cmd.FirstName == "" || cmd.LastName == "" || cmd.Email == "" || cmd.Contact == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "Missing fields")
	}
	if !ValidEmail(cmd.Email) {
		return nil, apperrors.New(apperrors.CodeValidation, "Valid email required")
	}

	// Existence check doubles as the NOT_FOUND guard for bad event ids.
	if _, err := s.events.GetOwnerID(ctx, eventID); err != nil {
		return nil, err
	}

	attendee := &models.Attendee{
		ID:        uuid.New().String(),
		EventID:   eventID,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Email:     normalizeEmail(cmd.Email),
		Contact:   cmd.Contact,
		CreatedAt: time.Now(),
	}

	if err := s.attendees.Create(ctx, attendee); err != nil {
		return nil, err
	}

	log.Info().
		Str("event_id", eventID).
		Str("attendee_id", attendee.ID).
		Msg("Attendee registered")

	return attendee, nil
}

// ListAttendees returns an event's registrations, newest first. Access
// is checked by the caller.
func (s *AttendeeService) ListAttendees(ctx context.Context, eventID string) ([]*models.Attendee, error) {
	return s.attendees.ListByEvent(ctx, eventID)
}
