package repository

import (
	"context"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AttendeeRepository handles database operations for attendees
type AttendeeRepository struct {
	db *pgxpool.Pool
}

// NewAttendeeRepository creates a new attendee repository
func NewAttendeeRepository(db *pgxpool.Pool) *AttendeeRepository {
	return &AttendeeRepository{db: db}
}

// Create creates a new attendee registration
func (r *AttendeeRepository) Create(ctx context.Context, attendee *models.Attendee) error {
	query := `
		INSERT INTO attendees (id, event_id, first_name, last_name, email, contact, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		attendee.ID, attendee.EventID, attendee.FirstName, attendee.LastName,
		attendee.Email, attendee.Contact, attendee.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDB, "Failed to register attendee", err)
	}
	return nil
}

// ListByEvent retrieves attendees for an event, newest first.
func (r *AttendeeRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Attendee, error) {
	query := `
		SELECT id, event_id, first_name, last_name, email, contact, created_at
		FROM attendees
		WHERE event_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDB, "Failed to list attendees", err)
	}
	defer rows.Close()

	var attendees []*models.Attendee
	for rows.Next() {
		var attendee models.Attendee
		err := rows.Scan(
			&attendee.ID, &attendee.EventID, &attendee.FirstName, &attendee.LastName,
			&attendee.Email, &attendee.Contact, &attendee.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDB, "Failed to scan attendee", err)
		}
		attendees = append(attendees, &attendee)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDB, "Error iterating attendees", err)
	}
	return attendees, nil
}

// CountByEvent returns the number of registrations for an event.
func (r *AttendeeRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM attendees WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeDB, "Failed to count attendees", err)
	}
	return count, nil
}
