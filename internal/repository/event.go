package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, title, description, event_at, host_name, location, image_url, owner_id, created_at`

// EventRepository handles database operations for events
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// EventUpdate carries the fields of a partial event update. The Has*
// flags distinguish "set to null" from "leave untouched".
type EventUpdate struct {
	Title          *string
	Description    *string
	HasDescription bool
	EventAt        *time.Time
	HostName       *string
	HasHostName    bool
	Location       *string
	HasLocation    bool
	ImageURL       *string
	HasImageURL    bool
}

// Empty reports whether the update touches no fields.
func (u EventUpdate) Empty() bool {
	return u.Title == nil && !u.HasDescription && u.EventAt == nil &&
		!u.HasHostName && !u.HasLocation && !u.HasImageURL
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var event models.Event
	err := row.Scan(
		&event.ID, &event.Title, &event.Description, &event.EventAt,
		&event.HostName, &event.Location, &event.ImageURL,
		&event.OwnerID, &event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Create creates a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, title, description, event_at, host_name, location, image_url, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		event.ID, event.Title, event.Description, event.EventAt,
		event.HostName, event.Location, event.ImageURL,
		event.OwnerID, event.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDB, "Failed to create event", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)

	event, err := scanEvent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.CodeNotFound, "Event not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDB, "Failed to get event", err)
	}
	return event, nil
}

// List retrieves all events, newest first.
func (r *EventRepository) List(ctx context.Context) ([]*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events ORDER BY created_at DESC`, eventColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDB, "Failed to list events", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDB, "Failed to scan event", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDB, "Error iterating events", err)
	}
	return events, nil
}

// Update applies a partial update and returns the updated row.
func (r *EventRepository) Update(ctx context.Context, id string, update EventUpdate) (*models.Event, error) {
	var sets []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.HasDescription {
		add("description", update.Description)
	}
	if update.EventAt != nil {
		add("event_at", *update.EventAt)
	}
	if update.HasHostName {
		add("host_name", update.HostName)
	}
	if update.HasLocation {
		add("location", update.Location)
	}
	if update.HasImageURL {
		add("image_url", update.ImageURL)
	}
	if len(sets) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "No valid fields to update")
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE events SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), eventColumns)

	event, err := scanEvent(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.CodeNotFound, "Event not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDB, "Failed to update event", err)
	}
	return event, nil
}

// Delete deletes an event by ID
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDB, "Failed to delete event", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeNotFound, "Event not found")
	}
	return nil
}

// GetOwnerID returns the owner of an event; nil means the event exists
// but has not been claimed.
func (r *EventRepository) GetOwnerID(ctx context.Context, id string) (*string, error) {
	var ownerID *string
	err := r.db.QueryRow(ctx, `SELECT owner_id FROM events WHERE id = $1`, id).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.CodeNotFound, "Event not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDB, "Failed to get event owner", err)
	}
	return ownerID, nil
}

// ClaimOwner atomically assigns the owner of an unclaimed event. The
// conditional write guarantees at most one concurrent claimant wins;
// callers must re-read the owner rather than assume success.
func (r *EventRepository) ClaimOwner(ctx context.Context, eventID, userID string) (bool, error) {
	result, err := r.db.Exec(ctx,
		`UPDATE events SET owner_id = $1 WHERE id = $2 AND owner_id IS NULL`,
		userID, eventID,
	)
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeDB, "Failed to claim event ownership", err)
	}
	return result.RowsAffected() == 1, nil
}

// SetImageURL stores the public banner URL on the event row.
func (r *EventRepository) SetImageURL(ctx context.Context, eventID, url string) error {
	result, err := r.db.Exec(ctx, `UPDATE events SET image_url = $1 WHERE id = $2`, url, eventID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDB, "Failed to update event image", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeNotFound, "Event not found")
	}
	return nil
}
