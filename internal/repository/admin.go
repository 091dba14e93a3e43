package repository

import (
	"context"
	"errors"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminRepository handles database operations for delegated-admin grants.
// Uniqueness of (event_id, email) is enforced by a database constraint.
type AdminRepository struct {
	db *pgxpool.Pool
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db}
}

// Create stores a delegated-admin grant. A duplicate grant for the same
// (event_id, email) is a CONFLICT, never silently ignored.
func (r *AdminRepository) Create(ctx context.Context, grant *models.EventAdmin) error {
	query := `
		INSERT INTO event_admins (id, event_id, email, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, grant.ID, grant.EventID, grant.Email, grant.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.Wrap(apperrors.CodeConflict, "Admin already assigned", err)
		}
		return apperrors.Wrap(apperrors.CodeDB, "Failed to assign admin", err)
	}
	return nil
}

// ListByEvent retrieves grants for an event, newest first.
func (r *AdminRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.EventAdmin, error) {
	query := `
		SELECT id, event_id, email, created_at
		FROM event_admins
		WHERE event_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDB, "Failed to load admins", err)
	}
	defer rows.Close()

	var grants []*models.EventAdmin
	for rows.Next() {
		var grant models.EventAdmin
		if err := rows.Scan(&grant.ID, &grant.EventID, &grant.Email, &grant.CreatedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDB, "Failed to scan admin", err)
		}
		grants = append(grants, &grant)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDB, "Error iterating admins", err)
	}
	return grants, nil
}

// Delete removes a grant by event and email.
func (r *AdminRepository) Delete(ctx context.Context, eventID, email string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM event_admins WHERE event_id = $1 AND email = $2`,
		eventID, email,
	)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDB, "Failed to remove admin", err)
	}
	return nil
}

// Exists checks whether an email holds a grant for an event.
func (r *AdminRepository) Exists(ctx context.Context, eventID, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM event_admins WHERE event_id = $1 AND email = $2)`
	var exists bool
	err := r.db.QueryRow(ctx, query, eventID, email).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeDB, "Failed to check admin grant", err)
	}
	return exists, nil
}
