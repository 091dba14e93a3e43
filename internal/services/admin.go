package services

import (
	"context"
	"time"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// GrantStore is the write side of the delegated-admin grant set.
type GrantStore interface {
	Create(ctx context.Context, grant *models.EventAdmin) error
	Delete(ctx context.Context, eventID, email string) error
}

// AdminService manages delegated-admin grants. Grants are keyed by
// email so owners can delegate to people who have not registered yet.
type AdminService struct {
	grants GrantStore
}

// NewAdminService creates a new admin service
func NewAdminService(grants GrantStore) *AdminService {
	return &AdminService{grants: grants}
}

// Grant assigns delegated-admin rights for an event to an email.
// Duplicate grants surface as CONFLICT from the store's unique
// constraint. Access is checked by the caller.
func (s *AdminService) Grant(ctx context.Context, eventID, email string) (*models.EventAdmin, error) {
	if !ValidEmail(email) {
		return nil, apperrors.New(apperrors.CodeValidation, "Valid email required")
	}

	grant := &models.EventAdmin{
		ID:        uuid.New().String(),
		EventID:   eventID,
		Email:     normalizeEmail(email),
		CreatedAt: time.Now(),
	}

	if err := s.grants.Create(ctx, grant); err != nil {
		return nil, err
	}

	log.Info().
		Str("event_id", eventID).
		Str("email", grant.Email).
		Msg("Delegated admin assigned")

	return grant, nil
}

// Revoke removes a grant. Removing an absent grant is not an error.
func (s *AdminService) Revoke(ctx context.Context, eventID, email string) error {
	if !ValidEmail(email) {
		return apperrors.New(apperrors.CodeValidation, "Valid email query param required")
	}

	if err := s.grants.Delete(ctx, eventID, normalizeEmail(email)); err != nil {
		return err
	}

	log.Info().
		Str("event_id", eventID).
		Str("email", normalizeEmail(email)).
		Msg("Delegated admin removed")

	return nil
}
