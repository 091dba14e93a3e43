package services

import (
	"context"
	"strings"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/models"
	"connexa-backend/internal/monitoring"
	"connexa-backend/internal/token"
)

// AccessLevel is the privilege an operation requires on a specific event.
// Owner implies everything a delegate may do; a platform admin bypasses
// both.
type AccessLevel int

const (
	// LevelDelegate covers attendee listing, grant listing and image upload.
	LevelDelegate AccessLevel = iota + 1
	// LevelOwner covers event update/delete and grant management.
	LevelOwner
)

// OwnerStore is the event-ownership view the evaluator needs.
type OwnerStore interface {
	GetOwnerID(ctx context.Context, eventID string) (*string, error)
	ClaimOwner(ctx context.Context, eventID, userID string) (bool, error)
}

// DelegateStore is the grant-set view the evaluator needs.
type DelegateStore interface {
	Exists(ctx context.Context, eventID, email string) (bool, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.EventAdmin, error)
}

// AccessService decides what a verified identity may do to an event.
type AccessService struct {
	events  OwnerStore
	admins  DelegateStore
	metrics *monitoring.Metrics
}

// NewAccessService creates a new access policy evaluator.
func NewAccessService(events OwnerStore, admins DelegateStore, metrics *monitoring.Metrics) *AccessService {
	return &AccessService{
		events:  events,
		admins:  admins,
		metrics: metrics,
	}
}

var errForbidden = apperrors.New(apperrors.CodeForbidden, "Not allowed")

// CheckAccess reports whether the identity may perform an operation of
// the given level on the event. A missing event is always NOT_FOUND,
// regardless of who asks, so existence cannot be probed through the
// 403/404 distinction.
func (s *AccessService) CheckAccess(ctx context.Context, id token.Identity, eventID string, level AccessLevel) error {
	if id.IsPlatformAdmin() {
		s.metrics.RecordDecision("allow")
		return nil
	}

	ownerID, err := s.events.GetOwnerID(ctx, eventID)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			s.metrics.RecordDecision("not_found")
		}
		return err
	}

	if ownerID != nil && *ownerID == id.UserID {
		s.metrics.RecordDecision("allow")
		return nil
	}

	if level <= LevelDelegate {
		granted, err := s.admins.Exists(ctx, eventID, normalizeEmail(id.Email))
		if err != nil {
			return err
		}
		if granted {
			s.metrics.RecordDecision("allow")
			return nil
		}
	}

	s.metrics.RecordDecision("deny")
	return errForbidden
}

// CheckUploadAccess is CheckAccess at delegate level, plus the
// claim-on-first-write rule: an authenticated upload against an
// ownerless event first attempts to claim ownership. The claim is a
// conditional write and the owner is re-read afterwards, so of two
// concurrent claimants exactly one wins and the other is evaluated
// against the winner's identity.
func (s *AccessService) CheckUploadAccess(ctx context.Context, id token.Identity, eventID string) error {
	if id.IsPlatformAdmin() {
		s.metrics.RecordDecision("allow")
		return nil
	}

	ownerID, err := s.events.GetOwnerID(ctx, eventID)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			s.metrics.RecordDecision("not_found")
		}
		return err
	}

	if ownerID == nil {
		won, err := s.events.ClaimOwner(ctx, eventID, id.UserID)
		if err != nil {
			return err
		}
		if won {
			s.metrics.RecordClaim("won")
		} else {
			s.metrics.RecordClaim("lost")
		}
		ownerID, err = s.events.GetOwnerID(ctx, eventID)
		if err != nil {
			return err
		}
	}

	if ownerID != nil && *ownerID == id.UserID {
		s.metrics.RecordDecision("allow")
		return nil
	}

	granted, err := s.admins.Exists(ctx, eventID, normalizeEmail(id.Email))
	if err != nil {
		return err
	}
	if granted {
		s.metrics.RecordDecision("allow")
		return nil
	}

	s.metrics.RecordDecision("deny")
	return errForbidden
}

// CanManage is the self-check behind the ?me=1 flag: whether the caller
// holds at least delegate rights on the event. Denial is a value, not an
// error; any authenticated caller may ask.
func (s *AccessService) CanManage(ctx context.Context, id token.Identity, eventID string) (bool, error) {
	err := s.CheckAccess(ctx, id, eventID, LevelDelegate)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeForbidden) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListDelegates returns the grant set of an event. Listing requires
// owner rights; delegates may self-check via CanManage but not enumerate
// each other.
func (s *AccessService) ListDelegates(ctx context.Context, id token.Identity, eventID string) ([]*models.EventAdmin, error) {
	if err := s.CheckAccess(ctx, id, eventID, LevelOwner); err != nil {
		return nil, err
	}
	return s.admins.ListByEvent(ctx, eventID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
