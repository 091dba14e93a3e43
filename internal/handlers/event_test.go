package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/handlers"
	"connexa-backend/internal/models"
	"connexa-backend/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice   = token.Identity{UserID: "alice-1", Email: "alice@example.com", Role: token.RoleUser}
	bob     = token.Identity{UserID: "bob-1", Email: "bob@example.com", Role: token.RoleUser}
	root    = token.Identity{UserID: "root-1", Email: "root@example.com", Role: token.RoleAdmin}
	mallory = token.Identity{UserID: "mallory-1", Email: "mallory@example.com", Role: token.RoleUser}
)

func createEventBody(title string) handlers.CreateEventRequest {
	return handlers.CreateEventRequest{
		Title:   title,
		EventAt: time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
	}
}

func eventFromResponse(t *testing.T, res apiResponse) models.Event {
	t.Helper()
	var event models.Event
	require.NoError(t, json.Unmarshal(res.Data["event"], &event))
	return event
}

func TestEventCreate_RequiresAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/events", "", createEventBody("Picnic"))
	requireErrorCode(t, rec, http.StatusUnauthorized, apperrors.CodeUnauthorized)
}

func TestEventCreate_SetsCallerAsOwner(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/events", f.tokenFor(t, alice), createEventBody("Picnic"))
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	event := eventFromResponse(t, decodeResponse(t, rec))
	assert.Equal(t, "Picnic", event.Title)
	require.NotNil(t, event.OwnerID)
	assert.Equal(t, alice.UserID, *event.OwnerID)
}

func TestEventCreate_Validation(t *testing.T) {
	f := newFixture(t)
	bearer := f.tokenFor(t, alice)

	rec := f.do(t, http.MethodPost, "/api/v1/events", bearer, handlers.CreateEventRequest{Title: "Picnic"})
	requireErrorCode(t, rec, http.StatusBadRequest, apperrors.CodeValidation)

	rec = f.do(t, http.MethodPost, "/api/v1/events", bearer, handlers.CreateEventRequest{
		Title:   "Picnic",
		EventAt: "next tuesday",
	})
	requireErrorCode(t, rec, http.StatusBadRequest, apperrors.CodeValidation)
}

func TestEventList_PublicAndEmptyIsArray(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/events", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeResponse(t, rec)
	assert.JSONEq(t, "[]", string(res.Data["events"]))

	f.addEvent(t, alice.UserID)
	rec = f.do(t, http.MethodGet, "/api/v1/events", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var events []*models.Event
	require.NoError(t, json.Unmarshal(decodeResponse(t, rec).Data["events"], &events))
	assert.Len(t, events, 1)
}

func TestEventGet_IncludesAttendeeCount(t *testing.T) {
	f := newFixture(t)
	eventID := f.addEvent(t, alice.UserID)

	rec := f.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/attendees", "", handlers.RegisterAttendeeRequest{
		FirstName: "Carol",
		LastName:  "Jones",
		Email:     "carol@example.com",
		Contact:   "555-0100",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/events/"+eventID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		models.Event
		AttendeesCount int `json:"attendees_count"`
	}
	require.NoError(t, json.Unmarshal(decodeResponse(t, rec).Data["event"], &detail))
	assert.Equal(t, eventID, detail.ID)
	assert.Equal(t, 1, detail.AttendeesCount)
}

func TestEventGet_MissingIs404(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/events/no-such-event", "", nil)
	requireErrorCode(t, rec, http.StatusNotFound, apperrors.CodeNotFound)
}

// The owner/delegate split: a delegate may view attendees but never
// modify or delete the event itself.
func TestEventAccess_OwnerDelegateStranger(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/events", f.tokenFor(t, alice), createEventBody("Picnic"))
	require.Equal(t, http.StatusCreated, rec.Code)
	eventID := eventFromResponse(t, decodeResponse(t, rec)).ID

	bobToken := f.tokenFor(t, bob)

	// Stranger: no reads of the attendee list, no deletes.
	rec = f.do(t, http.MethodGet, "/api/v1/events/"+eventID+"/attendees", bobToken, nil)
	requireErrorCode(t, rec, http.StatusForbidden, apperrors.CodeForbidden)
	rec = f.do(t, http.MethodDelete, "/api/v1/events/"+eventID, bobToken, nil)
	requireErrorCode(t, rec, http.StatusForbidden, apperrors.CodeForbidden)

	// The owner delegates to bob.
	rec = f.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/admins", f.tokenFor(t, alice), handlers.GrantRequest{Email: bob.Email})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	// Delegate: attendee list opens up, destructive operations stay closed.
	rec = f.do(t, http.MethodGet, "/api/v1/events/"+eventID+"/attendees", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	rec = f.do(t, http.MethodDelete, "/api/v1/events/"+eventID, bobToken, nil)
	requireErrorCode(t, rec, http.StatusForbidden, apperrors.CodeForbidden)
	rec = f.do(t, http.MethodPut, "/api/v1/events/"+eventID, bobToken, map[string]any{"title": "Hijacked"})
	requireErrorCode(t, rec, http.StatusForbidden, apperrors.CodeForbidden)

	// The owner can delete.
	rec = f.do(t, http.MethodDelete, "/api/v1/events/"+eventID, f.tokenFor(t, alice), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "true", string(decodeResponse(t, rec).Data["deleted"]))
}

func TestEventAccess_PlatformAdminOverrides(t *testing.T) {
	f := newFixture(t)
	eventID := f.addEvent(t, alice.UserID)

	rec := f.do(t, http.MethodDelete, "/api/v1/events/"+eventID, f.tokenFor(t, root), nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
}

func TestEventAccess_MissingEventNeverLooksForbidden(t *testing.T) {
	f := newFixture(t)

	// Stranger or not, a bad id is a 404.
	rec := f.do(t, http.MethodDelete, "/api/v1/events/no-such-event", f.tokenFor(t, bob), nil)
	requireErrorCode(t, rec, http.StatusNotFound, apperrors.CodeNotFound)
}

func TestEventUpdate_PartialFields(t *testing.T) {
	f := newFixture(t)
	eventID := f.addEvent(t, alice.UserID)
	bearer := f.tokenFor(t, alice)

	host := "Community Hall"
	rec := f.do(t, http.MethodPut, "/api/v1/events/"+eventID, bearer, map[string]any{
		"title":     "Autumn Fair",
		"host_name": host,
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	event := eventFromResponse(t, decodeResponse(t, rec))
	assert.Equal(t, "Autumn Fair", event.Title)
	require.NotNil(t, event.HostName)
	assert.Equal(t, host, *event.HostName)

	// Explicit null clears a nullable field.
	rec = f.do(t, http.MethodPut, "/api/v1/events/"+eventID, bearer, map[string]any{"host_name": nil})
	require.Equal(t, http.StatusOK, rec.Code)
	event = eventFromResponse(t, decodeResponse(t, rec))
	assert.Nil(t, event.HostName)
	assert.Equal(t, "Autumn Fair", event.Title)
}

func TestEventUpdate_Validation(t *testing.T) {
	f := newFixture(t)
	eventID := f.addEvent(t, alice.UserID)
	bearer := f.tokenFor(t, alice)

	// Nothing usable in the body.
	rec := f.do(t, http.MethodPut, "/api/v1/events/"+eventID, bearer, map[string]any{})
	requireErrorCode(t, rec, http.StatusBadRequest, apperrors.CodeValidation)

	// A blank title is ignored, not applied; alone it leaves nothing to do.
	rec = f.do(t, http.MethodPut, "/api/v1/events/"+eventID, bearer, map[string]any{"title": "   "})
	requireErrorCode(t, rec, http.StatusBadRequest, apperrors.CodeValidation)

	rec = f.do(t, http.MethodPut, "/api/v1/events/"+eventID, bearer, map[string]any{"event_at": "not-a-date"})
	requireErrorCode(t, rec, http.StatusBadRequest, apperrors.CodeValidation)

	rec = f.do(t, http.MethodPut, "/api/v1/events/"+eventID, bearer, map[string]any{"location": 42})
	requireErrorCode(t, rec, http.StatusBadRequest, apperrors.CodeValidation)
}

func TestProtectedRoutes_RejectBadTokens(t *testing.T) {
	f := newFixture(t)
	eventID := f.addEvent(t, alice.UserID)

	rec := f.do(t, http.MethodDelete, "/api/v1/events/"+eventID, "garbage-token", nil)
	requireErrorCode(t, rec, http.StatusUnauthorized, apperrors.CodeUnauthorized)
}
