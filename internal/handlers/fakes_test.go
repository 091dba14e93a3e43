package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/cache"
	"connexa-backend/internal/handlers"
	"connexa-backend/internal/middleware"
	"connexa-backend/internal/models"
	"connexa-backend/internal/repository"
	"connexa-backend/internal/services"
	"connexa-backend/internal/token"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeEventStore is an in-memory EventStore and OwnerStore.
type fakeEventStore struct {
	mu     sync.Mutex
	events map[string]*models.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[string]*models.Event)}
}

func (s *fakeEventStore) Create(ctx context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *event
	s.events[event.ID] = &cp
	return nil
}

func (s *fakeEventStore) GetByID(ctx context.Context, id string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "Event not found")
	}
	cp := *event
	return &cp, nil
}

func (s *fakeEventStore) List(ctx context.Context) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []*models.Event
	for _, event := range s.events {
		cp := *event
		events = append(events, &cp)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

func (s *fakeEventStore) Update(ctx context.Context, id string, update repository.EventUpdate) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "Event not found")
	}
	if update.Title != nil {
		event.Title = *update.Title
	}
	if update.HasDescription {
		event.Description = update.Description
	}
	if update.EventAt != nil {
		event.EventAt = *update.EventAt
	}
	if update.HasHostName {
		event.HostName = update.HostName
	}
	if update.HasLocation {
		event.Location = update.Location
	}
	if update.HasImageURL {
		event.ImageURL = update.ImageURL
	}
	cp := *event
	return &cp, nil
}

func (s *fakeEventStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "Event not found")
	}
	delete(s.events, id)
	return nil
}

func (s *fakeEventStore) GetOwnerID(ctx context.Context, id string) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "Event not found")
	}
	return event.OwnerID, nil
}

func (s *fakeEventStore) ClaimOwner(ctx context.Context, eventID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return false, apperrors.New(apperrors.CodeNotFound, "Event not found")
	}
	if event.OwnerID != nil {
		return false, nil
	}
	event.OwnerID = &userID
	return true, nil
}

func (s *fakeEventStore) SetImageURL(ctx context.Context, eventID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return apperrors.New(apperrors.CodeNotFound, "Event not found")
	}
	event.ImageURL = &url
	return nil
}

// fakeGrantStore is an in-memory GrantStore and DelegateStore.
type fakeGrantStore struct {
	mu     sync.Mutex
	grants map[string]map[string]*models.EventAdmin // event id -> email -> grant
}

func newFakeGrantStore() *fakeGrantStore {
	return &fakeGrantStore{grants: make(map[string]map[string]*models.EventAdmin)}
}

func (s *fakeGrantStore) Create(ctx context.Context, grant *models.EventAdmin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grants[grant.EventID] == nil {
		s.grants[grant.EventID] = make(map[string]*models.EventAdmin)
	}
	if _, exists := s.grants[grant.EventID][grant.Email]; exists {
		return apperrors.New(apperrors.CodeConflict, "Admin already assigned")
	}
	cp := *grant
	s.grants[grant.EventID][grant.Email] = &cp
	return nil
}

func (s *fakeGrantStore) Delete(ctx context.Context, eventID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants[eventID], email)
	return nil
}

func (s *fakeGrantStore) Exists(ctx context.Context, eventID, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.grants[eventID][email]
	return ok, nil
}

func (s *fakeGrantStore) ListByEvent(ctx context.Context, eventID string) ([]*models.EventAdmin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var grants []*models.EventAdmin
	for _, grant := range s.grants[eventID] {
		cp := *grant
		grants = append(grants, &cp)
	}
	return grants, nil
}

// fakeAttendeeStore is an in-memory AttendeeStore.
type fakeAttendeeStore struct {
	mu        sync.Mutex
	attendees map[string][]*models.Attendee // event id -> registrations
}

func newFakeAttendeeStore() *fakeAttendeeStore {
	return &fakeAttendeeStore{attendees: make(map[string][]*models.Attendee)}
}

func (s *fakeAttendeeStore) Create(ctx context.Context, attendee *models.Attendee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *attendee
	s.attendees[attendee.EventID] = append(s.attendees[attendee.EventID], &cp)
	return nil
}

func (s *fakeAttendeeStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Attendee(nil), s.attendees[eventID]...), nil
}

func (s *fakeAttendeeStore) CountByEvent(ctx context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attendees[eventID]), nil
}

// fakeGateway is an in-memory CredentialGateway.
type fakeGateway struct {
	mu    sync.Mutex
	users map[string]fakeUser
}

type fakeUser struct {
	id       string
	password string
	role     string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{users: make(map[string]fakeUser)}
}

func (g *fakeGateway) VerifyLogin(ctx context.Context, email, password string) (*models.AuthUser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	user, ok := g.users[email]
	if !ok || user.password != password {
		return nil, apperrors.New(apperrors.CodeAuthFailed, "Invalid credentials")
	}
	return &models.AuthUser{ID: user.id, Email: email, Role: user.role}, nil
}

func (g *fakeGateway) Register(ctx context.Context, email, password, role string) (*models.AuthUser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.users[email]; exists {
		return nil, apperrors.New(apperrors.CodeConflict, "Email already registered")
	}
	user := fakeUser{id: uuid.New().String(), password: password, role: role}
	g.users[email] = user
	return &models.AuthUser{ID: user.id, Email: email, Role: role}, nil
}

// fixture wires the handlers into a router the way the server does,
// backed by the in-memory fakes.
type fixture struct {
	router    http.Handler
	events    *fakeEventStore
	grants    *fakeGrantStore
	attendees *fakeAttendeeStore
	gateway   *fakeGateway
	codec     *token.Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	events := newFakeEventStore()
	grants := newFakeGrantStore()
	attendees := newFakeAttendeeStore()
	gateway := newFakeGateway()
	codec := token.NewCodec("test-secret")

	authService := services.NewAuthService(gateway, codec)
	accessService := services.NewAccessService(events, grants, nil)
	eventService := services.NewEventService(events, attendees, cache.New("", ""), nil)
	attendeeService := services.NewAttendeeService(attendees, events)
	adminService := services.NewAdminService(grants)

	authHandler := handlers.NewAuthHandler(authService)
	eventHandler := handlers.NewEventHandler(eventService, accessService)
	attendeeHandler := handlers.NewAttendeeHandler(attendeeService, accessService)
	adminHandler := handlers.NewAdminHandler(adminService, accessService)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Get("/events", eventHandler.List)
		r.Get("/events/{id}", eventHandler.Get)
		r.Post("/events/{id}/attendees", attendeeHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(codec))
			r.Post("/events", eventHandler.Create)
			r.Put("/events/{id}", eventHandler.Update)
			r.Delete("/events/{id}", eventHandler.Delete)
			r.Get("/events/{id}/attendees", attendeeHandler.List)
			r.Get("/events/{id}/admins", adminHandler.List)
			r.Post("/events/{id}/admins", adminHandler.Grant)
			r.Delete("/events/{id}/admins", adminHandler.Revoke)
		})
	})

	return &fixture{
		router:    r,
		events:    events,
		grants:    grants,
		attendees: attendees,
		gateway:   gateway,
		codec:     codec,
	}
}

// addEvent seeds an event directly into the store. An empty ownerID
// leaves the event unclaimed.
func (f *fixture) addEvent(t *testing.T, ownerID string) string {
	t.Helper()
	event := &models.Event{
		ID:        uuid.New().String(),
		Title:     "Summer Picnic",
		EventAt:   time.Now().Add(48 * time.Hour),
		CreatedAt: time.Now(),
	}
	if ownerID != "" {
		event.OwnerID = &ownerID
	}
	require.NoError(t, f.events.Create(context.Background(), event))
	return event.ID
}

// tokenFor issues a valid session token for the identity.
func (f *fixture) tokenFor(t *testing.T, id token.Identity) string {
	t.Helper()
	signed, err := f.codec.Issue(id)
	require.NoError(t, err)
	return signed
}

// do runs a request through the router. An empty bearer leaves the
// request anonymous; a non-nil body is sent as JSON.
func (f *fixture) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// apiResponse is the decoded response envelope.
type apiResponse struct {
	Success bool                       `json:"success"`
	Data    map[string]json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var res apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), "body: %s", rec.Body.String())
	return res
}

// requireErrorCode asserts the response is an error envelope with the
// given status and code.
func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code apperrors.Code) {
	t.Helper()
	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	res := decodeResponse(t, rec)
	require.False(t, res.Success)
	require.NotNil(t, res.Error)
	require.Equal(t, string(code), res.Error.Code)
}
