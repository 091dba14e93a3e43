package models

import "time"

// Event represents a community event. OwnerID is nil for legacy events
// that have not been claimed yet.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	EventAt     time.Time `json:"event_at"`
	HostName    *string   `json:"host_name,omitempty"`
	Location    *string   `json:"location,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	OwnerID     *string   `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Attendee represents a public registration for an event.
type Attendee struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Contact   string    `json:"contact"`
	CreatedAt time.Time `json:"created_at"`
}

// EventAdmin is a delegated-admin grant, keyed by (event_id, email).
// The email may belong to someone without an account yet.
type EventAdmin struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthUser is the identity row returned by the credential gateway
// stored procedures.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
