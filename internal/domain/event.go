package domain

import (
	"context"
	"time"
)

// EventMode is the attendance mode of an event.
type EventMode string

const (
	ModeOnline  EventMode = "online"
	ModeOffline EventMode = "offline"
	ModeHybrid  EventMode = "hybrid"
)

// Valid reports whether m is one of the known modes.
func (m EventMode) Valid() bool {
	switch m {
	case ModeOnline, ModeOffline, ModeHybrid:
		return true
	}
	return false
}

// Event represents a single community event.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Overview    string    `json:"overview"`
	Image       string    `json:"image"`
	Venue       string    `json:"venue"`
	Location    string    `json:"location"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Mode        EventMode `json:"mode"`
	Audience    string    `json:"audience"`
	Agenda      []string  `json:"agenda"`
	Organizer   string    `json:"organizer"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Upload is a binary file received with a submission.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EventSubmission is the raw event form as submitted by an organizer.
// Tags and Agenda carry the JSON arrays exactly as they were posted.
type EventSubmission struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Overview    string `json:"overview"`
	Venue       string `json:"venue"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Mode        string `json:"mode"`
	Audience    string `json:"audience"`
	Organizer   string `json:"organizer"`
	Tags        string `json:"tags"`
	Agenda      string `json:"agenda"`
	Image       *Upload
}

// EventDraft is a submission that passed field validation: strings are trimmed,
// mode is lower-cased, tags and agenda are decoded and the time is in 24-hour form.
// Date is still the raw (parseable) string; it is normalized at persistence.
type EventDraft struct {
	Title       string
	Description string
	Overview    string
	Venue       string
	Location    string
	Date        string
	Time        string
	Mode        EventMode
	Audience    string
	Organizer   string
	Tags        []string
	Agenda      []string
}

// EventPatch holds the fields of a partial event update. Nil fields are unchanged.
type EventPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Overview    *string   `json:"overview"`
	Venue       *string   `json:"venue"`
	Location    *string   `json:"location"`
	Date        *string   `json:"date"`
	Time        *string   `json:"time"`
	Mode        *string   `json:"mode"`
	Audience    *string   `json:"audience"`
	Organizer   *string   `json:"organizer"`
	Agenda      *[]string `json:"agenda"`
	Tags        *[]string `json:"tags"`
}

// EventRepository defines the interface for event storage.
// Create and Update return a *ConflictError when the slug is already taken.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	Update(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	// SlugExists reports whether any event other than excludeID holds slug.
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	// List returns one page of events, newest first, and the total count.
	List(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	// ListSimilar returns events other than excludeID sharing at least one tag.
	ListSimilar(ctx context.Context, excludeID string, tags []string, limit int) ([]*Event, error)
}

// EventService defines the business operations on events.
type EventService interface {
	CreateEvent(ctx context.Context, sub *EventSubmission) (*Event, error)
	UpdateEvent(ctx context.Context, slug string, patch *EventPatch) (*Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*Event, error)
	GetEventByID(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	ListSimilarEvents(ctx context.Context, slug string) ([]*Event, error)
}
