package interfaces

import (
	"context"

	"solaris-server/shared/models"

	"github.com/google/uuid"
)

// SessionEventRepository defines the interface for persisting the session timeline.
//
// The timeline is append-only by event ID: upserting a known ID replaces the
// stored payload but never moves the event's position.
//
//go:generate mockery --name SessionEventRepository --output ./mocks --outpkg mocks --case=underscore
type SessionEventRepository interface {
	// UpsertEvent inserts a new event at the end of the session's order,
	// or replaces the payload of an existing event with the same ID.
	UpsertEvent(ctx context.Context, event *models.SessionEvent) error

	// ListBySession returns all events of a session in insertion order.
	// Returns an empty slice for a session with no events.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.SessionEvent, error)

	// GetByID retrieves a single event. Returns models.ErrEventNotFound
	// if no event with the given ID exists in the session.
	GetByID(ctx context.Context, sessionID uuid.UUID, eventID string) (*models.SessionEvent, error)
}
