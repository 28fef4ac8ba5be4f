package interfaces

import (
	"context"

	"solaris-server/shared/models"

	"github.com/google/uuid"
)

// PhaseRepository stores the authoritative turn-phase state per session.
//
//go:generate mockery --name PhaseRepository --output ./mocks --outpkg mocks --case=underscore
type PhaseRepository interface {
	// Get retrieves the phase state of a session.
	// Returns models.ErrNotFound if the session has no phase state yet.
	Get(ctx context.Context, sessionID uuid.UUID) (*models.PhaseState, error)

	// Save stores the phase state of a session, replacing any previous state.
	Save(ctx context.Context, sessionID uuid.UUID, state *models.PhaseState) error
}
