package interfaces

import (
	"context"

	"solaris-server/shared/models"

	"github.com/google/uuid"
)

// RosterClient defines the interface for fetching the participant roster
// of a session from the external roster provider.
//
// Consumers must call GetRoster at resolution time rather than hold on to a
// returned slice: the provider may update participants (pools, abilities)
// between calls and sender resolution must always see the current roster.
type RosterClient interface {
	// GetRoster fetches the current participant list of a session.
	GetRoster(ctx context.Context, sessionID uuid.UUID) ([]models.Participant, error)
}
