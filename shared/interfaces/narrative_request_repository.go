package interfaces

import (
	"context"

	"solaris-server/shared/models"

	"github.com/google/uuid"
)

// NarrativeRequestRepository defines the interface for narrative consensus requests.
//
//go:generate mockery --name NarrativeRequestRepository --output ./mocks --outpkg mocks --case=underscore
type NarrativeRequestRepository interface {
	// Create persists a freshly opened request (status=voting, no votes).
	Create(ctx context.Context, req *models.NarrativeRequest) error

	// GetByID retrieves a request by its ID.
	// Returns models.ErrRequestNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*models.NarrativeRequest, error)

	// AddVote records a participant's vote. A vote, once written, is
	// immutable: returns models.ErrAlreadyVoted if the participant has one.
	AddVote(ctx context.Context, id uuid.UUID, participantID uuid.UUID, vote models.Vote) error

	// UpdateStatus performs the single voting -> approved|rejected transition.
	// Returns models.ErrVotingClosed if the request is already resolved.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus) error

	// ListBySession returns all requests of a session, oldest first.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.NarrativeRequest, error)
}
