package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"solaris-server/shared/interfaces"
	"solaris-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	narrativeRequestFields = `id, session_id, requester_id, range_start, range_end, status, votes, total_participants, created_at, resolved_at`

	createNarrativeRequestQuery = `
        INSERT INTO narrative_requests
            (id, session_id, requester_id, range_start, range_end, status, votes, total_participants, created_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	getNarrativeRequestByIDQuery = `
        SELECT ` + narrativeRequestFields + `
        FROM narrative_requests
        WHERE id = $1
    `
	listNarrativeRequestsBySessionQuery = `
        SELECT ` + narrativeRequestFields + `
        FROM narrative_requests
        WHERE session_id = $1
        ORDER BY created_at ASC
    `
	// Голос записывается только если запрос открыт и участник еще не голосовал:
	// записанный голос неизменяем.
	addNarrativeVoteQuery = `
        UPDATE narrative_requests
        SET votes = votes || jsonb_build_object($2::text, $3::text)
        WHERE id = $1 AND status = 'voting' AND NOT (votes ? $2::text)
    `
	updateNarrativeStatusQuery = `
        UPDATE narrative_requests
        SET status = $2, resolved_at = $3
        WHERE id = $1 AND status = 'voting'
    `
)

// narrativeRequestRow - строка таблицы narrative_requests для pgxscan.
type narrativeRequestRow struct {
	ID                uuid.UUID  `db:"id"`
	SessionID         uuid.UUID  `db:"session_id"`
	RequesterID       uuid.UUID  `db:"requester_id"`
	RangeStart        string     `db:"range_start"`
	RangeEnd          string     `db:"range_end"`
	Status            string     `db:"status"`
	Votes             []byte     `db:"votes"`
	TotalParticipants int        `db:"total_participants"`
	CreatedAt         time.Time  `db:"created_at"`
	ResolvedAt        *time.Time `db:"resolved_at"`
}

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.NarrativeRequestRepository = (*pgNarrativeRequestRepository)(nil)

type pgNarrativeRequestRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgNarrativeRequestRepository создает новый экземпляр репозитория запросов рефлексии.
func NewPgNarrativeRequestRepository(querier interfaces.DBTX, logger *zap.Logger) *pgNarrativeRequestRepository {
	return &pgNarrativeRequestRepository{
		db:     querier,
		logger: logger.Named("PgNarrativeRequestRepo"),
	}
}

func (r *pgNarrativeRequestRepository) Create(ctx context.Context, req *models.NarrativeRequest) error {
	votes := req.Votes
	if votes == nil {
		votes = map[uuid.UUID]models.Vote{}
	}
	votesJSON, err := json.Marshal(votes)
	if err != nil {
		return fmt.Errorf("failed to marshal votes: %w", err)
	}

	_, err = r.db.Exec(ctx, createNarrativeRequestQuery,
		req.ID,
		req.SessionID,
		req.RequesterID,
		req.RangeStart,
		req.RangeEnd,
		req.Status,
		votesJSON,
		req.TotalParticipants,
		req.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create narrative request", zap.String("requestID", req.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to create narrative request: %w", err)
	}
	return nil
}

func (r *pgNarrativeRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.NarrativeRequest, error) {
	var row narrativeRequestRow
	err := pgxscan.Get(ctx, r.db, &row, getNarrativeRequestByIDQuery, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrRequestNotFound
		}
		r.logger.Error("Failed to get narrative request", zap.String("requestID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get narrative request: %w", err)
	}
	return rowToNarrativeRequest(&row)
}

func (r *pgNarrativeRequestRepository) AddVote(ctx context.Context, id uuid.UUID, participantID uuid.UUID, vote models.Vote) error {
	tag, err := r.db.Exec(ctx, addNarrativeVoteQuery, id, participantID.String(), string(vote))
	if err != nil {
		r.logger.Error("Failed to add vote", zap.String("requestID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to add vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Выясняем, почему голос не записался
		existing, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		if existing.Status != models.RequestStatusVoting {
			return models.ErrVotingClosed
		}
		if existing.HasVoted(participantID) {
			return models.ErrAlreadyVoted
		}
		return models.ErrRequestNotFound
	}
	return nil
}

func (r *pgNarrativeRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus) error {
	tag, err := r.db.Exec(ctx, updateNarrativeStatusQuery, id, status, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to update narrative request status", zap.String("requestID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to update narrative request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		if existing.Status != models.RequestStatusVoting {
			// Переход voting -> approved|rejected происходит ровно один раз
			return models.ErrVotingClosed
		}
		return models.ErrRequestNotFound
	}
	return nil
}

func (r *pgNarrativeRequestRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.NarrativeRequest, error) {
	var rows []narrativeRequestRow
	err := pgxscan.Select(ctx, r.db, &rows, listNarrativeRequestsBySessionQuery, sessionID)
	if err != nil {
		r.logger.Error("Failed to list narrative requests", zap.String("sessionID", sessionID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list narrative requests: %w", err)
	}

	requests := make([]models.NarrativeRequest, 0, len(rows))
	for i := range rows {
		req, err := rowToNarrativeRequest(&rows[i])
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, nil
}

func rowToNarrativeRequest(row *narrativeRequestRow) (*models.NarrativeRequest, error) {
	votes := map[uuid.UUID]models.Vote{}
	if len(row.Votes) > 0 {
		if err := json.Unmarshal(row.Votes, &votes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal votes: %w", err)
		}
	}
	req := &models.NarrativeRequest{
		ID:                row.ID,
		SessionID:         row.SessionID,
		RequesterID:       row.RequesterID,
		RangeStart:        row.RangeStart,
		RangeEnd:          row.RangeEnd,
		Status:            models.RequestStatus(row.Status),
		Votes:             votes,
		TotalParticipants: row.TotalParticipants,
		CreatedAt:         row.CreatedAt,
		ResolvedAt:        row.ResolvedAt,
	}
	if req.Status != models.RequestStatusVoting && req.Status != models.RequestStatusApproved && req.Status != models.RequestStatusRejected {
		return nil, errors.New("unknown narrative request status in storage")
	}
	return req, nil
}
