package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"solaris-server/shared/interfaces"
	"solaris-server/shared/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	sessionEventFields = `id, session_id, kind, sender_id, content, payload, created_at`

	upsertSessionEventQuery = `
        INSERT INTO session_events (id, session_id, kind, sender_id, content, payload, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (session_id, id) DO UPDATE SET
            kind = EXCLUDED.kind,
            content = EXCLUDED.content,
            payload = EXCLUDED.payload
            -- position и created_at не меняются: таймлайн append-only по id
    `
	listSessionEventsQuery = `
        SELECT ` + sessionEventFields + `
        FROM session_events
        WHERE session_id = $1
        ORDER BY position ASC
    `
	getSessionEventByIDQuery = `
        SELECT ` + sessionEventFields + `
        FROM session_events
        WHERE session_id = $1 AND id = $2
    `
)

// eventPayload - обертка для хранения типизированной нагрузки события в jsonb.
type eventPayload struct {
	Action     *models.Action           `json:"action,omitempty"`
	Judgment   *models.JudgmentResult   `json:"judgment,omitempty"`
	Reflection *models.NarrativeRequest `json:"narrativeRequest,omitempty"`
}

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.SessionEventRepository = (*pgSessionEventRepository)(nil)

type pgSessionEventRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgSessionEventRepository создает новый экземпляр репозитория таймлайна.
func NewPgSessionEventRepository(querier interfaces.DBTX, logger *zap.Logger) *pgSessionEventRepository {
	return &pgSessionEventRepository{
		db:     querier,
		logger: logger.Named("PgSessionEventRepo"),
	}
}

func (r *pgSessionEventRepository) UpsertEvent(ctx context.Context, event *models.SessionEvent) error {
	payloadJSON, err := marshalEventPayload(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	_, err = r.db.Exec(ctx, upsertSessionEventQuery,
		event.ID,
		event.SessionID,
		event.Kind,
		event.SenderID,
		event.Content,
		payloadJSON,
		event.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to upsert session event",
			zap.String("eventID", event.ID),
			zap.String("sessionID", event.SessionID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to upsert session event: %w", err)
	}
	return nil
}

func (r *pgSessionEventRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.SessionEvent, error) {
	rows, err := r.db.Query(ctx, listSessionEventsQuery, sessionID)
	if err != nil {
		r.logger.Error("Failed to list session events", zap.String("sessionID", sessionID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list session events: %w", err)
	}
	defer rows.Close()

	events := make([]models.SessionEvent, 0)
	for rows.Next() {
		event, err := scanSessionEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading session event rows: %w", err)
	}
	return events, nil
}

func (r *pgSessionEventRepository) GetByID(ctx context.Context, sessionID uuid.UUID, eventID string) (*models.SessionEvent, error) {
	row := r.db.QueryRow(ctx, getSessionEventByIDQuery, sessionID, eventID)
	event, err := scanSessionEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrEventNotFound
		}
		r.logger.Error("Failed to get session event", zap.String("eventID", eventID), zap.Error(err))
		return nil, err
	}
	return event, nil
}

func marshalEventPayload(event *models.SessionEvent) ([]byte, error) {
	if event.Action == nil && event.Judgment == nil && event.Reflection == nil {
		return nil, nil
	}
	return json.Marshal(eventPayload{
		Action:     event.Action,
		Judgment:   event.Judgment,
		Reflection: event.Reflection,
	})
}

// scanSessionEvent читает одну строку таймлайна (pgx.Row покрывает и pgx.Rows).
func scanSessionEvent(row pgx.Row) (*models.SessionEvent, error) {
	var event models.SessionEvent
	var payloadJSON []byte

	err := row.Scan(
		&event.ID,
		&event.SessionID,
		&event.Kind,
		&event.SenderID,
		&event.Content,
		&payloadJSON,
		&event.Timestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan session event row: %w", err)
	}

	if len(payloadJSON) > 0 {
		var payload eventPayload
		if err := json.Unmarshal(payloadJSON, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
		}
		event.Action = payload.Action
		event.Judgment = payload.Judgment
		event.Reflection = payload.Reflection
	}
	return &event, nil
}
