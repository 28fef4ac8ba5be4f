package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"solaris-server/shared/interfaces"
	"solaris-server/shared/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisPhaseRepository implements PhaseRepository
var _ interfaces.PhaseRepository = (*redisPhaseRepository)(nil)

type redisPhaseRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPhaseRepository creates a new Redis-backed PhaseRepository.
// Фазовое состояние хранится по ключу phase:{sessionID} без TTL:
// протокол хода не имеет таймаута на стороне хранилища.
func NewRedisPhaseRepository(client *redis.Client, logger *zap.Logger) interfaces.PhaseRepository {
	return &redisPhaseRepository{
		client: client,
		logger: logger.Named("RedisPhaseRepo"),
	}
}

func phaseKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("phase:%s", sessionID.String())
}

func (r *redisPhaseRepository) Get(ctx context.Context, sessionID uuid.UUID) (*models.PhaseState, error) {
	raw, err := r.client.Get(ctx, phaseKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get phase state", zap.String("sessionID", sessionID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get phase state: %w", err)
	}

	var state models.PhaseState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal phase state: %w", err)
	}
	return &state, nil
}

func (r *redisPhaseRepository) Save(ctx context.Context, sessionID uuid.UUID, state *models.PhaseState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal phase state: %w", err)
	}
	if err := r.client.Set(ctx, phaseKey(sessionID), raw, 0).Err(); err != nil {
		r.logger.Error("Failed to save phase state", zap.String("sessionID", sessionID.String()), zap.Error(err))
		return fmt.Errorf("failed to save phase state: %w", err)
	}
	return nil
}
