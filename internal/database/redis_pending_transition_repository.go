package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.PendingTransitionRepository = (*redisPendingTransitionRepository)(nil)

type redisPendingTransitionRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPendingTransitionRepository хранит отложенные ответы в Redis с TTL.
func NewRedisPendingTransitionRepository(client *redis.Client, logger *zap.Logger) interfaces.PendingTransitionRepository {
	return &redisPendingTransitionRepository{
		client: client,
		logger: logger.Named("RedisPendingTransitionRepo"),
	}
}

func pendingTransitionKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("pending_transition:%s", sessionID)
}

func (r *redisPendingTransitionRepository) Save(ctx context.Context, pending *models.PendingTransition, ttl time.Duration) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to marshal pending transition: %w", err)
	}
	key := pendingTransitionKey(pending.SessionID)
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		r.logger.Error("Failed to save pending transition", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: failed to save pending transition: %w", models.ErrPersistence, err)
	}
	r.logger.Debug("Pending transition saved", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *redisPendingTransitionRepository) Get(ctx context.Context, sessionID uuid.UUID) (*models.PendingTransition, error) {
	key := pendingTransitionKey(sessionID)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get pending transition", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to get pending transition: %w", err)
	}

	var pending models.PendingTransition
	if err := json.Unmarshal(data, &pending); err != nil {
		// Поврежденная запись не может быть применена.
		r.logger.Warn("Dropping undecodable pending transition", zap.String("key", key), zap.Error(err))
		_ = r.client.Del(ctx, key).Err()
		return nil, models.ErrNotFound
	}
	return &pending, nil
}

func (r *redisPendingTransitionRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	key := pendingTransitionKey(sessionID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Failed to delete pending transition", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to delete pending transition: %w", err)
	}
	return nil
}
