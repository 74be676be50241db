package interfaces

import (
	"context"
	"time"

	"quest-server/internal/models"

	"github.com/google/uuid"
)

// SessionRepository - долговременное хранилище прохождений.
type SessionRepository interface {
	// Create сохраняет новую сессию. ID и StartedAt заполняются, если пусты.
	Create(ctx context.Context, querier DBTX, session *models.PlayingSession) error

	// GetByID возвращает сессию или models.ErrNotFound.
	GetByID(ctx context.Context, querier DBTX, sessionID uuid.UUID) (*models.PlayingSession, error)

	// Advance перемещает незавершенную сессию на следующую сцену и фиксирует счет и уровень.
	// models.ErrNotFound - сессии нет или она уже завершена.
	Advance(ctx context.Context, querier DBTX, sessionID, nextSceneID uuid.UUID, nextSceneType models.SceneType, score, level int) error

	// Finish помечает незавершенную сессию завершенной.
	// models.ErrNotFound - сессии нет или она уже завершена.
	Finish(ctx context.Context, querier DBTX, sessionID uuid.UUID, score, level int) error

	// ListByUser возвращает последние сессии игрока, новые первыми.
	ListByUser(ctx context.Context, querier DBTX, userID uuid.UUID, limit int) ([]models.PlayingSession, error)
}

// StoryStatsRepository - счетчики прохождений истории.
type StoryStatsRepository interface {
	IncrementPlayed(ctx context.Context, querier DBTX, storyID uuid.UUID) error
	IncrementFinished(ctx context.Context, querier DBTX, storyID uuid.UUID) error
	IncrementFailed(ctx context.Context, querier DBTX, storyID uuid.UUID) error
}

// PendingTransitionRepository - кратковременное хранилище ответа между Question и Feedback.
type PendingTransitionRepository interface {
	Save(ctx context.Context, pending *models.PendingTransition, ttl time.Duration) error
	// Get возвращает models.ErrNotFound, если ответа нет или срок хранения истек.
	Get(ctx context.Context, sessionID uuid.UUID) (*models.PendingTransition, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
}
