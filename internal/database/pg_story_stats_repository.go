package database

import (
	"context"
	"fmt"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	incrementPlayedQuery   = `UPDATE stories SET played_count = played_count + 1, updated_at = NOW() WHERE id = $1`
	incrementFinishedQuery = `UPDATE stories SET finished_count = finished_count + 1, updated_at = NOW() WHERE id = $1`
	incrementFailedQuery   = `UPDATE stories SET failed_count = failed_count + 1, updated_at = NOW() WHERE id = $1`
)

var _ interfaces.StoryStatsRepository = (*pgStoryStatsRepository)(nil)

type pgStoryStatsRepository struct {
	logger *zap.Logger
}

func NewPgStoryStatsRepository(logger *zap.Logger) interfaces.StoryStatsRepository {
	return &pgStoryStatsRepository{logger: logger.Named("PgStoryStatsRepo")}
}

func (r *pgStoryStatsRepository) IncrementPlayed(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) error {
	return r.increment(ctx, querier, incrementPlayedQuery, "played", storyID)
}

func (r *pgStoryStatsRepository) IncrementFinished(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) error {
	return r.increment(ctx, querier, incrementFinishedQuery, "finished", storyID)
}

func (r *pgStoryStatsRepository) IncrementFailed(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) error {
	return r.increment(ctx, querier, incrementFailedQuery, "failed", storyID)
}

func (r *pgStoryStatsRepository) increment(ctx context.Context, querier interfaces.DBTX, query, counter string, storyID uuid.UUID) error {
	logFields := []zap.Field{zap.String("storyID", storyID.String()), zap.String("counter", counter)}
	tag, err := querier.Exec(ctx, query, storyID)
	if err != nil {
		r.logger.Error("Failed to increment story counter", append(logFields, zap.Error(err))...)
		return fmt.Errorf("%w: ошибка обновления счетчика %s: %w", models.ErrPersistence, counter, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Story for counter increment not found", logFields...)
		return models.ErrNotFound
	}
	return nil
}
