package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	sessionColumns = `id, story_id, user_id, started_at, score, max_score, level,
        current_scene_id, current_scene_type, finished_at, updated_at`

	createSessionQuery = `
        INSERT INTO playing_sessions
            (id, story_id, user_id, started_at, score, max_score, level, current_scene_id, current_scene_type, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	getSessionQuery = `SELECT ` + sessionColumns + ` FROM playing_sessions WHERE id = $1`

	// Завершенная сессия не меняется.
	advanceSessionQuery = `
        UPDATE playing_sessions
        SET current_scene_id = $2, current_scene_type = $3, score = $4, level = $5, updated_at = NOW()
        WHERE id = $1 AND finished_at IS NULL
    `
	finishSessionQuery = `
        UPDATE playing_sessions
        SET score = $2, level = $3, finished_at = NOW(), updated_at = NOW()
        WHERE id = $1 AND finished_at IS NULL
    `
	listSessionsByUserQuery = `
        SELECT ` + sessionColumns + `
        FROM playing_sessions
        WHERE user_id = $1
        ORDER BY started_at DESC
        LIMIT $2
    `
)

var _ interfaces.SessionRepository = (*pgSessionRepository)(nil)

type pgSessionRepository struct {
	logger *zap.Logger
}

func NewPgSessionRepository(logger *zap.Logger) interfaces.SessionRepository {
	return &pgSessionRepository{logger: logger.Named("PgSessionRepo")}
}

func (r *pgSessionRepository) Create(ctx context.Context, querier interfaces.DBTX, session *models.PlayingSession) error {
	now := time.Now().UTC()
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = now
	}
	logFields := []zap.Field{
		zap.String("sessionID", session.ID.String()),
		zap.String("storyID", session.StoryID.String()),
		zap.String("userID", session.UserID.String()),
	}

	_, err := querier.Exec(ctx, createSessionQuery,
		session.ID,
		session.StoryID,
		session.UserID,
		session.StartedAt,
		session.Score,
		session.MaxScore,
		session.Level,
		session.CurrentSceneID,
		string(session.CurrentSceneType),
		session.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create playing session", append(logFields, zap.Error(err))...)
		return fmt.Errorf("%w: ошибка создания сессии: %w", models.ErrPersistence, err)
	}
	r.logger.Debug("Playing session created", logFields...)
	return nil
}

func (r *pgSessionRepository) GetByID(ctx context.Context, querier interfaces.DBTX, sessionID uuid.UUID) (*models.PlayingSession, error) {
	var session models.PlayingSession
	if err := pgxscan.Get(ctx, querier, &session, getSessionQuery, sessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get playing session", zap.String("sessionID", sessionID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения сессии %s: %w", sessionID, err)
	}
	return &session, nil
}

func (r *pgSessionRepository) Advance(ctx context.Context, querier interfaces.DBTX, sessionID, nextSceneID uuid.UUID, nextSceneType models.SceneType, score, level int) error {
	logFields := []zap.Field{
		zap.String("sessionID", sessionID.String()),
		zap.String("nextSceneID", nextSceneID.String()),
		zap.String("nextSceneType", string(nextSceneType)),
	}
	tag, err := querier.Exec(ctx, advanceSessionQuery, sessionID, nextSceneID, string(nextSceneType), score, level)
	if err != nil {
		r.logger.Error("Failed to advance playing session", append(logFields, zap.Error(err))...)
		return fmt.Errorf("%w: ошибка обновления сессии: %w", models.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Playing session to advance not found or already finished", logFields...)
		return models.ErrNotFound
	}
	return nil
}

func (r *pgSessionRepository) Finish(ctx context.Context, querier interfaces.DBTX, sessionID uuid.UUID, score, level int) error {
	logFields := []zap.Field{zap.String("sessionID", sessionID.String()), zap.Int("score", score)}
	tag, err := querier.Exec(ctx, finishSessionQuery, sessionID, score, level)
	if err != nil {
		r.logger.Error("Failed to finish playing session", append(logFields, zap.Error(err))...)
		return fmt.Errorf("%w: ошибка завершения сессии: %w", models.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Playing session to finish not found or already finished", logFields...)
		return models.ErrNotFound
	}
	return nil
}

func (r *pgSessionRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, limit int) ([]models.PlayingSession, error) {
	var sessions []models.PlayingSession
	if err := pgxscan.Select(ctx, querier, &sessions, listSessionsByUserQuery, userID, limit); err != nil {
		r.logger.Error("Failed to list playing sessions", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения списка сессий: %w", err)
	}
	return sessions, nil
}
