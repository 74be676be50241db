package database

import (
	"context"
	"errors"
	"fmt"

	"quest-server/internal/engine"
	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	storyColumns = `id, owner_id, title, description, difficulty_label, accessibility, access_code,
        played_count, finished_count, failed_count, created_at, updated_at`

	getStoryQuery          = `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`
	listPublicStoriesQuery = `
        SELECT ` + storyColumns + `
        FROM stories
        WHERE accessibility = 'public'
        ORDER BY created_at DESC, id
        LIMIT $1 OFFSET $2
    `

	getIntroSceneQuery    = `SELECT id, story_id, text FROM intro_scenes WHERE story_id = $1`
	getQuestionSceneQuery = `SELECT id, story_id, text, question, next_id FROM question_scenes WHERE id = $1`
	getQuestionLinksQuery = `SELECT id, next_id FROM question_scenes WHERE story_id = $1`
	getNextIDQuery        = `SELECT next_id FROM question_scenes WHERE id = $1`
	countQuestionsQuery   = `SELECT COUNT(*) FROM question_scenes WHERE story_id = $1`

	getOptionsQuery = `
        SELECT id, question_scene_id, text, feedback, is_correct
        FROM answer_options
        WHERE question_scene_id = $1
        ORDER BY position, id
    `
	getOptionQuery = `SELECT id, question_scene_id, text, feedback, is_correct FROM answer_options WHERE id = $1`

	getEndingByTypeQuery = `SELECT id, story_id, ending_type, text FROM ending_scenes WHERE story_id = $1 AND ending_type = $2`
	getEndingByIDQuery   = `SELECT id, story_id, ending_type, text FROM ending_scenes WHERE id = $1`
)

var _ interfaces.ContentRepository = (*pgContentRepository)(nil)

type pgContentRepository struct {
	logger *zap.Logger
}

// NewPgContentRepository создает репозиторий контента историй.
// Соединение передается в каждый метод, чтобы чтение могло идти внутри транзакции.
func NewPgContentRepository(logger *zap.Logger) interfaces.ContentRepository {
	return &pgContentRepository{logger: logger.Named("PgContentRepo")}
}

func (r *pgContentRepository) GetStory(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (*models.Story, error) {
	var story models.Story
	if err := pgxscan.Get(ctx, querier, &story, getStoryQuery, storyID); err != nil {
		return nil, r.notFound(err, "story", storyID)
	}
	return &story, nil
}

func (r *pgContentRepository) ListPublicStories(ctx context.Context, querier interfaces.DBTX, limit, offset int) ([]models.Story, error) {
	var stories []models.Story
	if err := pgxscan.Select(ctx, querier, &stories, listPublicStoriesQuery, limit, offset); err != nil {
		r.logger.Error("Failed to list public stories", zap.Int("limit", limit), zap.Int("offset", offset), zap.Error(err))
		return nil, fmt.Errorf("failed to list public stories: %w", err)
	}
	return stories, nil
}

func (r *pgContentRepository) GetIntroScene(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (*models.IntroScene, error) {
	var scene models.IntroScene
	if err := pgxscan.Get(ctx, querier, &scene, getIntroSceneQuery, storyID); err != nil {
		return nil, r.notFound(err, "intro scene of story", storyID)
	}
	return &scene, nil
}

func (r *pgContentRepository) GetQuestionSceneWithOptions(ctx context.Context, querier interfaces.DBTX, sceneID uuid.UUID) (*models.QuestionScene, error) {
	var scene models.QuestionScene
	if err := pgxscan.Get(ctx, querier, &scene, getQuestionSceneQuery, sceneID); err != nil {
		return nil, r.notFound(err, "question scene", sceneID)
	}
	if err := pgxscan.Select(ctx, querier, &scene.Options, getOptionsQuery, sceneID); err != nil {
		r.logger.Error("Failed to get answer options", zap.String("sceneID", sceneID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get options of question scene %s: %w", sceneID, err)
	}
	return &scene, nil
}

// GetFirstQuestionScene проверяет всю цепочку вопросов истории и возвращает ее голову.
func (r *pgContentRepository) GetFirstQuestionScene(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (*models.QuestionScene, error) {
	var links []engine.QuestionLink
	if err := pgxscan.Select(ctx, querier, &links, getQuestionLinksQuery, storyID); err != nil {
		r.logger.Error("Failed to get question chain", zap.String("storyID", storyID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get question chain of story %s: %w", storyID, err)
	}
	chain, err := engine.BuildQuestionChain(links)
	if err != nil {
		r.logger.Error("Malformed question chain", zap.String("storyID", storyID.String()), zap.Error(err))
		return nil, err
	}
	head, ok := chain.First()
	if !ok {
		return nil, models.ErrNotFound
	}
	return r.GetQuestionSceneWithOptions(ctx, querier, head)
}

func (r *pgContentRepository) GetNextQuestionScene(ctx context.Context, querier interfaces.DBTX, sceneID uuid.UUID) (*models.QuestionScene, error) {
	var nextID *uuid.UUID
	if err := querier.QueryRow(ctx, getNextIDQuery, sceneID).Scan(&nextID); err != nil {
		return nil, r.notFound(err, "question scene", sceneID)
	}
	if nextID == nil {
		return nil, nil
	}
	next, err := r.GetQuestionSceneWithOptions(ctx, querier, *nextID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: question %s points to missing question %s", models.ErrMalformedChain, sceneID, *nextID)
		}
		return nil, err
	}
	return next, nil
}

func (r *pgContentRepository) GetEndingScene(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID, endingType models.EndingType) (*models.EndingScene, error) {
	var scene models.EndingScene
	if err := pgxscan.Get(ctx, querier, &scene, getEndingByTypeQuery, storyID, string(endingType)); err != nil {
		return nil, r.notFound(err, "ending scene of story", storyID)
	}
	return &scene, nil
}

func (r *pgContentRepository) GetEndingSceneByID(ctx context.Context, querier interfaces.DBTX, sceneID uuid.UUID) (*models.EndingScene, error) {
	var scene models.EndingScene
	if err := pgxscan.Get(ctx, querier, &scene, getEndingByIDQuery, sceneID); err != nil {
		return nil, r.notFound(err, "ending scene", sceneID)
	}
	return &scene, nil
}

func (r *pgContentRepository) GetAnswerOption(ctx context.Context, querier interfaces.DBTX, optionID uuid.UUID) (*models.AnswerOption, error) {
	var option models.AnswerOption
	if err := pgxscan.Get(ctx, querier, &option, getOptionQuery, optionID); err != nil {
		return nil, r.notFound(err, "answer option", optionID)
	}
	return &option, nil
}

func (r *pgContentRepository) GetQuestionCount(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (int, error) {
	var count int
	if err := querier.QueryRow(ctx, countQuestionsQuery, storyID).Scan(&count); err != nil {
		r.logger.Error("Failed to count questions", zap.String("storyID", storyID.String()), zap.Error(err))
		return 0, fmt.Errorf("failed to count questions of story %s: %w", storyID, err)
	}
	return count, nil
}

// notFound переводит pgx.ErrNoRows в models.ErrNotFound, остальные ошибки логирует и оборачивает.
func (r *pgContentRepository) notFound(err error, what string, id uuid.UUID) error {
	if errors.Is(err, pgx.ErrNoRows) || pgxscan.NotFound(err) {
		r.logger.Debug("Content not found", zap.String("what", what), zap.String("id", id.String()))
		return models.ErrNotFound
	}
	r.logger.Error("Failed to get content", zap.String("what", what), zap.String("id", id.String()), zap.Error(err))
	return fmt.Errorf("failed to get %s %s: %w", what, id, err)
}
