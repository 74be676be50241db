package interfaces

import (
	"context"

	"quest-server/internal/models"

	"github.com/google/uuid"
)

// ContentRepository - доступ к графу сцен истории. Во время игры контент только читается.
//
// Все методы возвращают models.ErrNotFound, если запись отсутствует.
type ContentRepository interface {
	// GetStory возвращает историю вместе со счетчиками.
	GetStory(ctx context.Context, querier DBTX, storyID uuid.UUID) (*models.Story, error)

	// ListPublicStories возвращает публичные истории, новые первыми.
	ListPublicStories(ctx context.Context, querier DBTX, limit, offset int) ([]models.Story, error)

	GetIntroScene(ctx context.Context, querier DBTX, storyID uuid.UUID) (*models.IntroScene, error)

	// GetQuestionSceneWithOptions возвращает сцену вопроса со всеми вариантами ответа.
	GetQuestionSceneWithOptions(ctx context.Context, querier DBTX, sceneID uuid.UUID) (*models.QuestionScene, error)

	// GetFirstQuestionScene возвращает голову цепочки вопросов.
	// models.ErrNotFound - в истории нет вопросов; models.ErrMalformedChain - цепочка повреждена.
	GetFirstQuestionScene(ctx context.Context, querier DBTX, storyID uuid.UUID) (*models.QuestionScene, error)

	// GetNextQuestionScene возвращает вопрос, следующий за sceneID.
	// (nil, nil) означает, что sceneID - последний вопрос.
	GetNextQuestionScene(ctx context.Context, querier DBTX, sceneID uuid.UUID) (*models.QuestionScene, error)

	GetEndingScene(ctx context.Context, querier DBTX, storyID uuid.UUID, endingType models.EndingType) (*models.EndingScene, error)
	GetEndingSceneByID(ctx context.Context, querier DBTX, sceneID uuid.UUID) (*models.EndingScene, error)

	GetAnswerOption(ctx context.Context, querier DBTX, optionID uuid.UUID) (*models.AnswerOption, error)

	// GetQuestionCount возвращает количество вопросов в истории.
	GetQuestionCount(ctx context.Context, querier DBTX, storyID uuid.UUID) (int, error)
}
