package mocks

import (
	"context"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// ContentRepository - мок interfaces.ContentRepository.
// Аргумент querier в ожиданиях не участвует.
type ContentRepository struct {
	mock.Mock
}

var _ interfaces.ContentRepository = (*ContentRepository)(nil)

func (m *ContentRepository) GetStory(ctx context.Context, _ interfaces.DBTX, storyID uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, storyID)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}

func (m *ContentRepository) ListPublicStories(ctx context.Context, _ interfaces.DBTX, limit, offset int) ([]models.Story, error) {
	args := m.Called(ctx, limit, offset)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}

func (m *ContentRepository) GetIntroScene(ctx context.Context, _ interfaces.DBTX, storyID uuid.UUID) (*models.IntroScene, error) {
	args := m.Called(ctx, storyID)
	scene, _ := args.Get(0).(*models.IntroScene)
	return scene, args.Error(1)
}

func (m *ContentRepository) GetQuestionSceneWithOptions(ctx context.Context, _ interfaces.DBTX, sceneID uuid.UUID) (*models.QuestionScene, error) {
	args := m.Called(ctx, sceneID)
	scene, _ := args.Get(0).(*models.QuestionScene)
	return scene, args.Error(1)
}

func (m *ContentRepository) GetFirstQuestionScene(ctx context.Context, _ interfaces.DBTX, storyID uuid.UUID) (*models.QuestionScene, error) {
	args := m.Called(ctx, storyID)
	scene, _ := args.Get(0).(*models.QuestionScene)
	return scene, args.Error(1)
}

func (m *ContentRepository) GetNextQuestionScene(ctx context.Context, _ interfaces.DBTX, sceneID uuid.UUID) (*models.QuestionScene, error) {
	args := m.Called(ctx, sceneID)
	scene, _ := args.Get(0).(*models.QuestionScene)
	return scene, args.Error(1)
}

func (m *ContentRepository) GetEndingScene(ctx context.Context, _ interfaces.DBTX, storyID uuid.UUID, endingType models.EndingType) (*models.EndingScene, error) {
	args := m.Called(ctx, storyID, endingType)
	scene, _ := args.Get(0).(*models.EndingScene)
	return scene, args.Error(1)
}

func (m *ContentRepository) GetEndingSceneByID(ctx context.Context, _ interfaces.DBTX, sceneID uuid.UUID) (*models.EndingScene, error) {
	args := m.Called(ctx, sceneID)
	scene, _ := args.Get(0).(*models.EndingScene)
	return scene, args.Error(1)
}

func (m *ContentRepository) GetAnswerOption(ctx context.Context, _ interfaces.DBTX, optionID uuid.UUID) (*models.AnswerOption, error) {
	args := m.Called(ctx, optionID)
	option, _ := args.Get(0).(*models.AnswerOption)
	return option, args.Error(1)
}

func (m *ContentRepository) GetQuestionCount(ctx context.Context, _ interfaces.DBTX, storyID uuid.UUID) (int, error) {
	args := m.Called(ctx, storyID)
	return args.Int(0), args.Error(1)
}
