package service_test

import (
	"errors"
	"testing"

	"quest-server/internal/interfaces/mocks"
	"quest-server/internal/models"
	"quest-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestListPublicStories(t *testing.T) {
	t.Run("Sanitizes paging", func(t *testing.T) {
		content := new(mocks.ContentRepository)
		svc := service.NewStoryBrowsingService(content, &mocks.TxManager{}, zap.NewNop())
		content.On("ListPublicStories", mock.Anything, 20, 0).Return(nil, nil).Once()

		stories, err := svc.ListPublicStories(ctx, 1000, -5)
		require.NoError(t, err)
		assert.Empty(t, stories)
		assert.NotNil(t, stories)
		content.AssertExpectations(t)
	})

	t.Run("Repository failure", func(t *testing.T) {
		content := new(mocks.ContentRepository)
		svc := service.NewStoryBrowsingService(content, &mocks.TxManager{}, zap.NewNop())
		content.On("ListPublicStories", mock.Anything, 10, 30).Return(nil, errors.New("db down")).Once()

		_, err := svc.ListPublicStories(ctx, 10, 30)
		assert.ErrorIs(t, err, models.ErrInternalServer)
	})
}

func TestGetStoryStats(t *testing.T) {
	ownerID := uuid.New()
	code := "x"
	public := &models.Story{ID: uuid.New(), OwnerID: ownerID, Accessibility: models.AccessibilityPublic,
		PlayedCount: 10, FinishedCount: 4, FailedCount: 3}
	private := &models.Story{ID: uuid.New(), OwnerID: ownerID, Accessibility: models.AccessibilityPrivate, AccessCode: &code,
		PlayedCount: 2, FinishedCount: 2}

	content := new(mocks.ContentRepository)
	content.On("GetStory", mock.Anything, public.ID).Return(public, nil)
	content.On("GetStory", mock.Anything, private.ID).Return(private, nil)
	missing := uuid.New()
	content.On("GetStory", mock.Anything, missing).Return(nil, models.ErrNotFound)
	svc := service.NewStoryBrowsingService(content, &mocks.TxManager{}, zap.NewNop())

	t.Run("Public story", func(t *testing.T) {
		stats, err := svc.GetStoryStats(ctx, uuid.New(), public.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StoryStats{StoryID: public.ID, Played: 10, Finished: 4, Failed: 3, DidNotFinish: 3}, *stats)
	})

	t.Run("Private story for owner", func(t *testing.T) {
		stats, err := svc.GetStoryStats(ctx, ownerID, private.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.DidNotFinish)
	})

	t.Run("Private story for stranger", func(t *testing.T) {
		_, err := svc.GetStoryStats(ctx, uuid.New(), private.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("Unknown story", func(t *testing.T) {
		_, err := svc.GetStoryStats(ctx, ownerID, missing)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
