package service

import (
	"context"
	"fmt"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoryBrowsingService - каталог опубликованных историй и их статистика.
type StoryBrowsingService interface {
	ListPublicStories(ctx context.Context, limit, offset int) ([]models.Story, error)
	// GetStoryStats доступен для публичных историй и владельцу приватной.
	GetStoryStats(ctx context.Context, userID, storyID uuid.UUID) (*models.StoryStats, error)
}

type storyBrowsingServiceImpl struct {
	content interfaces.ContentRepository
	tx      interfaces.TxManager
	logger  *zap.Logger
}

func NewStoryBrowsingService(content interfaces.ContentRepository, tx interfaces.TxManager, logger *zap.Logger) StoryBrowsingService {
	return &storyBrowsingServiceImpl{
		content: content,
		tx:      tx,
		logger:  logger.Named("StoryBrowsingService"),
	}
}

func (s *storyBrowsingServiceImpl) ListPublicStories(ctx context.Context, limit, offset int) ([]models.Story, error) {
	SanitizeLimit(&limit, defaultListLimit, maxListLimit)
	if offset < 0 {
		offset = 0
	}
	stories, err := s.content.ListPublicStories(ctx, s.tx.Querier(), limit, offset)
	if err != nil {
		return nil, internalError(s.logger, "Failed to list public stories", err)
	}
	if stories == nil {
		stories = []models.Story{}
	}
	return stories, nil
}

func (s *storyBrowsingServiceImpl) GetStoryStats(ctx context.Context, userID, storyID uuid.UUID) (*models.StoryStats, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("storyID", storyID.String()))
	story, err := s.content.GetStory(ctx, s.tx.Querier(), storyID)
	if err != nil {
		return nil, internalError(log, "Failed to get story", err)
	}
	if story.IsPrivate() && story.OwnerID != userID {
		log.Warn("Stats of private story requested by non-owner")
		return nil, fmt.Errorf("%w: stats of a private story are visible to its owner only", models.ErrForbidden)
	}
	stats := story.Stats()
	return &stats, nil
}
