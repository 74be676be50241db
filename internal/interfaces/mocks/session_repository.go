package mocks

import (
	"context"
	"time"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// SessionRepository - мок interfaces.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

var _ interfaces.SessionRepository = (*SessionRepository)(nil)

func (m *SessionRepository) Create(ctx context.Context, _ interfaces.DBTX, session *models.PlayingSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *SessionRepository) GetByID(ctx context.Context, _ interfaces.DBTX, sessionID uuid.UUID) (*models.PlayingSession, error) {
	args := m.Called(ctx, sessionID)
	session, _ := args.Get(0).(*models.PlayingSession)
	return session, args.Error(1)
}

func (m *SessionRepository) Advance(ctx context.Context, _ interfaces.DBTX, sessionID, nextSceneID uuid.UUID, nextSceneType models.SceneType, score, level int) error {
	args := m.Called(ctx, sessionID, nextSceneID, nextSceneType, score, level)
	return args.Error(0)
}

func (m *SessionRepository) Finish(ctx context.Context, _ interfaces.DBTX, sessionID uuid.UUID, score, level int) error {
	args := m.Called(ctx, sessionID, score, level)
	return args.Error(0)
}

func (m *SessionRepository) ListByUser(ctx context.Context, _ interfaces.DBTX, userID uuid.UUID, limit int) ([]models.PlayingSession, error) {
	args := m.Called(ctx, userID, limit)
	sessions, _ := args.Get(0).([]models.PlayingSession)
	return sessions, args.Error(1)
}

// StoryStatsRepository - мок interfaces.StoryStatsRepository.
type StoryStatsRepository struct {
	mock.Mock
}

var _ interfaces.StoryStatsRepository = (*StoryStatsRepository)(nil)

func (m *StoryStatsRepository) IncrementPlayed(ctx context.Context, _ interfaces.DBTX, storyID uuid.UUID) error {
	return m.Called(ctx, storyID).Error(0)
}

func (m *StoryStatsRepository) IncrementFinished(ctx context.Context, _ interfaces.DBTX, storyID uuid.UUID) error {
	return m.Called(ctx, storyID).Error(0)
}

func (m *StoryStatsRepository) IncrementFailed(ctx context.Context, _ interfaces.DBTX, storyID uuid.UUID) error {
	return m.Called(ctx, storyID).Error(0)
}

// PendingTransitionRepository - мок interfaces.PendingTransitionRepository.
type PendingTransitionRepository struct {
	mock.Mock
}

var _ interfaces.PendingTransitionRepository = (*PendingTransitionRepository)(nil)

func (m *PendingTransitionRepository) Save(ctx context.Context, pending *models.PendingTransition, ttl time.Duration) error {
	return m.Called(ctx, pending, ttl).Error(0)
}

func (m *PendingTransitionRepository) Get(ctx context.Context, sessionID uuid.UUID) (*models.PendingTransition, error) {
	args := m.Called(ctx, sessionID)
	pending, _ := args.Get(0).(*models.PendingTransition)
	return pending, args.Error(1)
}

func (m *PendingTransitionRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	return m.Called(ctx, sessionID).Error(0)
}
