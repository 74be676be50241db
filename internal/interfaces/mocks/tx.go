package mocks

import (
	"context"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// TxManager выполняет fn без реальной БД и считает коммиты и откаты.
type TxManager struct {
	Commits   int
	Rollbacks int
}

var _ interfaces.TxManager = (*TxManager)(nil)

func (m *TxManager) WithTx(ctx context.Context, fn func(tx interfaces.DBTX) error) error {
	if err := fn(nil); err != nil {
		m.Rollbacks++
		return err
	}
	m.Commits++
	return nil
}

func (m *TxManager) Querier() interfaces.DBTX {
	return nil
}

// SessionEventPublisher - мок interfaces.SessionEventPublisher.
type SessionEventPublisher struct {
	mock.Mock
}

var _ interfaces.SessionEventPublisher = (*SessionEventPublisher)(nil)

func (m *SessionEventPublisher) PublishSessionEvent(ctx context.Context, event models.SessionEvent) error {
	return m.Called(ctx, event).Error(0)
}
