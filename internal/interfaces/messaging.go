package interfaces

import (
	"context"

	"quest-server/internal/models"
)

// SessionEventPublisher публикует события жизненного цикла прохождения.
type SessionEventPublisher interface {
	PublishSessionEvent(ctx context.Context, event models.SessionEvent) error
}
