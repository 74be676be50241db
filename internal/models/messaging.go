package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionEventType - тип события жизненного цикла прохождения.
type SessionEventType string

const (
	SessionEventStarted  SessionEventType = "session_started"
	SessionEventFailed   SessionEventType = "session_failed"   // Неверный ответ на уровне 1
	SessionEventFinished SessionEventType = "session_finished" // Концовка подтверждена
)

// SessionEvent отправляется в очередь после фиксации перехода в БД.
type SessionEvent struct {
	Type       SessionEventType `json:"type"`
	SessionID  uuid.UUID        `json:"sessionId"`
	StoryID    uuid.UUID        `json:"storyId"`
	UserID     uuid.UUID        `json:"userId"`
	Score      int              `json:"score"`
	MaxScore   int              `json:"maxScore"`
	Ending     *EndingType      `json:"ending,omitempty"`
	OccurredAt time.Time        `json:"occurredAt"`
}
