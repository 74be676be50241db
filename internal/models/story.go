package models

import (
	"time"

	"github.com/google/uuid"
)

// Accessibility определяет, кто может начать прохождение истории.
type Accessibility string

const (
	AccessibilityPublic  Accessibility = "public"  // Доступна всем
	AccessibilityPrivate Accessibility = "private" // Требуется код доступа
)

// Story - опубликованная учебная история со счетчиками прохождений.
// Счетчики меняет только игровой движок.
type Story struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	OwnerID         uuid.UUID     `json:"ownerId" db:"owner_id"`
	Title           string        `json:"title" db:"title"`
	Description     string        `json:"description" db:"description"`
	DifficultyLabel string        `json:"difficultyLabel" db:"difficulty_label"` // Только для отображения
	Accessibility   Accessibility `json:"accessibility" db:"accessibility"`
	AccessCode      *string       `json:"-" db:"access_code"`
	PlayedCount     int           `json:"playedCount" db:"played_count"`
	FinishedCount   int           `json:"finishedCount" db:"finished_count"`
	FailedCount     int           `json:"failedCount" db:"failed_count"`
	CreatedAt       time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time     `json:"updatedAt" db:"updated_at"`
}

// IsPrivate сообщает, требуется ли код доступа.
func (s *Story) IsPrivate() bool {
	return s.Accessibility == AccessibilityPrivate
}

// DidNotFinish - количество начатых, но не завершенных прохождений.
func (s *Story) DidNotFinish() int {
	n := s.PlayedCount - s.FinishedCount - s.FailedCount
	if n < 0 {
		return 0
	}
	return n
}

// StoryStats - счетчики истории для публичного API.
type StoryStats struct {
	StoryID      uuid.UUID `json:"storyId"`
	Played       int       `json:"played"`
	Finished     int       `json:"finished"`
	Failed       int       `json:"failed"`
	DidNotFinish int       `json:"didNotFinish"`
}

// Stats собирает StoryStats из счетчиков истории.
func (s *Story) Stats() StoryStats {
	return StoryStats{
		StoryID:      s.ID,
		Played:       s.PlayedCount,
		Finished:     s.FinishedCount,
		Failed:       s.FailedCount,
		DidNotFinish: s.DidNotFinish(),
	}
}
