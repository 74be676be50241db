package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionState - состояние машины прохождения истории.
type SessionState string

const (
	SessionStateIntro    SessionState = "intro"
	SessionStateQuestion SessionState = "question"
	SessionStateFeedback SessionState = "feedback" // Ответ дан, ждем подтверждения
	SessionStateEnding   SessionState = "ending"
	SessionStateFinished SessionState = "finished"
)

// Границы уровня сложности. 3 - больше всего вариантов и очков.
const (
	MinLevel     = 1
	MaxLevel     = 3
	InitialLevel = MaxLevel

	// PointsPerQuestion - максимум очков за один вопрос.
	PointsPerQuestion = 10
)

// PlayingSession - прохождение истории конкретным игроком.
// После FinishedAt запись больше не меняется.
type PlayingSession struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	StoryID          uuid.UUID  `json:"storyId" db:"story_id"`
	UserID           uuid.UUID  `json:"userId" db:"user_id"`
	StartedAt        time.Time  `json:"startedAt" db:"started_at"`
	Score            int        `json:"score" db:"score"`
	MaxScore         int        `json:"maxScore" db:"max_score"`
	Level            int        `json:"level" db:"level"`
	CurrentSceneID   uuid.UUID  `json:"currentSceneId" db:"current_scene_id"`
	CurrentSceneType SceneType  `json:"currentSceneType" db:"current_scene_type"`
	FinishedAt       *time.Time `json:"finishedAt,omitempty" db:"finished_at"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsFinished сообщает, завершено ли прохождение.
func (s *PlayingSession) IsFinished() bool {
	return s.FinishedAt != nil
}

// State вычисляет долговременное состояние сессии.
// Feedback не хранится в сессии: он определяется наличием PendingTransition.
func (s *PlayingSession) State() SessionState {
	if s.IsFinished() {
		return SessionStateFinished
	}
	switch s.CurrentSceneType {
	case SceneTypeIntro:
		return SessionStateIntro
	case SceneTypeQuestion:
		return SessionStateQuestion
	case SceneTypeEnding:
		return SessionStateEnding
	}
	return ""
}

// PendingTransition - промежуточный результат ответа между Question и Feedback.
// Живет недолго, хранится вне сессии и перед применением полностью перепроверяется.
type PendingTransition struct {
	SessionID       uuid.UUID  `json:"sessionId"`
	QuestionSceneID uuid.UUID  `json:"questionSceneId"`
	OptionID        uuid.UUID  `json:"optionId"`
	IsCorrect       bool       `json:"isCorrect"`
	PointsEarned    int        `json:"pointsEarned"`
	Score           int        `json:"score"`
	Level           int        `json:"level"`
	Feedback        string     `json:"feedback"`
	NextSceneID     *uuid.UUID `json:"nextSceneId,omitempty"` // nil - дальше концовка
	CreatedAt       time.Time  `json:"createdAt"`
}

// SceneView - то, что показывается игроку в текущем состоянии.
type SceneView struct {
	SessionID uuid.UUID    `json:"sessionId"`
	State     SessionState `json:"state"`
	Score     int          `json:"score"`
	MaxScore  int          `json:"maxScore"`
	Level     int          `json:"level"`

	Intro    *IntroScene     `json:"intro,omitempty"`
	Question *QuestionView   `json:"question,omitempty"`
	Feedback *FeedbackView   `json:"feedback,omitempty"`
	Ending   *EndingScene    `json:"ending,omitempty"`
	Summary  *SessionSummary `json:"summary,omitempty"`
}

// QuestionView - вопрос с отобранными вариантами. Seed нужно вернуть вместе с ответом.
type QuestionView struct {
	SceneID  uuid.UUID    `json:"sceneId"`
	Text     string       `json:"text"`
	Question string       `json:"question"`
	Options  []OptionView `json:"options"`
	Seed     uint64       `json:"seed,string"`
}

// OptionView - вариант ответа без признака правильности.
type OptionView struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

// FeedbackView - реакция на выбранный ответ.
type FeedbackView struct {
	OptionID     uuid.UUID `json:"optionId"`
	IsCorrect    bool      `json:"isCorrect"`
	PointsEarned int       `json:"pointsEarned"`
	Text         string    `json:"text"`
	IsLast       bool      `json:"isLast"`
}

// AnswerResult - результат SubmitAnswer.
// Если Finished == true, сессия завершена досрочно: Feedback пуст, Summary заполнен.
type AnswerResult struct {
	Feedback *FeedbackView   `json:"feedback,omitempty"`
	Finished bool            `json:"finished"`
	Summary  *SessionSummary `json:"summary,omitempty"`
}

// SessionSummary - итог завершенного прохождения.
type SessionSummary struct {
	SessionID  uuid.UUID   `json:"sessionId"`
	StoryID    uuid.UUID   `json:"storyId"`
	StoryTitle string      `json:"storyTitle"`
	Score      int         `json:"score"`
	MaxScore   int         `json:"maxScore"`
	Percentage int         `json:"percentage"`
	Ending     *EndingType `json:"ending,omitempty"`
	Failed     bool        `json:"failed"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
}
