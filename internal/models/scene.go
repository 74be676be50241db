package models

import (
	"github.com/google/uuid"
)

// SceneType - дискриминант сцены.
// Совпадает с ENUM 'scene_type' в БД.
type SceneType string

const (
	SceneTypeIntro    SceneType = "intro"
	SceneTypeQuestion SceneType = "question"
	SceneTypeEnding   SceneType = "ending"
)

// EndingType - одна из трех концовок истории.
type EndingType string

const (
	EndingGood    EndingType = "good"
	EndingNeutral EndingType = "neutral"
	EndingBad     EndingType = "bad"
)

// IsValid проверяет, что значение - одна из известных концовок.
func (t EndingType) IsValid() bool {
	switch t {
	case EndingGood, EndingNeutral, EndingBad:
		return true
	}
	return false
}

// IntroScene - вступительная сцена, одна на историю.
type IntroScene struct {
	ID      uuid.UUID `json:"id" db:"id"`
	StoryID uuid.UUID `json:"storyId" db:"story_id"`
	Text    string    `json:"text" db:"text"`
}

// QuestionScene - сцена с вопросом. NextID == nil означает последний вопрос.
type QuestionScene struct {
	ID       uuid.UUID      `json:"id" db:"id"`
	StoryID  uuid.UUID      `json:"storyId" db:"story_id"`
	Text     string         `json:"text" db:"text"`
	Question string         `json:"question" db:"question"`
	NextID   *uuid.UUID     `json:"nextId,omitempty" db:"next_id"`
	Options  []AnswerOption `json:"options,omitempty" db:"-"`
}

// HasOption проверяет, что вариант ответа принадлежит сцене.
func (q *QuestionScene) HasOption(optionID uuid.UUID) bool {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return true
		}
	}
	return false
}

// EndingScene - финальная сцена определенного типа.
type EndingScene struct {
	ID      uuid.UUID  `json:"id" db:"id"`
	StoryID uuid.UUID  `json:"storyId" db:"story_id"`
	Type    EndingType `json:"type" db:"ending_type"`
	Text    string     `json:"text" db:"text"`
}

// AnswerOption - вариант ответа на вопрос.
type AnswerOption struct {
	ID              uuid.UUID `json:"id" db:"id"`
	QuestionSceneID uuid.UUID `json:"questionSceneId" db:"question_scene_id"`
	Text            string    `json:"text" db:"text"`
	Feedback        string    `json:"feedback" db:"feedback"`
	IsCorrect       bool      `json:"isCorrect" db:"is_correct"`
}

// Scene - размеченное объединение сцен. Заполнен ровно один вариант, соответствующий Type.
type Scene struct {
	Type     SceneType      `json:"type"`
	Intro    *IntroScene    `json:"intro,omitempty"`
	Question *QuestionScene `json:"question,omitempty"`
	Ending   *EndingScene   `json:"ending,omitempty"`
}

func NewIntroScene(s *IntroScene) Scene       { return Scene{Type: SceneTypeIntro, Intro: s} }
func NewQuestionScene(s *QuestionScene) Scene { return Scene{Type: SceneTypeQuestion, Question: s} }
func NewEndingScene(s *EndingScene) Scene     { return Scene{Type: SceneTypeEnding, Ending: s} }

// ID возвращает идентификатор активного варианта.
func (s Scene) ID() uuid.UUID {
	switch s.Type {
	case SceneTypeIntro:
		if s.Intro != nil {
			return s.Intro.ID
		}
	case SceneTypeQuestion:
		if s.Question != nil {
			return s.Question.ID
		}
	case SceneTypeEnding:
		if s.Ending != nil {
			return s.Ending.ID
		}
	}
	return uuid.Nil
}
