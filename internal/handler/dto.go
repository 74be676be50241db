package handler

import (
	"net/http"
	"strings"
	"time"

	"quest-server/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// APIError - тело ответа с ошибкой.
type APIError struct {
	Message string `json:"message"`
}

// RequestValidator подключает validator/v10 к echo.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate реализует echo.Validator.
func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+" failed on '"+fe.Tag()+"'")
	}
	return "Invalid request: " + strings.Join(msgs, "; ")
}

type startSessionRequest struct {
	AccessCode string `json:"accessCode" validate:"max=256"`
}

// submitAnswerRequest: seed передается строкой, т.к. uint64 не помещается в число JSON.
type submitAnswerRequest struct {
	OptionID string `json:"optionId" validate:"required,uuid"`
	Seed     uint64 `json:"seed,string"`
}

type paginationQuery struct {
	Limit  int `query:"limit" validate:"gte=0,lte=100"`
	Offset int `query:"offset" validate:"gte=0"`
}

// storySummaryDTO - карточка истории в каталоге. Код доступа не отдается.
type storySummaryDTO struct {
	ID              uuid.UUID            `json:"id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	DifficultyLabel string               `json:"difficultyLabel"`
	Accessibility   models.Accessibility `json:"accessibility"`
	Stats           models.StoryStats    `json:"stats"`
	CreatedAt       time.Time            `json:"createdAt"`
}

func toStorySummaryDTO(s models.Story) storySummaryDTO {
	return storySummaryDTO{
		ID:              s.ID,
		Title:           s.Title,
		Description:     s.Description,
		DifficultyLabel: s.DifficultyLabel,
		Accessibility:   s.Accessibility,
		Stats:           s.Stats(),
		CreatedAt:       s.CreatedAt,
	}
}

type sessionDTO struct {
	ID         uuid.UUID           `json:"id"`
	StoryID    uuid.UUID           `json:"storyId"`
	State      models.SessionState `json:"state"`
	Score      int                 `json:"score"`
	MaxScore   int                 `json:"maxScore"`
	Level      int                 `json:"level"`
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt *time.Time          `json:"finishedAt,omitempty"`
}

func toSessionDTO(s models.PlayingSession) sessionDTO {
	return sessionDTO{
		ID:         s.ID,
		StoryID:    s.StoryID,
		State:      s.State(),
		Score:      s.Score,
		MaxScore:   s.MaxScore,
		Level:      s.Level,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}
