package handler

import (
	"errors"
	"net/http"
	"strconv"

	"quest-server/internal/models"
	"quest-server/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// QuestHandler обрабатывает HTTP запросы игроков.
type QuestHandler struct {
	playing  service.PlayingService
	browsing service.StoryBrowsingService
	verifier TokenVerifier
	logger   *zap.Logger
}

func NewQuestHandler(playing service.PlayingService, browsing service.StoryBrowsingService, verifier TokenVerifier, logger *zap.Logger) *QuestHandler {
	return &QuestHandler{
		playing:  playing,
		browsing: browsing,
		verifier: verifier,
		logger:   logger.Named("QuestHandler"),
	}
}

// RegisterRoutes регистрирует маршруты. /health и /metrics доступны без токена.
func (h *QuestHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authMiddleware := AuthMiddleware(h.verifier, h.logger)

	stories := e.Group("/stories", authMiddleware)
	{
		stories.GET("", h.listPublicStories)
		stories.GET("/:id/stats", h.getStoryStats)
		stories.POST("/:id/sessions", h.startSession)
	}

	sessions := e.Group("/sessions", authMiddleware)
	{
		sessions.GET("", h.listMySessions)
		sessions.GET("/:id/scene", h.getCurrentScene)
		sessions.POST("/:id/intro/ack", h.acknowledgeIntro)
		sessions.POST("/:id/answer", h.submitAnswer)
		sessions.POST("/:id/feedback/ack", h.acknowledgeFeedback)
		sessions.POST("/:id/ending/ack", h.acknowledgeEnding)
		sessions.GET("/:id/summary", h.getSummary)
	}
}

// --- Вспомогательные функции --- //

func getUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, models.ErrUnauthorized
	}
	return userID, nil
}

func (h *QuestHandler) parseIDParam(c echo.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid ID format in path", zap.String("id", idStr), zap.String("path", c.Path()))
		return uuid.Nil, false
	}
	return id, true
}

// bindAndValidate разбирает тело или query и проверяет теги validate.
// Возвращаемая ошибка содержит сообщение для клиента.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.New("Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if msg, ok := he.Message.(string); ok {
				return errors.New(msg)
			}
		}
		return err
	}
	return nil
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, APIError{Message: msg})
}

func handleServiceError(c echo.Context, err error) error {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrTokenInvalid),
		errors.Is(err, models.ErrTokenMalformed),
		errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		apiErr = APIError{Message: "Unauthorized"}
	case errors.Is(err, models.ErrInvalidCode):
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: "Invalid access code"}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: "Access denied"}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: "Resource not found"}
	case errors.Is(err, models.ErrInvalidState):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrBadRequest), errors.Is(err, models.ErrInvalidArgument):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	default:
		// Ошибки целостности контента и прочие внутренние наружу не раскрываются.
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}
	return c.JSON(statusCode, apiErr)
}

// --- Каталог историй --- //

func (h *QuestHandler) listPublicStories(c echo.Context) error {
	var q paginationQuery
	if err := bindAndValidate(c, &q); err != nil {
		return badRequest(c, err.Error())
	}
	stories, err := h.browsing.ListPublicStories(c.Request().Context(), q.Limit, q.Offset)
	if err != nil {
		return handleServiceError(c, err)
	}
	data := make([]storySummaryDTO, 0, len(stories))
	for _, s := range stories {
		data = append(data, toStorySummaryDTO(s))
	}
	return c.JSON(http.StatusOK, listResponse[storySummaryDTO]{Data: data})
}

func (h *QuestHandler) getStoryStats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	storyID, ok := h.parseIDParam(c)
	if !ok {
		return badRequest(c, "Invalid story ID format")
	}
	stats, err := h.browsing.GetStoryStats(c.Request().Context(), userID, storyID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// --- Прохождение --- //

func (h *QuestHandler) startSession(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	storyID, ok := h.parseIDParam(c)
	if !ok {
		return badRequest(c, "Invalid story ID format")
	}
	var req startSessionRequest
	// Пустое тело допустимо для публичных историй.
	if c.Request().ContentLength != 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return badRequest(c, err.Error())
		}
	}

	session, err := h.playing.StartSession(c.Request().Context(), userID, storyID, req.AccessCode)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toSessionDTO(*session))
}

func (h *QuestHandler) listMySessions(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	var q paginationQuery
	if err := bindAndValidate(c, &q); err != nil {
		return badRequest(c, err.Error())
	}
	sessions, err := h.playing.ListMySessions(c.Request().Context(), userID, q.Limit)
	if err != nil {
		return handleServiceError(c, err)
	}
	data := make([]sessionDTO, 0, len(sessions))
	for _, s := range sessions {
		data = append(data, toSessionDTO(s))
	}
	return c.JSON(http.StatusOK, listResponse[sessionDTO]{Data: data})
}

func (h *QuestHandler) getCurrentScene(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	sessionID, ok := h.parseIDParam(c)
	if !ok {
		return badRequest(c, "Invalid session ID format")
	}

	var seed *uint64
	if raw := c.QueryParam("seed"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return badRequest(c, "Invalid seed")
		}
		seed = &parsed
	}

	view, err := h.playing.GetCurrentScene(c.Request().Context(), userID, sessionID, seed)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *QuestHandler) acknowledgeIntro(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	sessionID, ok := h.parseIDParam(c)
	if !ok {
		return badRequest(c, "Invalid session ID format")
	}
	view, err := h.playing.AcknowledgeIntro(c.Request().Context(), userID, sessionID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *QuestHandler) submitAnswer(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	sessionID, ok := h.parseIDParam(c)
	if !ok {
		return badRequest(c, "Invalid session ID format")
	}
	var req submitAnswerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	optionID := uuid.MustParse(req.OptionID)

	result, err := h.playing.SubmitAnswer(c.Request().Context(), userID, sessionID, optionID, req.Seed)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *QuestHandler) acknowledgeFeedback(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	sessionID, ok := h.parseIDParam(c)
	if !ok {
		return badRequest(c, "Invalid session ID format")
	}
	view, err := h.playing.AcknowledgeFeedback(c.Request().Context(), userID, sessionID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *QuestHandler) acknowledgeEnding(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	sessionID, ok := h.parseIDParam(c)
	if !ok {
		return badRequest(c, "Invalid session ID format")
	}
	summary, err := h.playing.AcknowledgeEnding(c.Request().Context(), userID, sessionID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *QuestHandler) getSummary(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	sessionID, ok := h.parseIDParam(c)
	if !ok {
		return badRequest(c, "Invalid session ID format")
	}
	summary, err := h.playing.GetSummary(c.Request().Context(), userID, sessionID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
