package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"quest-server/internal/engine"
	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlayingService - машина состояний прохождения истории.
//
// Intro -> Question -> Feedback -> (Question | Ending) -> Finished.
// Неверный ответ на уровне 1 завершает прохождение сразу из Question.
type PlayingService interface {
	StartSession(ctx context.Context, userID, storyID uuid.UUID, accessCode string) (*models.PlayingSession, error)
	GetCurrentScene(ctx context.Context, userID, sessionID uuid.UUID, seed *uint64) (*models.SceneView, error)
	AcknowledgeIntro(ctx context.Context, userID, sessionID uuid.UUID) (*models.SceneView, error)
	SubmitAnswer(ctx context.Context, userID, sessionID, optionID uuid.UUID, seed uint64) (*models.AnswerResult, error)
	AcknowledgeFeedback(ctx context.Context, userID, sessionID uuid.UUID) (*models.SceneView, error)
	AcknowledgeEnding(ctx context.Context, userID, sessionID uuid.UUID) (*models.SessionSummary, error)
	GetSummary(ctx context.Context, userID, sessionID uuid.UUID) (*models.SessionSummary, error)
	ListMySessions(ctx context.Context, userID uuid.UUID, limit int) ([]models.PlayingSession, error)
}

// PlayingOptions - настраиваемые правила прохождения.
type PlayingOptions struct {
	PendingTTL  time.Duration
	CodeMatch   engine.CodeMatchMode
	EndingBands engine.EndingBands
}

// DefaultPlayingOptions возвращает значения, совпадающие с умолчаниями конфигурации.
func DefaultPlayingOptions() PlayingOptions {
	return PlayingOptions{
		PendingTTL:  15 * time.Minute,
		CodeMatch:   engine.CodeMatchFold,
		EndingBands: engine.DefaultEndingBands,
	}
}

type playingServiceImpl struct {
	content   interfaces.ContentRepository
	sessions  interfaces.SessionRepository
	stats     interfaces.StoryStatsRepository
	pending   interfaces.PendingTransitionRepository
	tx        interfaces.TxManager
	publisher interfaces.SessionEventPublisher
	opts      PlayingOptions
	logger    *zap.Logger
	now       func() time.Time
}

// NewPlayingService создает сервис прохождения. publisher может быть nil.
func NewPlayingService(
	content interfaces.ContentRepository,
	sessions interfaces.SessionRepository,
	stats interfaces.StoryStatsRepository,
	pending interfaces.PendingTransitionRepository,
	tx interfaces.TxManager,
	publisher interfaces.SessionEventPublisher,
	opts PlayingOptions,
	logger *zap.Logger,
) PlayingService {
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = DefaultPlayingOptions().PendingTTL
	}
	if opts.CodeMatch == "" {
		opts.CodeMatch = engine.CodeMatchFold
	}
	if opts.EndingBands.Validate() != nil {
		opts.EndingBands = engine.DefaultEndingBands
	}
	return &playingServiceImpl{
		content:   content,
		sessions:  sessions,
		stats:     stats,
		pending:   pending,
		tx:        tx,
		publisher: publisher,
		opts:      opts,
		logger:    logger.Named("PlayingService"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// StartSession создает прохождение, позиционированное на вступлении.
// Счетчик played и создание сессии выполняются в одной транзакции.
func (s *playingServiceImpl) StartSession(ctx context.Context, userID, storyID uuid.UUID, accessCode string) (*models.PlayingSession, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("storyID", storyID.String()))
	q := s.tx.Querier()

	story, err := s.content.GetStory(ctx, q, storyID)
	if err != nil {
		return nil, internalError(log, "Failed to get story", err)
	}
	if err := s.opts.CodeMatch.CheckAccess(story, accessCode); err != nil {
		log.Warn("Access code rejected")
		return nil, err
	}
	intro, err := s.content.GetIntroScene(ctx, q, storyID)
	if err != nil {
		return nil, internalError(log, "Failed to get intro scene", err)
	}
	questionCount, err := s.content.GetQuestionCount(ctx, q, storyID)
	if err != nil {
		return nil, internalError(log, "Failed to count questions", err)
	}

	now := s.now()
	session := &models.PlayingSession{
		ID:               uuid.New(),
		StoryID:          storyID,
		UserID:           userID,
		StartedAt:        now,
		Score:            0,
		MaxScore:         engine.MaxScore(questionCount),
		Level:            models.InitialLevel,
		CurrentSceneID:   intro.ID,
		CurrentSceneType: models.SceneTypeIntro,
		UpdatedAt:        now,
	}

	err = s.tx.WithTx(ctx, func(tx interfaces.DBTX) error {
		if err := s.stats.IncrementPlayed(ctx, tx, storyID); err != nil {
			return fmt.Errorf("increment played: %w", err)
		}
		if err := s.sessions.Create(ctx, tx, session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, internalError(log, "Failed to start session", err)
	}

	sessionsStartedTotal.Inc()
	log.Info("Session started", zap.String("sessionID", session.ID.String()), zap.Int("maxScore", session.MaxScore))
	s.publish(ctx, session, models.SessionEventStarted, nil)
	return session, nil
}

// GetCurrentScene возвращает представление текущего состояния.
// Если seed не передан, для вопроса выбирается новый.
func (s *playingServiceImpl) GetCurrentScene(ctx context.Context, userID, sessionID uuid.UUID, seed *uint64) (*models.SceneView, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("sessionID", sessionID.String()))
	session, err := s.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, internalError(log, "Failed to load session", err)
	}
	view, err := s.sceneView(ctx, session, seed)
	if err != nil {
		return nil, internalError(log, "Failed to build scene view", err)
	}
	return view, nil
}

// AcknowledgeIntro переводит сессию на первый вопрос истории.
func (s *playingServiceImpl) AcknowledgeIntro(ctx context.Context, userID, sessionID uuid.UUID) (*models.SceneView, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("sessionID", sessionID.String()))
	session, err := s.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, internalError(log, "Failed to load session", err)
	}
	if session.State() != models.SessionStateIntro {
		log.Warn("Intro acknowledged in wrong state", zap.String("state", string(session.State())))
		return nil, fmt.Errorf("%w: session is in state %s", models.ErrInvalidState, session.State())
	}

	first, err := s.content.GetFirstQuestionScene(ctx, s.tx.Querier(), session.StoryID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			err = fmt.Errorf("%w: story %s has no questions", models.ErrMissingContent, session.StoryID)
		}
		return nil, internalError(log, "Failed to get first question", err)
	}

	if err := s.advance(ctx, session, first.ID, models.SceneTypeQuestion, session.Score, session.Level); err != nil {
		return nil, internalError(log, "Failed to advance session to first question", err)
	}
	log.Info("Intro acknowledged", zap.String("questionID", first.ID.String()))

	view, err := s.sceneView(ctx, session, nil)
	if err != nil {
		return nil, internalError(log, "Failed to build scene view", err)
	}
	return view, nil
}

// SubmitAnswer применяет ответ к текущему вопросу.
// Обычно результат откладывается до подтверждения; неверный ответ на уровне 1 завершает прохождение.
func (s *playingServiceImpl) SubmitAnswer(ctx context.Context, userID, sessionID, optionID uuid.UUID, seed uint64) (*models.AnswerResult, error) {
	log := s.logger.With(
		zap.String("userID", userID.String()),
		zap.String("sessionID", sessionID.String()),
		zap.String("optionID", optionID.String()),
	)
	session, err := s.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, internalError(log, "Failed to load session", err)
	}
	if session.State() != models.SessionStateQuestion {
		log.Warn("Answer submitted in wrong state", zap.String("state", string(session.State())))
		return nil, fmt.Errorf("%w: session is in state %s", models.ErrInvalidState, session.State())
	}

	staged, err := s.currentPending(ctx, session)
	if err != nil {
		return nil, internalError(log, "Failed to check pending answer", err)
	}
	if staged != nil {
		log.Warn("Answer already submitted for current question")
		return nil, fmt.Errorf("%w: answer for the current question awaits acknowledgement", models.ErrInvalidState)
	}

	q := s.tx.Querier()
	question, err := s.loadQuestion(ctx, q, session.CurrentSceneID)
	if err != nil {
		return nil, internalError(log, "Failed to get question scene", err)
	}
	option, err := s.presentedOption(question, session.Level, optionID, seed)
	if err != nil {
		log.Warn("Rejected answer option", zap.Error(err))
		return nil, err
	}

	outcome := engine.ScoreAndLevel(session.Level, option.IsCorrect)
	score := session.Score + outcome.PointsEarned
	answersTotal.WithLabelValues(answerResultLabel(option.IsCorrect), strconv.Itoa(session.Level)).Inc()

	if outcome.Terminated {
		err := s.tx.WithTx(ctx, func(tx interfaces.DBTX) error {
			if err := s.finish(ctx, tx, session, score, outcome.NewLevel); err != nil {
				return err
			}
			if err := s.stats.IncrementFailed(ctx, tx, session.StoryID); err != nil {
				return fmt.Errorf("increment failed: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, internalError(log, "Failed to finish failed session", err)
		}
		sessionsFailedTotal.Inc()
		log.Info("Session failed at lowest level", zap.Int("score", score))
		s.publish(ctx, session, models.SessionEventFailed, nil)

		summary, err := s.summary(ctx, session)
		if err != nil {
			return nil, internalError(log, "Failed to build summary", err)
		}
		return &models.AnswerResult{Finished: true, Summary: summary}, nil
	}

	next, err := s.content.GetNextQuestionScene(ctx, q, question.ID)
	if err != nil {
		return nil, internalError(log, "Failed to resolve next question", err)
	}
	pending := &models.PendingTransition{
		SessionID:       session.ID,
		QuestionSceneID: question.ID,
		OptionID:        option.ID,
		IsCorrect:       option.IsCorrect,
		PointsEarned:    outcome.PointsEarned,
		Score:           score,
		Level:           outcome.NewLevel,
		Feedback:        option.Feedback,
		CreatedAt:       s.now(),
	}
	if next != nil {
		pending.NextSceneID = &next.ID
	}
	if err := s.pending.Save(ctx, pending, s.opts.PendingTTL); err != nil {
		return nil, internalError(log, "Failed to stage answer", err)
	}

	log.Info("Answer staged",
		zap.Bool("correct", option.IsCorrect),
		zap.Int("points", outcome.PointsEarned),
		zap.Int("newLevel", outcome.NewLevel),
	)
	return &models.AnswerResult{Feedback: feedbackView(pending)}, nil
}

// AcknowledgeFeedback фиксирует отложенный ответ и переводит сессию на следующий вопрос или концовку.
// Отложенный ответ перепроверяется по текущему состоянию сессии и контента.
func (s *playingServiceImpl) AcknowledgeFeedback(ctx context.Context, userID, sessionID uuid.UUID) (*models.SceneView, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("sessionID", sessionID.String()))
	session, err := s.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, internalError(log, "Failed to load session", err)
	}
	if session.State() != models.SessionStateQuestion {
		log.Warn("Feedback acknowledged in wrong state", zap.String("state", string(session.State())))
		return nil, fmt.Errorf("%w: session is in state %s", models.ErrInvalidState, session.State())
	}

	staged, err := s.currentPending(ctx, session)
	if err != nil {
		return nil, internalError(log, "Failed to get pending answer", err)
	}
	if staged == nil {
		log.Warn("No pending answer to acknowledge")
		return nil, fmt.Errorf("%w: no answer awaits acknowledgement", models.ErrInvalidState)
	}

	q := s.tx.Querier()
	question, err := s.loadQuestion(ctx, q, session.CurrentSceneID)
	if err != nil {
		return nil, internalError(log, "Failed to get question scene", err)
	}
	option := findOption(question.Options, staged.OptionID)
	if option == nil {
		s.dropPending(ctx, log, session.ID)
		log.Warn("Pending answer refers to an option outside the current question", zap.String("optionID", staged.OptionID.String()))
		return nil, fmt.Errorf("%w: staged answer is no longer valid", models.ErrInvalidState)
	}

	outcome := engine.ScoreAndLevel(session.Level, option.IsCorrect)
	if outcome.Terminated {
		s.dropPending(ctx, log, session.ID)
		return nil, fmt.Errorf("%w: staged answer is no longer valid", models.ErrInvalidState)
	}
	score := session.Score + outcome.PointsEarned
	if score != staged.Score || outcome.NewLevel != staged.Level {
		log.Warn("Pending answer disagrees with recomputed outcome, using recomputed values",
			zap.Int("stagedScore", staged.Score), zap.Int("score", score),
			zap.Int("stagedLevel", staged.Level), zap.Int("level", outcome.NewLevel))
	}

	next, err := s.content.GetNextQuestionScene(ctx, q, question.ID)
	if err != nil {
		return nil, internalError(log, "Failed to resolve next question", err)
	}

	if next != nil {
		if err := s.advance(ctx, session, next.ID, models.SceneTypeQuestion, score, outcome.NewLevel); err != nil {
			return nil, internalError(log, "Failed to advance session to next question", err)
		}
		log.Info("Feedback acknowledged, moved to next question", zap.String("questionID", next.ID.String()))
	} else {
		endingType, err := s.opts.EndingBands.Resolve(score, session.MaxScore)
		if err != nil {
			return nil, internalError(log, "Failed to resolve ending", err)
		}
		ending, err := s.content.GetEndingScene(ctx, q, session.StoryID, endingType)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				err = fmt.Errorf("%w: story %s has no %s ending", models.ErrMissingContent, session.StoryID, endingType)
			}
			return nil, internalError(log, "Failed to get ending scene", err)
		}
		if err := s.advance(ctx, session, ending.ID, models.SceneTypeEnding, score, outcome.NewLevel); err != nil {
			return nil, internalError(log, "Failed to advance session to ending", err)
		}
		endingsReachedTotal.WithLabelValues(string(endingType)).Inc()
		log.Info("Feedback acknowledged, moved to ending", zap.String("ending", string(endingType)), zap.Int("score", score))
	}
	s.dropPending(ctx, log, session.ID)

	view, err := s.sceneView(ctx, session, nil)
	if err != nil {
		return nil, internalError(log, "Failed to build scene view", err)
	}
	return view, nil
}

// AcknowledgeEnding завершает прохождение. Повторный вызов возвращает ErrInvalidState.
func (s *playingServiceImpl) AcknowledgeEnding(ctx context.Context, userID, sessionID uuid.UUID) (*models.SessionSummary, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("sessionID", sessionID.String()))
	session, err := s.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, internalError(log, "Failed to load session", err)
	}
	if session.State() != models.SessionStateEnding {
		log.Warn("Ending acknowledged in wrong state", zap.String("state", string(session.State())))
		return nil, fmt.Errorf("%w: session is in state %s", models.ErrInvalidState, session.State())
	}

	err = s.tx.WithTx(ctx, func(tx interfaces.DBTX) error {
		if err := s.finish(ctx, tx, session, session.Score, session.Level); err != nil {
			return err
		}
		if err := s.stats.IncrementFinished(ctx, tx, session.StoryID); err != nil {
			return fmt.Errorf("increment finished: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, internalError(log, "Failed to finish session", err)
	}

	summary, err := s.summary(ctx, session)
	if err != nil {
		return nil, internalError(log, "Failed to build summary", err)
	}
	sessionsFinishedTotal.Inc()
	log.Info("Session finished", zap.Int("score", session.Score), zap.Int("maxScore", session.MaxScore))
	s.publish(ctx, session, models.SessionEventFinished, summary.Ending)
	return summary, nil
}

// GetSummary возвращает итог завершенного прохождения.
func (s *playingServiceImpl) GetSummary(ctx context.Context, userID, sessionID uuid.UUID) (*models.SessionSummary, error) {
	log := s.logger.With(zap.String("userID", userID.String()), zap.String("sessionID", sessionID.String()))
	session, err := s.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, internalError(log, "Failed to load session", err)
	}
	if !session.IsFinished() {
		return nil, fmt.Errorf("%w: session is not finished", models.ErrInvalidState)
	}
	summary, err := s.summary(ctx, session)
	if err != nil {
		return nil, internalError(log, "Failed to build summary", err)
	}
	return summary, nil
}

// ListMySessions возвращает последние прохождения игрока.
func (s *playingServiceImpl) ListMySessions(ctx context.Context, userID uuid.UUID, limit int) ([]models.PlayingSession, error) {
	SanitizeLimit(&limit, defaultListLimit, maxListLimit)
	sessions, err := s.sessions.ListByUser(ctx, s.tx.Querier(), userID, limit)
	if err != nil {
		return nil, internalError(s.logger.With(zap.String("userID", userID.String())), "Failed to list sessions", err)
	}
	if sessions == nil {
		sessions = []models.PlayingSession{}
	}
	return sessions, nil
}

// --- helpers ---

// loadSession загружает сессию и проверяет, что она принадлежит userID.
func (s *playingServiceImpl) loadSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.PlayingSession, error) {
	session, err := s.sessions.GetByID(ctx, s.tx.Querier(), sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, fmt.Errorf("%w: session belongs to another user", models.ErrForbidden)
	}
	return session, nil
}

func (s *playingServiceImpl) loadQuestion(ctx context.Context, q interfaces.DBTX, sceneID uuid.UUID) (*models.QuestionScene, error) {
	question, err := s.content.GetQuestionSceneWithOptions(ctx, q, sceneID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: question scene %s", models.ErrMissingContent, sceneID)
		}
		return nil, err
	}
	return question, nil
}

// presentedOption проверяет, что вариант принадлежит вопросу и был показан игроку для данного seed.
func (s *playingServiceImpl) presentedOption(question *models.QuestionScene, level int, optionID uuid.UUID, seed uint64) (*models.AnswerOption, error) {
	option := findOption(question.Options, optionID)
	if option == nil {
		return nil, fmt.Errorf("%w: option %s does not belong to the current question", models.ErrBadRequest, optionID)
	}
	visible, err := engine.SelectOptions(question.Options, level, seed)
	if err != nil {
		return nil, err
	}
	if findOption(visible, optionID) == nil {
		return nil, models.ErrOptionNotPresented
	}
	return option, nil
}

// currentPending возвращает отложенный ответ на текущий вопрос.
// Отложенный ответ на другой вопрос считается устаревшим и удаляется.
func (s *playingServiceImpl) currentPending(ctx context.Context, session *models.PlayingSession) (*models.PendingTransition, error) {
	if session.State() != models.SessionStateQuestion {
		return nil, nil
	}
	pending, err := s.pending.Get(ctx, session.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if pending.SessionID != session.ID || pending.QuestionSceneID != session.CurrentSceneID {
		s.dropPending(ctx, s.logger.With(zap.String("sessionID", session.ID.String())), session.ID)
		return nil, nil
	}
	return pending, nil
}

func (s *playingServiceImpl) dropPending(ctx context.Context, log *zap.Logger, sessionID uuid.UUID) {
	if err := s.pending.Delete(ctx, sessionID); err != nil {
		log.Warn("Failed to delete pending answer", zap.Error(err))
	}
}

// advance сохраняет новую позицию и обновляет session на месте.
func (s *playingServiceImpl) advance(ctx context.Context, session *models.PlayingSession, sceneID uuid.UUID, sceneType models.SceneType, score, level int) error {
	err := s.sessions.Advance(ctx, s.tx.Querier(), session.ID, sceneID, sceneType, score, level)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: session is already finished", models.ErrInvalidState)
		}
		return err
	}
	session.CurrentSceneID = sceneID
	session.CurrentSceneType = sceneType
	session.Score = score
	session.Level = level
	session.UpdatedAt = s.now()
	return nil
}

// finish помечает сессию завершенной в рамках транзакции tx.
func (s *playingServiceImpl) finish(ctx context.Context, tx interfaces.DBTX, session *models.PlayingSession, score, level int) error {
	if err := s.sessions.Finish(ctx, tx, session.ID, score, level); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: session is already finished", models.ErrInvalidState)
		}
		return fmt.Errorf("finish session: %w", err)
	}
	finishedAt := s.now()
	session.Score = score
	session.Level = level
	session.FinishedAt = &finishedAt
	session.UpdatedAt = finishedAt
	return nil
}

func (s *playingServiceImpl) sceneView(ctx context.Context, session *models.PlayingSession, seed *uint64) (*models.SceneView, error) {
	q := s.tx.Querier()
	view := &models.SceneView{
		SessionID: session.ID,
		State:     session.State(),
		Score:     session.Score,
		MaxScore:  session.MaxScore,
		Level:     session.Level,
	}

	switch view.State {
	case models.SessionStateFinished:
		summary, err := s.summary(ctx, session)
		if err != nil {
			return nil, err
		}
		view.Summary = summary

	case models.SessionStateIntro:
		intro, err := s.content.GetIntroScene(ctx, q, session.StoryID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, fmt.Errorf("%w: intro scene of story %s", models.ErrMissingContent, session.StoryID)
			}
			return nil, err
		}
		view.Intro = intro

	case models.SessionStateQuestion:
		staged, err := s.currentPending(ctx, session)
		if err != nil {
			return nil, err
		}
		if staged != nil {
			view.State = models.SessionStateFeedback
			view.Score = staged.Score
			view.Level = staged.Level
			view.Feedback = feedbackView(staged)
			return view, nil
		}

		question, err := s.loadQuestion(ctx, q, session.CurrentSceneID)
		if err != nil {
			return nil, err
		}
		presentSeed := engine.NewSeed()
		if seed != nil {
			presentSeed = *seed
		}
		visible, err := engine.SelectOptions(question.Options, session.Level, presentSeed)
		if err != nil {
			return nil, err
		}
		qv := &models.QuestionView{
			SceneID:  question.ID,
			Text:     question.Text,
			Question: question.Question,
			Options:  make([]models.OptionView, 0, len(visible)),
			Seed:     presentSeed,
		}
		for _, o := range visible {
			qv.Options = append(qv.Options, models.OptionView{ID: o.ID, Text: o.Text})
		}
		view.Question = qv

	case models.SessionStateEnding:
		ending, err := s.content.GetEndingSceneByID(ctx, q, session.CurrentSceneID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, fmt.Errorf("%w: ending scene %s", models.ErrMissingContent, session.CurrentSceneID)
			}
			return nil, err
		}
		view.Ending = ending

	default:
		return nil, fmt.Errorf("%w: unknown scene type %q", models.ErrDataIntegrity, session.CurrentSceneType)
	}
	return view, nil
}

// summary собирает итог. Сессия, завершенная на вопросе, считается проваленной.
func (s *playingServiceImpl) summary(ctx context.Context, session *models.PlayingSession) (*models.SessionSummary, error) {
	q := s.tx.Querier()
	summary := &models.SessionSummary{
		SessionID:  session.ID,
		StoryID:    session.StoryID,
		Score:      session.Score,
		MaxScore:   session.MaxScore,
		Percentage: engine.Percentage(session.Score, session.MaxScore),
		Failed:     session.CurrentSceneType == models.SceneTypeQuestion,
		FinishedAt: session.FinishedAt,
	}

	story, err := s.content.GetStory(ctx, q, session.StoryID)
	switch {
	case err == nil:
		summary.StoryTitle = story.Title
	case errors.Is(err, models.ErrNotFound):
		// История могла быть удалена после прохождения.
	default:
		return nil, err
	}

	if session.CurrentSceneType == models.SceneTypeEnding {
		ending, err := s.content.GetEndingSceneByID(ctx, q, session.CurrentSceneID)
		switch {
		case err == nil:
			endingType := ending.Type
			summary.Ending = &endingType
		case errors.Is(err, models.ErrNotFound):
		default:
			return nil, err
		}
	}
	return summary, nil
}

// publish отправляет событие после фиксации. Ошибка публикации только логируется.
func (s *playingServiceImpl) publish(ctx context.Context, session *models.PlayingSession, eventType models.SessionEventType, ending *models.EndingType) {
	if s.publisher == nil {
		return
	}
	event := models.SessionEvent{
		Type:       eventType,
		SessionID:  session.ID,
		StoryID:    session.StoryID,
		UserID:     session.UserID,
		Score:      session.Score,
		MaxScore:   session.MaxScore,
		Ending:     ending,
		OccurredAt: s.now(),
	}
	if err := s.publisher.PublishSessionEvent(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("Failed to publish session event",
			zap.String("sessionID", session.ID.String()),
			zap.String("type", string(eventType)),
			zap.Error(err))
	}
}

func feedbackView(p *models.PendingTransition) *models.FeedbackView {
	return &models.FeedbackView{
		OptionID:     p.OptionID,
		IsCorrect:    p.IsCorrect,
		PointsEarned: p.PointsEarned,
		Text:         p.Feedback,
		IsLast:       p.NextSceneID == nil,
	}
}

func findOption(options []models.AnswerOption, id uuid.UUID) *models.AnswerOption {
	for i := range options {
		if options[i].ID == id {
			return &options[i]
		}
	}
	return nil
}

func answerResultLabel(correct bool) string {
	if correct {
		return "correct"
	}
	return "incorrect"
}
