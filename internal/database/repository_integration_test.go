package database_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"quest-server/internal/database"
	"quest-server/internal/interfaces"
	"quest-server/internal/models"
	"quest-server/internal/service"

	"github.com/docker/docker/client"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// RepositoryIntegrationSuite проверяет репозитории на настоящих PostgreSQL и Redis.
type RepositoryIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pool        *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger

	tx       interfaces.TxManager
	content  interfaces.ContentRepository
	sessions interfaces.SessionRepository
	stats    interfaces.StoryStatsRepository
	pending  interfaces.PendingTransitionRepository
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.logger, err = zap.NewDevelopment()
	require.NoError(s.T(), err)

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("quest_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	dsn, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	s.pool, err = database.NewPool(s.ctx, database.PoolConfig{DSN: dsn, MaxConns: 5}, s.logger)
	require.NoError(s.T(), err, "Failed to connect to test postgres")
	require.NoError(s.T(), database.ApplyMigrations(s.pool, s.logger), "Failed to run migrations")

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")

	redisHost, err := s.rdContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	redisPort, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)
	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port())})
	require.NoError(s.T(), s.redisClient.Ping(s.ctx).Err())

	s.tx = database.NewTxManager(s.pool)
	s.content = database.NewPgContentRepository(s.logger)
	s.sessions = database.NewPgSessionRepository(s.logger)
	s.stats = database.NewPgStoryStatsRepository(s.logger)
	s.pending = database.NewRedisPendingTransitionRepository(s.redisClient, s.logger)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate postgres container", zap.Error(err))
		}
	}
	if s.rdContainer != nil {
		if err := s.rdContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate redis container", zap.Error(err))
		}
	}
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	require.NoError(s.T(), s.redisClient.FlushDB(s.ctx).Err())
	_, err := s.pool.Exec(s.ctx, "TRUNCATE TABLE playing_sessions, stories CASCADE")
	require.NoError(s.T(), err)
}

func TestRepositoryIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	requireDocker(t)
	suite.Run(t, new(RepositoryIntegrationSuite))
}

// requireDocker пропускает тест, если Docker недоступен.
func requireDocker(t *testing.T) {
	t.Helper()
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("Docker client init error: %v", err)
	}
	defer cli.Close()
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Docker daemon is not running or accessible: %v", err)
	}
}

type seededStory struct {
	storyID   uuid.UUID
	introID   uuid.UUID
	questions []uuid.UUID
	correct   []uuid.UUID
	endings   map[models.EndingType]uuid.UUID
}

// seedStory создает историю из n вопросов. Вопросы вставляются с конца, чтобы next_id уже существовал.
func (s *RepositoryIntegrationSuite) seedStory(n int, access models.Accessibility, code *string) seededStory {
	ctx := s.ctx
	seed := seededStory{storyID: uuid.New(), introID: uuid.New(), endings: map[models.EndingType]uuid.UUID{}}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO stories (id, owner_id, title, accessibility, access_code) VALUES ($1, $2, $3, $4, $5)`,
		seed.storyID, uuid.New(), "Seeded", string(access), code)
	require.NoError(s.T(), err)
	_, err = s.pool.Exec(ctx, `INSERT INTO intro_scenes (id, story_id, text) VALUES ($1, $2, 'intro')`, seed.introID, seed.storyID)
	require.NoError(s.T(), err)

	seed.questions = make([]uuid.UUID, n)
	seed.correct = make([]uuid.UUID, n)
	var next *uuid.UUID
	for i := n - 1; i >= 0; i-- {
		id := uuid.New()
		_, err = s.pool.Exec(ctx,
			`INSERT INTO question_scenes (id, story_id, text, question, next_id) VALUES ($1, $2, $3, $4, $5)`,
			id, seed.storyID, fmt.Sprintf("scene %d", i), fmt.Sprintf("question %d?", i), next)
		require.NoError(s.T(), err)
		for j := 0; j < 4; j++ {
			optionID := uuid.New()
			_, err = s.pool.Exec(ctx,
				`INSERT INTO answer_options (id, question_scene_id, text, feedback, is_correct, position) VALUES ($1, $2, $3, $4, $5, $6)`,
				optionID, id, fmt.Sprintf("option %d", j), fmt.Sprintf("feedback %d", j), j == 2, j)
			require.NoError(s.T(), err)
			if j == 2 {
				seed.correct[i] = optionID
			}
		}
		seed.questions[i] = id
		idCopy := id
		next = &idCopy
	}

	for _, t := range []models.EndingType{models.EndingGood, models.EndingNeutral, models.EndingBad} {
		id := uuid.New()
		_, err = s.pool.Exec(ctx, `INSERT INTO ending_scenes (id, story_id, ending_type, text) VALUES ($1, $2, $3, $4)`,
			id, seed.storyID, string(t), string(t)+" ending")
		require.NoError(s.T(), err)
		seed.endings[t] = id
	}
	return seed
}

func (s *RepositoryIntegrationSuite) TestContentRepository_ChainTraversal() {
	t := s.T()
	seed := s.seedStory(3, models.AccessibilityPublic, nil)
	q := s.tx.Querier()

	story, err := s.content.GetStory(s.ctx, q, seed.storyID)
	require.NoError(t, err)
	require.Equal(t, models.AccessibilityPublic, story.Accessibility)
	require.Nil(t, story.AccessCode)

	count, err := s.content.GetQuestionCount(s.ctx, q, seed.storyID)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	first, err := s.content.GetFirstQuestionScene(s.ctx, q, seed.storyID)
	require.NoError(t, err)
	require.Equal(t, seed.questions[0], first.ID)
	require.Len(t, first.Options, 4)
	require.Equal(t, "option 0", first.Options[0].Text)
	require.True(t, first.HasOption(seed.correct[0]))

	current := first
	for i := 1; i < 3; i++ {
		next, err := s.content.GetNextQuestionScene(s.ctx, q, current.ID)
		require.NoError(t, err)
		require.NotNil(t, next)
		require.Equal(t, seed.questions[i], next.ID)
		current = next
	}
	last, err := s.content.GetNextQuestionScene(s.ctx, q, current.ID)
	require.NoError(t, err)
	require.Nil(t, last)

	ending, err := s.content.GetEndingScene(s.ctx, q, seed.storyID, models.EndingNeutral)
	require.NoError(t, err)
	require.Equal(t, seed.endings[models.EndingNeutral], ending.ID)
	byID, err := s.content.GetEndingSceneByID(s.ctx, q, ending.ID)
	require.NoError(t, err)
	require.Equal(t, models.EndingNeutral, byID.Type)

	option, err := s.content.GetAnswerOption(s.ctx, q, seed.correct[1])
	require.NoError(t, err)
	require.True(t, option.IsCorrect)
	require.Equal(t, seed.questions[1], option.QuestionSceneID)

	_, err = s.content.GetStory(s.ctx, q, uuid.New())
	require.ErrorIs(t, err, models.ErrNotFound)
}

func (s *RepositoryIntegrationSuite) TestContentRepository_BrokenChain() {
	t := s.T()
	seed := s.seedStory(3, models.AccessibilityPublic, nil)

	// Разрываем цепочку: второй вопрос становится второй головой.
	_, err := s.pool.Exec(s.ctx, `UPDATE question_scenes SET next_id = NULL WHERE id = $1`, seed.questions[0])
	require.NoError(t, err)

	_, err = s.content.GetFirstQuestionScene(s.ctx, s.tx.Querier(), seed.storyID)
	require.ErrorIs(t, err, models.ErrMalformedChain)
	require.ErrorIs(t, err, models.ErrDataIntegrity)

	empty := s.seedStory(0, models.AccessibilityPublic, nil)
	_, err = s.content.GetFirstQuestionScene(s.ctx, s.tx.Querier(), empty.storyID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func (s *RepositoryIntegrationSuite) TestContentRepository_ListPublicStories() {
	t := s.T()
	code := "abc"
	s.seedStory(1, models.AccessibilityPublic, nil)
	s.seedStory(1, models.AccessibilityPublic, nil)
	s.seedStory(1, models.AccessibilityPrivate, &code)

	stories, err := s.content.ListPublicStories(s.ctx, s.tx.Querier(), 10, 0)
	require.NoError(t, err)
	require.Len(t, stories, 2)
	for _, st := range stories {
		require.False(t, st.IsPrivate())
	}

	page, err := s.content.ListPublicStories(s.ctx, s.tx.Querier(), 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
}

func (s *RepositoryIntegrationSuite) TestSessionRepository_Lifecycle() {
	t := s.T()
	seed := s.seedStory(2, models.AccessibilityPublic, nil)
	q := s.tx.Querier()
	userID := uuid.New()

	session := &models.PlayingSession{
		StoryID:          seed.storyID,
		UserID:           userID,
		MaxScore:         20,
		Level:            models.InitialLevel,
		CurrentSceneID:   seed.introID,
		CurrentSceneType: models.SceneTypeIntro,
	}
	require.NoError(t, s.sessions.Create(s.ctx, q, session))
	require.NotEqual(t, uuid.Nil, session.ID)

	loaded, err := s.sessions.GetByID(s.ctx, q, session.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionStateIntro, loaded.State())
	require.Equal(t, 20, loaded.MaxScore)

	require.NoError(t, s.sessions.Advance(s.ctx, q, session.ID, seed.questions[0], models.SceneTypeQuestion, 10, 3))
	loaded, err = s.sessions.GetByID(s.ctx, q, session.ID)
	require.NoError(t, err)
	require.Equal(t, seed.questions[0], loaded.CurrentSceneID)
	require.Equal(t, models.SceneTypeQuestion, loaded.CurrentSceneType)
	require.Equal(t, 10, loaded.Score)

	require.NoError(t, s.sessions.Finish(s.ctx, q, session.ID, 10, 2))
	loaded, err = s.sessions.GetByID(s.ctx, q, session.ID)
	require.NoError(t, err)
	require.True(t, loaded.IsFinished())
	require.Equal(t, 2, loaded.Level)

	// Завершенная сессия не меняется.
	err = s.sessions.Finish(s.ctx, q, session.ID, 20, 3)
	require.ErrorIs(t, err, models.ErrNotFound)
	err = s.sessions.Advance(s.ctx, q, session.ID, seed.questions[1], models.SceneTypeQuestion, 20, 3)
	require.ErrorIs(t, err, models.ErrNotFound)

	list, err := s.sessions.ListByUser(s.ctx, q, userID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = s.sessions.GetByID(s.ctx, q, uuid.New())
	require.ErrorIs(t, err, models.ErrNotFound)
}

func (s *RepositoryIntegrationSuite) TestTxManager_RollsBackOnError() {
	t := s.T()
	seed := s.seedStory(1, models.AccessibilityPublic, nil)
	boom := errors.New("boom")

	err := s.tx.WithTx(s.ctx, func(tx interfaces.DBTX) error {
		require.NoError(t, s.stats.IncrementPlayed(s.ctx, tx, seed.storyID))
		return boom
	})
	require.ErrorIs(t, err, boom)

	story, err := s.content.GetStory(s.ctx, s.tx.Querier(), seed.storyID)
	require.NoError(t, err)
	require.Zero(t, story.PlayedCount)

	err = s.tx.WithTx(s.ctx, func(tx interfaces.DBTX) error {
		if err := s.stats.IncrementPlayed(s.ctx, tx, seed.storyID); err != nil {
			return err
		}
		return s.stats.IncrementFailed(s.ctx, tx, seed.storyID)
	})
	require.NoError(t, err)
	story, err = s.content.GetStory(s.ctx, s.tx.Querier(), seed.storyID)
	require.NoError(t, err)
	require.Equal(t, 1, story.PlayedCount)
	require.Equal(t, 1, story.FailedCount)

	err = s.stats.IncrementFinished(s.ctx, s.tx.Querier(), uuid.New())
	require.ErrorIs(t, err, models.ErrNotFound)
}

func (s *RepositoryIntegrationSuite) TestPendingTransitionRepository() {
	t := s.T()
	sessionID := uuid.New()
	next := uuid.New()
	pending := &models.PendingTransition{
		SessionID:       sessionID,
		QuestionSceneID: uuid.New(),
		OptionID:        uuid.New(),
		IsCorrect:       true,
		PointsEarned:    5,
		Score:           15,
		Level:           3,
		Feedback:        "well done",
		NextSceneID:     &next,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}

	_, err := s.pending.Get(s.ctx, sessionID)
	require.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.pending.Save(s.ctx, pending, time.Minute))
	loaded, err := s.pending.Get(s.ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, pending, loaded)

	ttl, err := s.redisClient.TTL(s.ctx, "pending_transition:"+sessionID.String()).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.pending.Delete(s.ctx, sessionID))
	_, err = s.pending.Get(s.ctx, sessionID)
	require.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.pending.Save(s.ctx, pending, 50*time.Millisecond))
	time.Sleep(200 * time.Millisecond)
	_, err = s.pending.Get(s.ctx, sessionID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func (s *RepositoryIntegrationSuite) TestPlayingService_EndToEnd() {
	t := s.T()
	seed := s.seedStory(2, models.AccessibilityPublic, nil)
	userID := uuid.New()
	svc := service.NewPlayingService(s.content, s.sessions, s.stats, s.pending, s.tx, nil, service.DefaultPlayingOptions(), s.logger)

	session, err := svc.StartSession(s.ctx, userID, seed.storyID, "")
	require.NoError(t, err)
	_, err = svc.AcknowledgeIntro(s.ctx, userID, session.ID)
	require.NoError(t, err)

	for i := range seed.questions {
		view, err := svc.GetCurrentScene(s.ctx, userID, session.ID, nil)
		require.NoError(t, err)
		require.Equal(t, seed.questions[i], view.Question.SceneID)

		res, err := svc.SubmitAnswer(s.ctx, userID, session.ID, seed.correct[i], view.Question.Seed)
		require.NoError(t, err)
		require.True(t, res.Feedback.IsCorrect)

		_, err = svc.AcknowledgeFeedback(s.ctx, userID, session.ID)
		require.NoError(t, err)
	}

	summary, err := svc.AcknowledgeEnding(s.ctx, userID, session.ID)
	require.NoError(t, err)
	require.Equal(t, 20, summary.Score)
	require.Equal(t, models.EndingGood, *summary.Ending)

	story, err := s.content.GetStory(s.ctx, s.tx.Querier(), seed.storyID)
	require.NoError(t, err)
	require.Equal(t, 1, story.PlayedCount)
	require.Equal(t, 1, story.FinishedCount)
	require.Zero(t, story.DidNotFinish())
}
