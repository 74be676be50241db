package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"github.com/google/uuid"
)

// memStore - хранилище в памяти для сквозных сценариев прохождения.
type memStore struct {
	mu        sync.Mutex
	stories   map[uuid.UUID]*models.Story
	intros    map[uuid.UUID]*models.IntroScene // по storyID
	questions map[uuid.UUID]*models.QuestionScene
	heads     map[uuid.UUID]uuid.UUID // storyID -> первый вопрос
	endings   map[uuid.UUID]*models.EndingScene
	sessions  map[uuid.UUID]*models.PlayingSession
	pending   map[uuid.UUID]*models.PendingTransition
	ttls      map[uuid.UUID]time.Duration
}

var (
	_ interfaces.ContentRepository           = (*memStore)(nil)
	_ interfaces.SessionRepository           = (*memStore)(nil)
	_ interfaces.StoryStatsRepository        = (*memStore)(nil)
	_ interfaces.PendingTransitionRepository = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		stories:   make(map[uuid.UUID]*models.Story),
		intros:    make(map[uuid.UUID]*models.IntroScene),
		questions: make(map[uuid.UUID]*models.QuestionScene),
		heads:     make(map[uuid.UUID]uuid.UUID),
		endings:   make(map[uuid.UUID]*models.EndingScene),
		sessions:  make(map[uuid.UUID]*models.PlayingSession),
		pending:   make(map[uuid.UUID]*models.PendingTransition),
		ttls:      make(map[uuid.UUID]time.Duration),
	}
}

type storyFixture struct {
	story     *models.Story
	intro     *models.IntroScene
	questions []*models.QuestionScene
	endings   map[models.EndingType]*models.EndingScene
}

// addStory создает историю из questionCount вопросов по 4 варианта (первый правильный) и трех концовок.
func (m *memStore) addStory(questionCount int, access models.Accessibility, code *string) *storyFixture {
	m.mu.Lock()
	defer m.mu.Unlock()

	story := &models.Story{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		Title:         fmt.Sprintf("Story with %d questions", questionCount),
		Accessibility: access,
		AccessCode:    code,
	}
	m.stories[story.ID] = story

	intro := &models.IntroScene{ID: uuid.New(), StoryID: story.ID, Text: "Once upon a time"}
	m.intros[story.ID] = intro

	fx := &storyFixture{story: story, intro: intro, endings: make(map[models.EndingType]*models.EndingScene)}
	for i := 0; i < questionCount; i++ {
		q := &models.QuestionScene{
			ID:       uuid.New(),
			StoryID:  story.ID,
			Text:     fmt.Sprintf("Scene %d", i+1),
			Question: fmt.Sprintf("Question %d?", i+1),
		}
		for j := 0; j < 4; j++ {
			q.Options = append(q.Options, models.AnswerOption{
				ID:              uuid.New(),
				QuestionSceneID: q.ID,
				Text:            fmt.Sprintf("Option %d.%d", i+1, j+1),
				Feedback:        fmt.Sprintf("Feedback %d.%d", i+1, j+1),
				IsCorrect:       j == 0,
			})
		}
		if i > 0 {
			prev := fx.questions[i-1]
			prev.NextID = &q.ID
		} else {
			m.heads[story.ID] = q.ID
		}
		m.questions[q.ID] = q
		fx.questions = append(fx.questions, q)
	}
	for _, t := range []models.EndingType{models.EndingGood, models.EndingNeutral, models.EndingBad} {
		e := &models.EndingScene{ID: uuid.New(), StoryID: story.ID, Type: t, Text: string(t) + " ending"}
		m.endings[e.ID] = e
		fx.endings[t] = e
	}
	return fx
}

func (m *memStore) removeEnding(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.endings, id)
}

func (m *memStore) putSession(s models.PlayingSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &s
}

func (m *memStore) session(id uuid.UUID) models.PlayingSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.sessions[id]
}

func (m *memStore) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *memStore) storyCounters(id uuid.UUID) models.StoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stories[id].Stats()
}

func (m *memStore) pendingFor(id uuid.UUID) *models.PendingTransition {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pending[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func (m *memStore) putPending(p models.PendingTransition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[p.SessionID] = &p
}

func (m *memStore) optionCorrect(questionID, optionID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.questions[questionID].Options {
		if o.ID == optionID {
			return o.IsCorrect
		}
	}
	return false
}

// --- ContentRepository ---

func (m *memStore) GetStory(_ context.Context, _ interfaces.DBTX, storyID uuid.UUID) (*models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[storyID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) ListPublicStories(_ context.Context, _ interfaces.DBTX, limit, offset int) ([]models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Story
	for _, s := range m.stories {
		if !s.IsPrivate() {
			out = append(out, *s)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetIntroScene(_ context.Context, _ interfaces.DBTX, storyID uuid.UUID) (*models.IntroScene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.intros[storyID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) GetQuestionSceneWithOptions(_ context.Context, _ interfaces.DBTX, sceneID uuid.UUID) (*models.QuestionScene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questionLocked(sceneID)
}

func (m *memStore) questionLocked(sceneID uuid.UUID) (*models.QuestionScene, error) {
	q, ok := m.questions[sceneID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *q
	cp.Options = append([]models.AnswerOption(nil), q.Options...)
	return &cp, nil
}

func (m *memStore) GetFirstQuestionScene(_ context.Context, _ interfaces.DBTX, storyID uuid.UUID) (*models.QuestionScene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	head, ok := m.heads[storyID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return m.questionLocked(head)
}

func (m *memStore) GetNextQuestionScene(_ context.Context, _ interfaces.DBTX, sceneID uuid.UUID) (*models.QuestionScene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[sceneID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if q.NextID == nil {
		return nil, nil
	}
	return m.questionLocked(*q.NextID)
}

func (m *memStore) GetEndingScene(_ context.Context, _ interfaces.DBTX, storyID uuid.UUID, endingType models.EndingType) (*models.EndingScene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.endings {
		if e.StoryID == storyID && e.Type == endingType {
			cp := *e
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) GetEndingSceneByID(_ context.Context, _ interfaces.DBTX, sceneID uuid.UUID) (*models.EndingScene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.endings[sceneID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) GetAnswerOption(_ context.Context, _ interfaces.DBTX, optionID uuid.UUID) (*models.AnswerOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.questions {
		for _, o := range q.Options {
			if o.ID == optionID {
				cp := o
				return &cp, nil
			}
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) GetQuestionCount(_ context.Context, _ interfaces.DBTX, storyID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, q := range m.questions {
		if q.StoryID == storyID {
			n++
		}
	}
	return n, nil
}

// --- SessionRepository ---

func (m *memStore) Create(_ context.Context, _ interfaces.DBTX, session *models.PlayingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, _ interfaces.DBTX, sessionID uuid.UUID) (*models.PlayingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) Advance(_ context.Context, _ interfaces.DBTX, sessionID, nextSceneID uuid.UUID, nextSceneType models.SceneType, score, level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.FinishedAt != nil {
		return models.ErrNotFound
	}
	s.CurrentSceneID = nextSceneID
	s.CurrentSceneType = nextSceneType
	s.Score = score
	s.Level = level
	return nil
}

func (m *memStore) Finish(_ context.Context, _ interfaces.DBTX, sessionID uuid.UUID, score, level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.FinishedAt != nil {
		return models.ErrNotFound
	}
	now := time.Now().UTC()
	s.Score = score
	s.Level = level
	s.FinishedAt = &now
	return nil
}

func (m *memStore) ListByUser(_ context.Context, _ interfaces.DBTX, userID uuid.UUID, limit int) ([]models.PlayingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PlayingSession
	for _, s := range m.sessions {
		if s.UserID == userID && len(out) < limit {
			out = append(out, *s)
		}
	}
	return out, nil
}

// --- StoryStatsRepository ---

func (m *memStore) IncrementPlayed(_ context.Context, _ interfaces.DBTX, storyID uuid.UUID) error {
	return m.bump(storyID, func(s *models.Story) { s.PlayedCount++ })
}

func (m *memStore) IncrementFinished(_ context.Context, _ interfaces.DBTX, storyID uuid.UUID) error {
	return m.bump(storyID, func(s *models.Story) { s.FinishedCount++ })
}

func (m *memStore) IncrementFailed(_ context.Context, _ interfaces.DBTX, storyID uuid.UUID) error {
	return m.bump(storyID, func(s *models.Story) { s.FailedCount++ })
}

func (m *memStore) bump(storyID uuid.UUID, fn func(*models.Story)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[storyID]
	if !ok {
		return models.ErrNotFound
	}
	fn(s)
	return nil
}

// --- PendingTransitionRepository ---

func (m *memStore) Save(_ context.Context, pending *models.PendingTransition, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pending
	m.pending[pending.SessionID] = &cp
	m.ttls[pending.SessionID] = ttl
	return nil
}

func (m *memStore) Get(_ context.Context, sessionID uuid.UUID) (*models.PendingTransition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pending[sessionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) Delete(_ context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, sessionID)
	return nil
}
