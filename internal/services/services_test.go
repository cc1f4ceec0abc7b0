package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Corphon/LifeJourney/internal/backend"
	apperrors "github.com/Corphon/LifeJourney/internal/errors"
	"github.com/Corphon/LifeJourney/internal/journey"
	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/Corphon/LifeJourney/internal/trivia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/text/language"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// blockingBackend 的测试题请求会一直等到 release 关闭
type blockingBackend struct {
	release chan struct{}
}

func (b *blockingBackend) QuizQuestions(ctx context.Context, info models.BasicInfo) ([]models.QuizQuestion, error) {
	<-b.release
	return []models.QuizQuestion{{Question: "周末？", Options: []string{"看书"}}}, nil
}

func (b *blockingBackend) Start(ctx context.Context, info models.BasicInfo, answers []models.QuizAnswer) (*backend.StartResult, error) {
	return &backend.StartResult{UserData: json.RawMessage(`{}`), Personality: "安静"}, nil
}

func (b *blockingBackend) GenerateStage(ctx context.Context, stageIndex int, userData json.RawMessage) (*models.StagePayload, error) {
	return &models.StagePayload{Story: "故事"}, nil
}

func (b *blockingBackend) GenerateOutcome(ctx context.Context, stageIndex int, userData json.RawMessage, story, choice string) (*backend.OutcomeResult, error) {
	return &backend.OutcomeResult{Outcome: "结局"}, nil
}

func (b *blockingBackend) LifeReview(ctx context.Context, userData json.RawMessage, stages []*models.StageHistoryEntry) (string, error) {
	return "一生", nil
}

func TestSessionManagerGetOrCreate(t *testing.T) {
	sm := NewSessionManager(time.Hour, models.DefaultStages)

	a := sm.GetOrCreate("a")
	assert.Same(t, a, sm.GetOrCreate("a"))
	assert.Equal(t, 1, sm.Len())

	_, ok := sm.Get("b")
	assert.False(t, ok)

	sm.Delete("a")
	assert.Equal(t, 0, sm.Len())
}

func TestSessionManagerSweep(t *testing.T) {
	sm := NewSessionManager(time.Minute, models.DefaultStages)
	sm.GetOrCreate("idle")

	assert.Equal(t, 0, sm.Sweep(time.Now()))
	assert.Equal(t, 1, sm.Sweep(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0, sm.Len())
}

func TestSessionManagerSweepKeepsLoadingSessions(t *testing.T) {
	sm := NewSessionManager(time.Minute, models.DefaultStages)
	b := &blockingBackend{release: make(chan struct{})}
	controller := journey.NewController(b)

	session := sm.GetOrCreate("busy")
	snap, err := controller.DispatchAsync(context.Background(), session, journey.Event{
		Kind:      journey.EventBasicInfoSubmitted,
		BasicInfo: &models.BasicInfo{Gender: "男"},
	})
	require.NoError(t, err)
	require.Equal(t, journey.StateQuizLoading, snap.State)

	assert.Equal(t, 0, sm.Sweep(time.Now().Add(time.Hour)))
	assert.Equal(t, 1, sm.Len())

	close(b.release)
	controller.Wait()
	assert.Equal(t, journey.StateQuiz, session.State())
}

func TestSessionManagerRunStops(t *testing.T) {
	sm := NewSessionManager(time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- sm.Run(ctx, 10*time.Millisecond) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run 未退出")
	}
}

func TestProgressServicePublish(t *testing.T) {
	ps := NewProgressService()
	sub := ps.Subscribe("s1")
	other := ps.Subscribe("s2")
	assert.Equal(t, 1, ps.SubscriberCount("s1"))

	ps.Publish("s1", journey.Snapshot{State: journey.StateStageLoading, Loading: true, StageIndex: 1, Progress: 50})

	select {
	case update := <-sub:
		assert.Equal(t, StateUpdate{Type: "state", State: journey.StateStageLoading, StageIndex: 1, Progress: 50, Loading: true}, update)
	default:
		t.Fatal("订阅者没有收到更新")
	}
	assert.Len(t, other, 0)

	ps.Unsubscribe("s1", sub)
	_, open := <-sub
	assert.False(t, open)
	assert.Equal(t, 0, ps.SubscriberCount("s1"))

	// 重复取消订阅不会 panic
	ps.Unsubscribe("s1", sub)
	ps.Unsubscribe("s2", other)
}

func TestProgressServiceDropsWhenFull(t *testing.T) {
	ps := NewProgressService()
	sub := ps.Subscribe("s1")
	defer ps.Unsubscribe("s1", sub)

	for i := 0; i < 20; i++ {
		ps.Publish("s1", journey.Snapshot{State: journey.StateQuiz})
	}
	assert.Len(t, sub, cap(sub))
}

func newTestJourneyService(t *testing.T) *JourneyService {
	t.Helper()
	store, err := trivia.Parse([]byte(`{"stages":[{"facts":[
		{"person":"甲","text":"做了一件事"},
		{"person":"乙","text":"做了另一件事"}
	]}]}`), trivia.FormatJSON)
	require.NoError(t, err)

	return &JourneyService{
		Sessions:  NewSessionManager(time.Hour, models.DefaultStages),
		Progress:  NewProgressService(),
		Facts:     trivia.NewRenderer(store, models.DefaultStages, language.Chinese),
		Stages:    models.DefaultStages,
		FactCount: 3,
	}
}

func TestJourneyServiceFacts(t *testing.T) {
	s := newTestJourneyService(t)

	panel, err := s.FactsPanel(0)
	require.NoError(t, err)
	assert.Len(t, panel.Entries, 2)

	panel, err = s.FactsPanel(2)
	require.NoError(t, err)
	assert.NotNil(t, panel.Entries)
	assert.Empty(t, panel.Entries)
	assert.Empty(t, string(s.FactsHTML(2)))

	_, err = s.FactsPanel(4)
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestJourneyServiceWithoutArchive(t *testing.T) {
	s := newTestJourneyService(t)

	_, err := s.Journey(context.Background(), "0123456789abcdef")
	assert.True(t, apperrors.IsNotFoundError(err))

	list, err := s.Journeys(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
