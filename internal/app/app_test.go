package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Corphon/LifeJourney/internal/config"
	"github.com/Corphon/LifeJourney/internal/di"
	"github.com/Corphon/LifeJourney/internal/services"
	"github.com/Corphon/LifeJourney/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return &config.Config{
		Port:          "0",
		DataDir:       t.TempDir(),
		BackendURL:    "http://127.0.0.1:5000",
		FactCount:     3,
		FactLocale:    "zh",
		SessionTTL:    time.Hour,
		SessionSecret: "test-secret",
		DebugMode:     true,
	}
}

func TestInitServicesRegistersEverything(t *testing.T) {
	cfg := testConfig(t)
	container := di.NewContainer()

	redisClient, err := InitServices(context.Background(), cfg, container)
	require.NoError(t, err)
	assert.Nil(t, redisClient)

	for _, name := range []string{"config", "backend", "trivia", "archive", "progress", "sessions", "controller", "journey"} {
		assert.True(t, container.Has(name), name)
	}
	assert.False(t, container.Has("redis"), "未配置 REDIS_URL 时不注册 Redis 客户端")

	archive, err := di.Resolve[storage.Archive](container, "archive")
	require.NoError(t, err)
	assert.IsType(t, &storage.FileArchive{}, archive)

	journeys, err := di.Resolve[*services.JourneyService](container, "journey")
	require.NoError(t, err)
	assert.Equal(t, 3, journeys.FactCount)
	assert.Len(t, journeys.Stages, 4)
}

func TestInitServicesUnknownLocaleFallsBack(t *testing.T) {
	cfg := testConfig(t)
	cfg.FactLocale = "!!"

	_, err := InitServices(context.Background(), cfg, di.NewContainer())
	assert.NoError(t, err)
}

func TestInitServicesMissingFactsFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.FactsFile = "does-not-exist.json"

	_, err := InitServices(context.Background(), cfg, di.NewContainer())
	assert.Error(t, err)
}

func TestNewServesHealth(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), di.NewContainer())
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), di.NewContainer())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run 未在取消后退出")
	}
}
