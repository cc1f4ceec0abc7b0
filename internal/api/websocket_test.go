package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Corphon/LifeJourney/internal/auth"
	"github.com/Corphon/LifeJourney/internal/journey"
	"github.com/Corphon/LifeJourney/internal/services"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJourneyWebSocketPushesState(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, env.cookie)

	sessionID, err := auth.ParseToken(env.cookie.Value, &auth.TokenConfig{Secret: []byte("router-test-secret")})
	require.NoError(t, err)

	header := http.Header{}
	header.Add("Cookie", env.cookie.Name+"="+env.cookie.Value)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws/journey", header)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool {
		return env.progress.SubscriberCount(sessionID) == 1
	}, time.Second, 10*time.Millisecond)

	rec := env.do(t, httptest.NewRequest(http.MethodPost, "/journey/restart", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var update services.StateUpdate
	require.NoError(t, conn.ReadJSON(&update))

	assert.Equal(t, "state", update.Type)
	assert.Equal(t, journey.StateStart, update.State)
	assert.Equal(t, 0, update.StageIndex)
}
