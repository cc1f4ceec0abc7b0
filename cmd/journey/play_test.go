package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Corphon/LifeJourney/internal/backend"
	"github.com/Corphon/LifeJourney/internal/journey"
	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/Corphon/LifeJourney/internal/trivia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	responses := map[string]interface{}{
		backend.EndpointQuizQuestions: map[string]interface{}{
			"success":   true,
			"questions": []map[string]interface{}{{"question": "周末喜欢做什么？", "options": []string{"看书", "聚会"}}},
		},
		backend.EndpointStart: map[string]interface{}{
			"success":     true,
			"user_data":   map[string]string{"name": "小明"},
			"personality": "安静而好奇",
		},
		backend.EndpointGenerateStage: map[string]interface{}{
			"success":  true,
			"story":    "你出生在一个小镇。",
			"images":   []map[string]string{{"path": "/tmp/out/a.png", "description": "小镇"}},
			"question": "你要怎么做？",
			"options":  []string{"留下", "离开"},
		},
		backend.EndpointGenerateOutcome: map[string]interface{}{
			"success": true,
			"outcome": "你选择了自己的路。",
			"image":   map[string]string{"path": "b.png", "description": "远方"},
		},
		backend.EndpointLifeReview: map[string]interface{}{
			"success": true,
			"summary": "平凡而精彩的一生",
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestPlayer(t *testing.T, input string, out *bytes.Buffer) *player {
	t.Helper()
	server := fakeBackend(t)

	client, err := backend.NewClient(server.URL, 0, nil)
	require.NoError(t, err)

	return &player{
		in:         bufio.NewScanner(strings.NewReader(input)),
		out:        out,
		controller: journey.NewController(client),
		facts:      trivia.NewRenderer(trivia.Default(), models.DefaultStages, language.Chinese),
		factCount:  trivia.DefaultCount,
		session:    journey.NewSession("cli-test", models.DefaultStages),
	}
}

func TestPlayFullJourney(t *testing.T) {
	lines := []string{
		"男", "INTJ", "天蝎座", "普通家庭",
		"1",
		"",
		"1", "",
		"2", "",
		"1", "",
		"2", "",
	}

	var out bytes.Buffer
	p := newTestPlayer(t, strings.Join(lines, "\n")+"\n", &out)

	require.NoError(t, p.run(context.Background()))

	snap := p.session.Snapshot()
	assert.Equal(t, journey.StateReview, snap.State)
	assert.Len(t, snap.Frames, 8)
	assert.Equal(t, "看书", snap.Profile.Answers[0].Answer)
	assert.Equal(t, "离开", snap.History[1].Choice)

	output := out.String()
	assert.Contains(t, output, "平凡而精彩的一生")
	assert.Contains(t, output, "/images/a.png")
}

func TestPlayQuitOnEOF(t *testing.T) {
	var out bytes.Buffer
	p := newTestPlayer(t, "男\n", &out)

	require.NoError(t, p.run(context.Background()))
	assert.Equal(t, journey.StateStart, p.session.State())
	assert.Contains(t, out.String(), "已退出")
}

func TestPlayRestartCommand(t *testing.T) {
	lines := []string{
		"男", "INTJ", "天蝎座", "普通家庭",
		"/restart",
		"/quit",
	}

	var out bytes.Buffer
	p := newTestPlayer(t, strings.Join(lines, "\n")+"\n", &out)

	require.NoError(t, p.run(context.Background()))
	snap := p.session.Snapshot()
	assert.Equal(t, journey.StateStart, snap.State)
	assert.Empty(t, snap.Questions)
}

func TestShowReviewWithoutFrames(t *testing.T) {
	var out bytes.Buffer
	p := newTestPlayer(t, "", &out)

	p.showReview(journey.Snapshot{State: journey.StateReview, Summary: "空白的一生"})
	assert.Contains(t, out.String(), "这段旅程没有留下画面")
	assert.Contains(t, out.String(), "空白的一生")
}

func TestLoadConfigReportsInvalidEnv(t *testing.T) {
	t.Setenv("FACT_COUNT", "-2")

	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "读取配置失败")
}

func TestPickOption(t *testing.T) {
	options := []string{"留下", "离开"}

	assert.Equal(t, "离开", pickOption("2", options))
	assert.Equal(t, "3", pickOption("3", options))
	assert.Equal(t, "自由回答", pickOption("自由回答", options))
	assert.Equal(t, "1", pickOption("1", nil))
}
