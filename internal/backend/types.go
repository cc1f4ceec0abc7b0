// internal/backend/types.go
package backend

import (
	"encoding/json"

	"github.com/Corphon/LifeJourney/internal/models"
)

// 各端点路径
const (
	EndpointQuizQuestions   = "/api/quiz_questions"
	EndpointStart           = "/api/start"
	EndpointGenerateStage   = "/api/generate_stage"
	EndpointGenerateOutcome = "/api/generate_outcome"
	EndpointLifeReview      = "/api/life_review"
)

// envelope 所有响应共有的字段
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (e envelope) failed() (bool, string) {
	return !e.Success, e.Error
}

type quizQuestionsRequest struct {
	BasicInfo models.BasicInfo `json:"basic_info"`
}

type quizQuestionsResponse struct {
	envelope
	Questions []models.QuizQuestion `json:"questions"`
}

type startRequest struct {
	BasicInfo models.BasicInfo    `json:"basic_info"`
	Answers   []models.QuizAnswer `json:"answers"`
}

type startResponse struct {
	envelope
	UserData    json.RawMessage `json:"user_data"`
	Personality string          `json:"personality"`
}

// StartResult /api/start 的结果
type StartResult struct {
	UserData    json.RawMessage
	Personality string
}

type generateStageRequest struct {
	StageIndex int             `json:"stage_index"`
	UserData   json.RawMessage `json:"user_data"`
}

type generateStageResponse struct {
	envelope
	Story    string            `json:"story"`
	Images   []models.ImageRef `json:"images"`
	Question string            `json:"question"`
	Options  []string          `json:"options"`
}

type generateOutcomeRequest struct {
	StageIndex int             `json:"stage_index"`
	UserData   json.RawMessage `json:"user_data"`
	Story      string          `json:"story"`
	Choice     string          `json:"choice"`
}

type generateOutcomeResponse struct {
	envelope
	Outcome string           `json:"outcome"`
	Image   *models.ImageRef `json:"image"`
}

// OutcomeResult /api/generate_outcome 的结果
type OutcomeResult struct {
	Outcome string
	Image   *models.ImageRef
}

type lifeReviewRequest struct {
	UserData json.RawMessage             `json:"user_data"`
	Stages   []*models.StageHistoryEntry `json:"stages"`
}

type lifeReviewResponse struct {
	envelope
	Summary string `json:"summary"`
}

// failer 让 post 可以统一检查 success 字段
type failer interface {
	failed() (bool, string)
}
