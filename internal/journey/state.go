// internal/journey/state.go
package journey

import "github.com/Corphon/LifeJourney/internal/models"

// State 流程状态
type State string

const (
	StateStart              State = "start"
	StateQuizLoading        State = "quiz_loading"
	StateQuiz               State = "quiz"
	StatePersonalityLoading State = "personality_loading"
	StatePersonality        State = "personality"
	StateStageLoading       State = "stage_loading"
	StateStoryShown         State = "story_shown"
	StateChoicePending      State = "choice_pending"
	StateOutcomeLoading     State = "outcome_loading"
	StateOutcomeShown       State = "outcome_shown"
	StateReviewLoading      State = "review_loading"
	StateReview             State = "review"
)

// Loading 是否有请求在途
func (s State) Loading() bool {
	switch s {
	case StateQuizLoading, StatePersonalityLoading, StateStageLoading, StateOutcomeLoading, StateReviewLoading:
		return true
	}
	return false
}

// EventKind 驱动状态迁移的事件
type EventKind string

const (
	EventBasicInfoSubmitted EventKind = "basic_info_submitted"
	EventQuizSubmitted      EventKind = "quiz_submitted"
	EventJourneyStarted     EventKind = "journey_started"
	EventChoiceSelected     EventKind = "choice_selected"
	EventStageAdvanced      EventKind = "stage_advanced"
	EventReviewRequested    EventKind = "review_requested"
	EventRestarted          EventKind = "restarted"
)

// Event 一个离散事件及其携带的数据
type Event struct {
	Kind      EventKind         `json:"kind"`
	BasicInfo *models.BasicInfo `json:"basic_info,omitempty"`
	Answers   []string          `json:"answers,omitempty"`
	Choice    string            `json:"choice,omitempty"`
}

// 失败时展示给用户的动作名称
var failureLabels = map[EventKind]string{
	EventBasicInfoSubmitted: "获取测试题失败",
	EventQuizSubmitted:      "生成性格画像失败",
	EventJourneyStarted:     "生成故事失败",
	EventStageAdvanced:      "生成故事失败",
	EventChoiceSelected:     "生成结局失败",
	EventReviewRequested:    "生成人生回顾失败",
}
