// internal/models/journey.go
package models

import (
	"encoding/json"
	"time"
)

// BasicInfo 开始页收集的基础信息
type BasicInfo struct {
	Gender     string `json:"gender"`
	MBTI       string `json:"mbti"`   // 性格类型
	Zodiac     string `json:"zodiac"` // 星座
	Background string `json:"background"`
}

// QuizQuestion 性格测试题
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuizAnswer 一道题的作答
type QuizAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// UserProfile 测试提交时生成，之后只读
type UserProfile struct {
	BasicInfo BasicInfo    `json:"basic_info"`
	Answers   []QuizAnswer `json:"answers"`
}

// ImageRef 后端返回的图片引用
type ImageRef struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

// StagePayload 当前阶段的故事与选择，每次加载阶段时覆盖
type StagePayload struct {
	Story    string     `json:"story"`
	Images   []ImageRef `json:"images"`
	Question string     `json:"question"`
	Options  []string   `json:"options"`
}

// StageHistoryEntry 已完成阶段的记录，写入后只读
type StageHistoryEntry struct {
	StageIndex   int        `json:"stage_index"`
	Stage        Stage      `json:"stage"`
	Story        string     `json:"story"`
	Images       []ImageRef `json:"images"`
	Choice       string     `json:"choice"`
	Outcome      string     `json:"outcome"`
	OutcomeImage *ImageRef  `json:"outcome_image,omitempty"`
}

// FrameKind 回顾漫画中一帧的来源
type FrameKind string

const (
	FrameStory   FrameKind = "story"
	FrameOutcome FrameKind = "outcome"
)

// ReviewFrame 回顾漫画的一帧，按需从历史记录计算
type ReviewFrame struct {
	StageIndex int       `json:"stage_index"`
	StageLabel string    `json:"stage_label"`
	Kind       FrameKind `json:"kind"`
	Image      ImageRef  `json:"image"`
}

// JourneyRecord 完成人生回顾后存档的整段旅程
type JourneyRecord struct {
	ID          string               `json:"id"`
	SessionID   string               `json:"session_id"`
	Profile     UserProfile          `json:"profile"`
	Personality string               `json:"personality"`
	UserData    json.RawMessage      `json:"user_data,omitempty"`
	History     []*StageHistoryEntry `json:"history"`
	Summary     string               `json:"summary"`
	CompletedAt time.Time            `json:"completed_at"`
}

// JourneySummary 存档列表项
type JourneySummary struct {
	ID          string    `json:"id"`
	Personality string    `json:"personality"`
	Stages      int       `json:"stages"`
	CompletedAt time.Time `json:"completed_at"`
}

// Summarize 生成存档列表项
func (r *JourneyRecord) Summarize() JourneySummary {
	stages := 0
	for _, entry := range r.History {
		if entry != nil {
			stages++
		}
	}
	return JourneySummary{
		ID:          r.ID,
		Personality: r.Personality,
		Stages:      stages,
		CompletedAt: r.CompletedAt,
	}
}
