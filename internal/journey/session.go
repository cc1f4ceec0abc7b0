// internal/journey/session.go
package journey

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/Corphon/LifeJourney/internal/review"
)

// Session 单个访客的会话状态，只由 Controller 在持锁时修改
type Session struct {
	ID string

	mu        sync.Mutex
	epoch     uint64 // 每次重新开始自增，用来丢弃过期的响应
	state     State
	stages    []models.Stage
	basicInfo models.BasicInfo
	questions []models.QuizQuestion
	profile   *models.UserProfile
	userData  json.RawMessage

	personality  string
	stageIndex   int
	pendingStage int // 加载中的阶段索引，成功后才写入 stageIndex
	current      *models.StagePayload
	history      []*models.StageHistoryEntry
	summary      string
	archiveID    string
	lastError    string
	updatedAt    time.Time
}

// NewSession 创建处于开始状态的会话
func NewSession(id string, stages []models.Stage) *Session {
	if len(stages) == 0 {
		stages = models.DefaultStages
	}
	s := &Session{ID: id, stages: stages}
	s.resetLocked()
	return s
}

// Reset 清空全部会话数据，回到开始状态
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.epoch++
	s.state = StateStart
	s.basicInfo = models.BasicInfo{}
	s.questions = nil
	s.profile = nil
	s.userData = nil
	s.personality = ""
	s.stageIndex = 0
	s.pendingStage = 0
	s.current = nil
	s.history = make([]*models.StageHistoryEntry, len(s.stages))
	s.summary = ""
	s.archiveID = ""
	s.lastError = ""
	s.updatedAt = time.Now()
}

// UpdatedAt 最后一次修改时间
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// State 当前状态
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot 用于渲染的只读副本
type Snapshot struct {
	SessionID    string                      `json:"session_id"`
	State        State                       `json:"state"`
	Loading      bool                        `json:"loading"`
	Stages       []models.Stage              `json:"stages"`
	StageIndex   int                         `json:"stage_index"`
	LoadingStage int                         `json:"loading_stage"`
	Stage        models.Stage                `json:"stage"`
	Progress     int                         `json:"progress"`
	IsLastStage  bool                        `json:"is_last_stage"`
	BasicInfo    models.BasicInfo            `json:"basic_info"`
	Questions    []models.QuizQuestion       `json:"questions,omitempty"`
	Profile      *models.UserProfile         `json:"profile,omitempty"`
	Personality  string                      `json:"personality,omitempty"`
	Current      *models.StagePayload        `json:"current,omitempty"`
	Outcome      *models.StageHistoryEntry   `json:"outcome,omitempty"`
	History      []*models.StageHistoryEntry `json:"history"`
	Frames       []models.ReviewFrame        `json:"frames,omitempty"`
	Summary      string                      `json:"summary,omitempty"`
	ArchiveID    string                      `json:"archive_id,omitempty"`
	LastError    string                      `json:"last_error,omitempty"`
}

// Snapshot 复制当前会话状态
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:    s.ID,
		State:        s.state,
		Loading:      s.state.Loading(),
		Stages:       append([]models.Stage(nil), s.stages...),
		StageIndex:   s.stageIndex,
		LoadingStage: s.pendingStage,
		Progress:     (s.stageIndex + 1) * 100 / len(s.stages),
		IsLastStage:  s.stageIndex == len(s.stages)-1,
		BasicInfo:    s.basicInfo,
		Questions:    cloneQuestions(s.questions),
		Personality:  s.personality,
		Summary:      s.summary,
		ArchiveID:    s.archiveID,
		LastError:    s.lastError,
		History:      cloneHistory(s.history),
	}
	if stage, ok := models.StageAt(s.stages, s.stageIndex); ok {
		snap.Stage = stage
	}
	if s.profile != nil {
		profile := *s.profile
		profile.Answers = append([]models.QuizAnswer(nil), s.profile.Answers...)
		snap.Profile = &profile
	}
	if s.current != nil {
		current := clonePayload(s.current)
		snap.Current = current
	}
	if s.state == StateOutcomeShown || s.state == StateReviewLoading || s.state == StateReview {
		snap.Outcome = snap.History[s.stageIndex]
	}
	if s.state == StateReview {
		snap.Frames = review.AssembleFrames(snap.History)
	}
	return snap
}

// 历史记录写入后只读，复制外层切片与条目即可
func cloneHistory(history []*models.StageHistoryEntry) []*models.StageHistoryEntry {
	out := make([]*models.StageHistoryEntry, len(history))
	for i, entry := range history {
		if entry == nil {
			continue
		}
		copied := *entry
		copied.Images = append([]models.ImageRef(nil), entry.Images...)
		if entry.OutcomeImage != nil {
			image := *entry.OutcomeImage
			copied.OutcomeImage = &image
		}
		out[i] = &copied
	}
	return out
}

func cloneQuestions(questions []models.QuizQuestion) []models.QuizQuestion {
	if questions == nil {
		return nil
	}
	out := make([]models.QuizQuestion, len(questions))
	for i, q := range questions {
		out[i] = models.QuizQuestion{Question: q.Question, Options: append([]string(nil), q.Options...)}
	}
	return out
}

func clonePayload(p *models.StagePayload) *models.StagePayload {
	return &models.StagePayload{
		Story:    p.Story,
		Images:   append([]models.ImageRef(nil), p.Images...),
		Question: p.Question,
		Options:  append([]string(nil), p.Options...),
	}
}
