// internal/journey/controller.go
package journey

import (
	"context"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Corphon/LifeJourney/internal/backend"
	apperrors "github.com/Corphon/LifeJourney/internal/errors"
	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/Corphon/LifeJourney/internal/utils"
	"github.com/google/uuid"
)

// Backend 生成后端需要提供的能力
type Backend interface {
	QuizQuestions(ctx context.Context, info models.BasicInfo) ([]models.QuizQuestion, error)
	Start(ctx context.Context, info models.BasicInfo, answers []models.QuizAnswer) (*backend.StartResult, error)
	GenerateStage(ctx context.Context, stageIndex int, userData json.RawMessage) (*models.StagePayload, error)
	GenerateOutcome(ctx context.Context, stageIndex int, userData json.RawMessage, story, choice string) (*backend.OutcomeResult, error)
	LifeReview(ctx context.Context, userData json.RawMessage, stages []*models.StageHistoryEntry) (string, error)
}

// Notifier 接收每一次状态变化
type Notifier interface {
	Publish(sessionID string, snap Snapshot)
}

// Archiver 保存完成的旅程
type Archiver interface {
	Save(ctx context.Context, record *models.JourneyRecord) error
}

// Controller 阶段流程控制器，把离散事件转换为会话状态迁移
type Controller struct {
	backend  Backend
	notifier Notifier
	archiver Archiver
	logger   *utils.Logger
	inflight sync.WaitGroup
}

// Option 配置 Controller
type Option func(*Controller)

// WithNotifier 设置状态变化通知
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithArchiver 设置旅程存档
func WithArchiver(a Archiver) Option {
	return func(c *Controller) { c.archiver = a }
}

// WithLogger 设置日志
func WithLogger(l *utils.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController 创建控制器
func NewController(b Backend, opts ...Option) *Controller {
	c := &Controller{backend: b}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = utils.GetLogger().Named("journey")
	}
	return c
}

// pending 已通过校验、等待后端响应的迁移
type pending struct {
	event   Event
	epoch   uint64
	from    State // 失败时恢复到的状态
	loading State
	call    func(ctx context.Context) (func(s *Session), error)
	// commit 在响应被采用后、仍持有会话锁时执行
	commit  func(ctx context.Context, s *Session)
}

// Dispatch 同步处理事件，直到后端响应并写回会话
func (c *Controller) Dispatch(ctx context.Context, s *Session, ev Event) (Snapshot, error) {
	p, snap, err := c.begin(s, ev)
	if err != nil || p == nil {
		return snap, err
	}
	return c.complete(ctx, s, p)
}

// DispatchAsync 同步校验事件并进入加载状态，后端调用在后台完成。
// 返回的快照处于加载状态；完成后通过 Notifier 推送。
func (c *Controller) DispatchAsync(ctx context.Context, s *Session, ev Event) (Snapshot, error) {
	p, snap, err := c.begin(s, ev)
	if err != nil || p == nil {
		return snap, err
	}

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		// 没有取消：请求发起后即使页面离开也等它返回，由 epoch 决定是否采用
		_, _ = c.complete(context.WithoutCancel(ctx), s, p)
	}()
	return snap, nil
}

// Wait 等待所有后台请求结束
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// WaitContext 等待后台请求结束，ctx 结束时提前返回
func (c *Controller) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot 读取会话快照
func (c *Controller) Snapshot(s *Session) Snapshot {
	return s.Snapshot()
}

func (c *Controller) begin(s *Session, ev Event) (*pending, Snapshot, error) {
	s.mu.Lock()
	p, err := c.prepareLocked(s, ev)
	if err != nil && apperrors.IsValidationError(err) {
		s.lastError = apperrors.UserMessage("", err)
		s.updatedAt = time.Now()
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		utils.RecordTransition(string(ev.Kind), "rejected")
		c.logger.Info("event rejected", map[string]interface{}{
			"session": s.ID, "event": ev.Kind, "state": snap.State, "error": err.Error(),
		})
		if apperrors.IsValidationError(err) {
			c.publish(s.ID, snap)
		}
		return nil, snap, err
	}

	c.publish(s.ID, snap)
	if p == nil {
		utils.RecordTransition(string(ev.Kind), "ok")
	}
	return p, snap, nil
}

func (c *Controller) complete(ctx context.Context, s *Session, p *pending) (Snapshot, error) {
	apply, callErr := p.call(ctx)

	s.mu.Lock()
	if s.epoch != p.epoch || s.state != p.loading {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		utils.RecordTransition(string(p.event.Kind), "stale")
		c.logger.Debug("discarding stale response", map[string]interface{}{
			"session": s.ID, "event": p.event.Kind,
		})
		return snap, apperrors.NewConflictError("会话已重新开始，响应已丢弃", nil)
	}

	var err error
	if callErr != nil {
		s.state = p.from
		s.pendingStage = s.stageIndex
		s.lastError = apperrors.UserMessage(failureLabels[p.event.Kind], callErr)
		err = callErr
	} else {
		apply(s)
		s.lastError = ""
		if p.commit != nil {
			p.commit(ctx, s)
		}
	}
	s.updatedAt = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		utils.RecordTransition(string(p.event.Kind), "failed")
		c.logger.Warn("backend request failed", map[string]interface{}{
			"session": s.ID, "event": p.event.Kind, "error": err.Error(),
		})
	} else {
		utils.RecordTransition(string(p.event.Kind), "ok")
		c.logger.Debug("transition completed", map[string]interface{}{
			"session": s.ID, "event": p.event.Kind, "state": snap.State,
		})
	}
	c.publish(s.ID, snap)
	return snap, err
}

func (c *Controller) publish(sessionID string, snap Snapshot) {
	if c.notifier != nil {
		c.notifier.Publish(sessionID, snap)
	}
}

// prepareLocked 校验事件并切换到加载状态；返回 nil pending 表示迁移已同步完成
func (c *Controller) prepareLocked(s *Session, ev Event) (*pending, error) {
	if ev.Kind == EventRestarted {
		s.resetLocked()
		return nil, nil
	}

	if s.state.Loading() {
		return nil, apperrors.NewConflictError("已有请求在处理中，请稍候", nil)
	}

	switch ev.Kind {
	case EventBasicInfoSubmitted:
		if s.state != StateStart {
			return nil, c.invalid(s, ev)
		}
		return c.prepareQuiz(s, ev)
	case EventQuizSubmitted:
		if s.state != StateQuiz {
			return nil, c.invalid(s, ev)
		}
		return c.preparePersonality(s, ev)
	case EventJourneyStarted:
		if s.state != StatePersonality {
			return nil, c.invalid(s, ev)
		}
		return c.prepareStage(s, ev, 0), nil
	case EventChoiceSelected:
		if s.state != StateChoicePending && s.state != StateStoryShown {
			return nil, c.invalid(s, ev)
		}
		return c.prepareOutcome(s, ev)
	case EventStageAdvanced:
		if s.state != StateOutcomeShown {
			return nil, c.invalid(s, ev)
		}
		if s.stageIndex < len(s.stages)-1 {
			return c.prepareStage(s, ev, s.stageIndex+1), nil
		}
		return c.prepareReview(s, ev), nil
	case EventReviewRequested:
		if s.state != StateOutcomeShown || s.stageIndex != len(s.stages)-1 {
			return nil, c.invalid(s, ev)
		}
		return c.prepareReview(s, ev), nil
	default:
		return nil, apperrors.NewValidationError("未知事件: "+string(ev.Kind), nil)
	}
}

func (c *Controller) invalid(s *Session, ev Event) error {
	return apperrors.NewInvalidTransitionError("当前状态 " + string(s.state) + " 不接受事件 " + string(ev.Kind))
}

func (c *Controller) enter(s *Session, ev Event, loading State) *pending {
	p := &pending{event: ev, epoch: s.epoch, from: s.state, loading: loading}
	s.state = loading
	s.lastError = ""
	s.updatedAt = time.Now()
	return p
}

func (c *Controller) prepareQuiz(s *Session, ev Event) (*pending, error) {
	if ev.BasicInfo == nil {
		return nil, apperrors.NewValidationError("请填写基础信息", nil)
	}
	info := models.BasicInfo{
		Gender:     strings.TrimSpace(ev.BasicInfo.Gender),
		MBTI:       strings.TrimSpace(ev.BasicInfo.MBTI),
		Zodiac:     strings.TrimSpace(ev.BasicInfo.Zodiac),
		Background: strings.TrimSpace(ev.BasicInfo.Background),
	}

	s.basicInfo = info
	p := c.enter(s, ev, StateQuizLoading)
	p.call = func(ctx context.Context) (func(*Session), error) {
		questions, err := c.backend.QuizQuestions(ctx, info)
		if err != nil {
			return nil, err
		}
		return func(s *Session) {
			s.questions = questions
			s.state = StateQuiz
		}, nil
	}
	return p, nil
}

func (c *Controller) preparePersonality(s *Session, ev Event) (*pending, error) {
	if len(ev.Answers) != len(s.questions) {
		return nil, apperrors.NewValidationError("请回答全部问题", nil)
	}
	answers := make([]models.QuizAnswer, len(s.questions))
	for i, q := range s.questions {
		answer := strings.TrimSpace(ev.Answers[i])
		if answer == "" {
			return nil, apperrors.NewValidationError("请回答全部问题", nil)
		}
		answers[i] = models.QuizAnswer{Question: q.Question, Answer: answer}
	}

	info := s.basicInfo
	p := c.enter(s, ev, StatePersonalityLoading)
	p.call = func(ctx context.Context) (func(*Session), error) {
		result, err := c.backend.Start(ctx, info, answers)
		if err != nil {
			return nil, err
		}
		return func(s *Session) {
			s.profile = &models.UserProfile{BasicInfo: info, Answers: answers}
			s.userData = result.UserData
			s.personality = result.Personality
			s.state = StatePersonality
		}, nil
	}
	return p, nil
}

func (c *Controller) prepareStage(s *Session, ev Event, index int) *pending {
	userData := s.userData
	s.pendingStage = index

	p := c.enter(s, ev, StateStageLoading)
	p.call = func(ctx context.Context) (func(*Session), error) {
		payload, err := c.backend.GenerateStage(ctx, index, userData)
		if err != nil {
			return nil, err
		}
		return func(s *Session) {
			s.stageIndex = index
			s.pendingStage = index
			s.current = payload
			if len(payload.Options) > 0 {
				s.state = StateChoicePending
			} else {
				s.state = StateStoryShown
			}
		}, nil
	}
	return p
}

func (c *Controller) prepareOutcome(s *Session, ev Event) (*pending, error) {
	choice := strings.TrimSpace(ev.Choice)
	if choice == "" {
		return nil, apperrors.NewValidationError("请选择一个选项", nil)
	}
	if s.current == nil {
		return nil, apperrors.NewInvalidTransitionError("当前阶段尚未加载")
	}
	if len(s.current.Options) > 0 && !slices.Contains(s.current.Options, choice) {
		return nil, apperrors.NewValidationError("无效的选项", nil)
	}

	index := s.stageIndex
	stage := s.stages[index]
	payload := clonePayload(s.current)
	userData := s.userData

	p := c.enter(s, ev, StateOutcomeLoading)
	p.call = func(ctx context.Context) (func(*Session), error) {
		result, err := c.backend.GenerateOutcome(ctx, index, userData, payload.Story, choice)
		if err != nil {
			return nil, err
		}
		return func(s *Session) {
			s.history[index] = &models.StageHistoryEntry{
				StageIndex:   index,
				Stage:        stage,
				Story:        payload.Story,
				Images:       payload.Images,
				Choice:       choice,
				Outcome:      result.Outcome,
				OutcomeImage: result.Image,
			}
			s.state = StateOutcomeShown
			utils.RecordStageCompleted(strconv.Itoa(index))
		}, nil
	}
	return p, nil
}

func (c *Controller) prepareReview(s *Session, ev Event) *pending {
	userData := s.userData
	history := cloneHistory(s.history)
	record := &models.JourneyRecord{
		SessionID:   s.ID,
		Personality: s.personality,
		UserData:    userData,
		History:     history,
	}
	if s.profile != nil {
		record.Profile = *s.profile
	}

	p := c.enter(s, ev, StateReviewLoading)
	p.call = func(ctx context.Context) (func(*Session), error) {
		summary, err := c.backend.LifeReview(ctx, userData, history)
		if err != nil {
			return nil, err
		}
		return func(s *Session) {
			s.summary = summary
			s.state = StateReview
		}, nil
	}
	// 只有未被重新开始的旅程才存档
	p.commit = func(ctx context.Context, s *Session) {
		s.archiveID = c.archive(ctx, record, s.summary)
	}
	return p
}

// archive 存档失败不影响回顾展示
func (c *Controller) archive(ctx context.Context, record *models.JourneyRecord, summary string) string {
	if c.archiver == nil {
		return ""
	}
	record.ID = uuid.NewString()
	record.Summary = summary
	record.CompletedAt = time.Now()

	if err := c.archiver.Save(ctx, record); err != nil {
		c.logger.Warn("failed to archive journey", map[string]interface{}{
			"session": record.SessionID, "error": err.Error(),
		})
		return ""
	}
	return record.ID
}
