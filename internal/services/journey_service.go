// internal/services/journey_service.go
package services

import (
	"context"
	"html/template"

	apperrors "github.com/Corphon/LifeJourney/internal/errors"
	"github.com/Corphon/LifeJourney/internal/journey"
	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/Corphon/LifeJourney/internal/storage"
	"github.com/Corphon/LifeJourney/internal/trivia"
)

// JourneyService 面向 HTTP 层的旅程服务，组合会话、流程控制、冷知识与存档
type JourneyService struct {
	Sessions   *SessionManager
	Controller *journey.Controller
	Progress   *ProgressService
	Facts      *trivia.Renderer
	Archive    storage.Archive
	Stages     []models.Stage
	FactCount  int
}

// Snapshot 返回会话快照，会话不存在时创建
func (s *JourneyService) Snapshot(sessionID string) journey.Snapshot {
	return s.Sessions.GetOrCreate(sessionID).Snapshot()
}

// Dispatch 提交事件；需要后端的迁移在后台完成
func (s *JourneyService) Dispatch(ctx context.Context, sessionID string, ev journey.Event) (journey.Snapshot, error) {
	session := s.Sessions.GetOrCreate(sessionID)
	return s.Controller.DispatchAsync(ctx, session, ev)
}

// DispatchWait 提交事件并等待后端响应
func (s *JourneyService) DispatchWait(ctx context.Context, sessionID string, ev journey.Event) (journey.Snapshot, error) {
	session := s.Sessions.GetOrCreate(sessionID)
	return s.Controller.Dispatch(ctx, session, ev)
}

// FactsPanel 某阶段的冷知识面板
func (s *JourneyService) FactsPanel(stageIndex int) (trivia.Panel, error) {
	if _, ok := models.StageAt(s.Stages, stageIndex); !ok {
		return trivia.Panel{}, apperrors.NewNotFoundError("阶段不存在", nil)
	}
	panel, ok := s.Facts.Build(stageIndex, s.FactCount)
	if !ok {
		panel = trivia.Panel{StageIndex: stageIndex, Entries: []trivia.Entry{}}
	}
	return panel, nil
}

// FactsHTML 某阶段冷知识面板的 HTML 片段，没有数据时为空
func (s *JourneyService) FactsHTML(stageIndex int) template.HTML {
	return s.Facts.Render(stageIndex, s.FactCount)
}

// Journey 读取存档
func (s *JourneyService) Journey(ctx context.Context, id string) (*models.JourneyRecord, error) {
	if s.Archive == nil {
		return nil, apperrors.NewNotFoundError("存档未启用", nil)
	}
	return s.Archive.Load(ctx, id)
}

// Journeys 列出最近的存档
func (s *JourneyService) Journeys(ctx context.Context, limit int) ([]models.JourneySummary, error) {
	if s.Archive == nil {
		return []models.JourneySummary{}, nil
	}
	return s.Archive.List(ctx, limit)
}
