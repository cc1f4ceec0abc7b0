// internal/api/handlers.go
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/Corphon/LifeJourney/internal/errors"
	"github.com/Corphon/LifeJourney/internal/journey"
	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/Corphon/LifeJourney/internal/review"
	"github.com/Corphon/LifeJourney/internal/services"
	"github.com/gin-gonic/gin"
)

// 存档列表默认条数
const defaultJourneyListLimit = 20

// Handler 处理页面与API请求
type Handler struct {
	Journeys  *services.JourneyService // 旅程服务
	Progress  *services.ProgressService
	Images    http.Handler // 生成图片代理
	Response  *ResponseHelper
	WebSocket *WebSocketHandler
}

// NewHandler 创建处理器
func NewHandler(journeys *services.JourneyService, images http.Handler) *Handler {
	return &Handler{
		Journeys:  journeys,
		Progress:  journeys.Progress,
		Images:    images,
		Response:  NewResponseHelper(),
		WebSocket: NewWebSocketHandler(journeys.Progress),
	}
}

// ===============================
// 页面
// ===============================

// IndexPage 按当前状态渲染旅程页面
func (h *Handler) IndexPage(c *gin.Context) {
	snap := h.Journeys.Snapshot(SessionFromContext(c))

	data := gin.H{
		"snap":     snap,
		"stages":   snap.Stages,
		"stageNum": snap.StageIndex + 1,
	}
	if snap.Loading {
		// 加载中展示正在生成的阶段的冷知识
		data["facts"] = h.Journeys.FactsHTML(snap.LoadingStage)
	}
	c.HTML(http.StatusOK, "journey.html", data)
}

// ArchivePage 渲染已存档旅程的回顾漫画
func (h *Handler) ArchivePage(c *gin.Context) {
	record, err := h.Journeys.Journey(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if apperrors.IsNotFoundError(err) || apperrors.IsValidationError(err) {
			status = http.StatusNotFound
		}
		c.HTML(status, "error.html", gin.H{
			"error":      "存档不存在或无法读取",
			"timestamp":  time.Now().Format(time.RFC3339),
			"request_id": c.GetString("request_id"),
			"error_code": strconv.Itoa(status),
		})
		return
	}

	c.HTML(http.StatusOK, "archive.html", gin.H{
		"record": record,
		"frames": review.AssembleFrames(record.History),
	})
}

// ===============================
// 表单事件，提交后重定向回首页
// ===============================

// SubmitBasicInfo 提交基础信息
func (h *Handler) SubmitBasicInfo(c *gin.Context) {
	info := &models.BasicInfo{
		Gender:     c.PostForm("gender"),
		MBTI:       c.PostForm("mbti"),
		Zodiac:     c.PostForm("zodiac"),
		Background: c.PostForm("background"),
	}
	h.dispatchForm(c, journey.Event{Kind: journey.EventBasicInfoSubmitted, BasicInfo: info})
}

// SubmitQuiz 提交测试答案，字段名为 answer_0 .. answer_{n-1}
func (h *Handler) SubmitQuiz(c *gin.Context) {
	snap := h.Journeys.Snapshot(SessionFromContext(c))
	answers := make([]string, len(snap.Questions))
	for i := range answers {
		answers[i] = c.PostForm(fmt.Sprintf("answer_%d", i))
	}
	h.dispatchForm(c, journey.Event{Kind: journey.EventQuizSubmitted, Answers: answers})
}

// BeginJourney 开始第一个人生阶段
func (h *Handler) BeginJourney(c *gin.Context) {
	h.dispatchForm(c, journey.Event{Kind: journey.EventJourneyStarted})
}

// SubmitChoice 提交阶段选择
func (h *Handler) SubmitChoice(c *gin.Context) {
	h.dispatchForm(c, journey.Event{Kind: journey.EventChoiceSelected, Choice: c.PostForm("choice")})
}

// NextStage 进入下一阶段（最后一个阶段时生成人生回顾）
func (h *Handler) NextStage(c *gin.Context) {
	h.dispatchForm(c, journey.Event{Kind: journey.EventStageAdvanced})
}

// RequestReview 生成人生回顾
func (h *Handler) RequestReview(c *gin.Context) {
	h.dispatchForm(c, journey.Event{Kind: journey.EventReviewRequested})
}

// Restart 重新开始
func (h *Handler) Restart(c *gin.Context) {
	h.dispatchForm(c, journey.Event{Kind: journey.EventRestarted})
}

// 校验失败的提示已写入会话，非法迁移和重复提交直接回到当前状态页面
func (h *Handler) dispatchForm(c *gin.Context, ev journey.Event) {
	if _, err := h.Journeys.Dispatch(c.Request.Context(), SessionFromContext(c), ev); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypePrivate)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// ===============================
// JSON API
// ===============================

// GetJourney 返回当前会话快照
func (h *Handler) GetJourney(c *gin.Context) {
	h.Response.Success(c, h.Journeys.Snapshot(SessionFromContext(c)))
}

// PostEvent 提交事件并等待后端响应
func (h *Handler) PostEvent(c *gin.Context) {
	var ev journey.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		h.Response.BadRequest(c, "请求参数错误", err.Error())
		return
	}
	if ev.Kind == "" {
		h.Response.BadRequest(c, "缺少事件类型")
		return
	}

	snap, err := h.Journeys.DispatchWait(c.Request.Context(), SessionFromContext(c), ev)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, snap)
}

// GetStages 返回阶段描述
func (h *Handler) GetStages(c *gin.Context) {
	h.Response.Success(c, h.Journeys.Stages)
}

// GetFacts 返回某阶段抽样后的冷知识
func (h *Handler) GetFacts(c *gin.Context) {
	stageIndex, ok := h.stageParam(c)
	if !ok {
		return
	}
	panel, err := h.Journeys.FactsPanel(stageIndex)
	if err != nil {
		h.Response.NotFound(c, "阶段")
		return
	}
	h.Response.Success(c, panel)
}

// GetFactsHTML 返回某阶段冷知识的 HTML 片段；没有数据时为空内容
func (h *Handler) GetFactsHTML(c *gin.Context) {
	stageIndex, ok := h.stageParam(c)
	if !ok {
		return
	}
	if _, exists := models.StageAt(h.Journeys.Stages, stageIndex); !exists {
		h.Response.NotFound(c, "阶段")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(h.Journeys.FactsHTML(stageIndex)))
}

// ListJourneys 列出最近的存档
func (h *Handler) ListJourneys(c *gin.Context) {
	limit := defaultJourneyListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.Response.BadRequest(c, "limit 参数无效")
			return
		}
		limit = parsed
	}

	summaries, err := h.Journeys.Journeys(c.Request.Context(), limit)
	if err != nil {
		h.Response.InternalError(c, "读取存档失败", err.Error())
		return
	}
	h.Response.Success(c, summaries)
}

// GetArchivedJourney 返回单个存档
func (h *Handler) GetArchivedJourney(c *gin.Context) {
	record, err := h.Journeys.Journey(c.Request.Context(), c.Param("id"))
	if err != nil {
		if apperrors.IsNotFoundError(err) || apperrors.IsValidationError(err) {
			h.Response.NotFound(c, "存档")
			return
		}
		h.Response.InternalError(c, "读取存档失败", err.Error())
		return
	}
	h.Response.Success(c, record)
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": h.Journeys.Sessions.Len(),
	})
}

// ProxyImage 转发生成图片请求
func (h *Handler) ProxyImage(c *gin.Context) {
	if h.Images == nil {
		c.Status(http.StatusNotFound)
		return
	}
	h.Images.ServeHTTP(c.Writer, c.Request)
}

// JourneyWebSocket 推送当前会话的状态变化
func (h *Handler) JourneyWebSocket(c *gin.Context) {
	h.WebSocket.Serve(c, SessionFromContext(c))
}

func (h *Handler) stageParam(c *gin.Context) (int, bool) {
	stageIndex, err := strconv.Atoi(c.Param("stage"))
	if err != nil {
		h.Response.BadRequest(c, "阶段索引无效")
		return 0, false
	}
	return stageIndex, true
}
