// internal/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/Corphon/LifeJourney/internal/errors"
	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/Corphon/LifeJourney/internal/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// 非 JSON 响应展示给用户时截断到的字符数
const nonJSONPreviewRunes = 200

// 读取响应体的上限
const maxResponseBytes = 8 << 20

// Client 生成后端的 JSON-over-HTTP 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewClient 创建客户端；timeout 为 0 时不设本地超时
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	u, err := url.ParseRequestURI(baseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q: %v", baseURL, err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("BackendClient"),
		tracer:     otel.Tracer("github.com/Corphon/LifeJourney/internal/backend"),
	}, nil
}

// BaseURL 返回后端地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// QuizQuestions 根据基础信息获取性格测试题
func (c *Client) QuizQuestions(ctx context.Context, info models.BasicInfo) ([]models.QuizQuestion, error) {
	var resp quizQuestionsResponse
	if err := c.post(ctx, EndpointQuizQuestions, quizQuestionsRequest{BasicInfo: info}, &resp); err != nil {
		return nil, err
	}

	questions := make([]models.QuizQuestion, 0, len(resp.Questions))
	for _, q := range resp.Questions {
		text := strings.TrimSpace(q.Question)
		if text == "" {
			continue
		}
		questions = append(questions, models.QuizQuestion{Question: text, Options: cleanOptions(q.Options)})
	}
	if len(questions) == 0 {
		return nil, apperrors.NewValidationError("后端没有返回测试题", nil)
	}
	return questions, nil
}

// Start 提交基础信息与测试答案，生成性格画像
func (c *Client) Start(ctx context.Context, info models.BasicInfo, answers []models.QuizAnswer) (*StartResult, error) {
	if answers == nil {
		answers = []models.QuizAnswer{}
	}

	var resp startResponse
	if err := c.post(ctx, EndpointStart, startRequest{BasicInfo: info, Answers: answers}, &resp); err != nil {
		return nil, err
	}

	if !isJSONObject(resp.UserData) {
		return nil, apperrors.NewValidationError("后端返回的 user_data 无效", nil)
	}
	return &StartResult{UserData: resp.UserData, Personality: strings.TrimSpace(resp.Personality)}, nil
}

// GenerateStage 生成某个阶段的故事、图片与选择题
func (c *Client) GenerateStage(ctx context.Context, stageIndex int, userData json.RawMessage) (*models.StagePayload, error) {
	var resp generateStageResponse
	req := generateStageRequest{StageIndex: stageIndex, UserData: userData}
	if err := c.post(ctx, EndpointGenerateStage, req, &resp); err != nil {
		return nil, err
	}

	story := strings.TrimSpace(resp.Story)
	if story == "" {
		return nil, apperrors.NewValidationError("后端返回的故事为空", nil)
	}

	return &models.StagePayload{
		Story:    story,
		Images:   cleanImages(resp.Images),
		Question: strings.TrimSpace(resp.Question),
		Options:  cleanOptions(resp.Options),
	}, nil
}

// GenerateOutcome 根据用户选择生成结局
func (c *Client) GenerateOutcome(ctx context.Context, stageIndex int, userData json.RawMessage, story, choice string) (*OutcomeResult, error) {
	var resp generateOutcomeResponse
	req := generateOutcomeRequest{StageIndex: stageIndex, UserData: userData, Story: story, Choice: choice}
	if err := c.post(ctx, EndpointGenerateOutcome, req, &resp); err != nil {
		return nil, err
	}

	outcome := strings.TrimSpace(resp.Outcome)
	if outcome == "" {
		return nil, apperrors.NewValidationError("后端返回的结局为空", nil)
	}

	result := &OutcomeResult{Outcome: outcome}
	if resp.Image != nil && strings.TrimSpace(resp.Image.Path) != "" {
		image := *resp.Image
		image.Path = strings.TrimSpace(image.Path)
		image.Description = strings.TrimSpace(image.Description)
		result.Image = &image
	}
	return result, nil
}

// LifeReview 生成人生回顾总结
func (c *Client) LifeReview(ctx context.Context, userData json.RawMessage, stages []*models.StageHistoryEntry) (string, error) {
	var resp lifeReviewResponse
	if err := c.post(ctx, EndpointLifeReview, lifeReviewRequest{UserData: userData, Stages: stages}, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Summary), nil
}

// post 发送 JSON 请求并按三类失败归类错误
func (c *Client) post(ctx context.Context, endpoint string, body interface{}, out failer) (err error) {
	ctx, span := c.tracer.Start(ctx, "backend "+endpoint, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("backend.endpoint", endpoint))
	log := c.logger.With(zap.String("endpoint", endpoint))

	started := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(apperrors.TypeOf(err))
			if outcome == "" {
				outcome = "error"
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		utils.ObserveBackendRequest(endpoint, outcome, time.Since(started))
		span.End()
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		log.Error("Failed to marshal request body", zap.Error(err))
		return apperrors.NewProcessingError("序列化请求失败", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewProcessingError("创建请求失败", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Debug("Sending request to backend")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("Backend request failed", zap.Error(err))
		return apperrors.NewTransportError("请求失败", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Warn("Failed to read backend response", zap.Error(err))
		return apperrors.NewTransportError("读取响应失败", err)
	}

	if !isJSONContentType(resp.Header.Get("Content-Type")) {
		log.Warn("Backend returned non-JSON response",
			zap.Int("status", resp.StatusCode),
			zap.String("content_type", resp.Header.Get("Content-Type")))
		return apperrors.NewNonJSONError(preview(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		log.Warn("Failed to decode backend response", zap.Int("status", resp.StatusCode), zap.Error(err))
		return apperrors.NewNonJSONError(preview(raw))
	}

	if failed, message := out.failed(); failed {
		if strings.TrimSpace(message) == "" {
			message = fmt.Sprintf("未知错误（HTTP %d）", resp.StatusCode)
		}
		log.Info("Backend reported failure", zap.Int("status", resp.StatusCode), zap.String("error", message))
		return apperrors.NewBackendError(message)
	}

	return nil
}

func isJSONContentType(value string) bool {
	if value == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// preview 截断原始响应，保证是合法的 UTF-8
func preview(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	if utf8.RuneCountInString(text) <= nonJSONPreviewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:nonJSONPreviewRunes]) + "…"
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 1 && trimmed[0] == '{' && json.Valid(trimmed)
}

func cleanOptions(options []string) []string {
	cleaned := make([]string, 0, len(options))
	for _, option := range options {
		if option = strings.TrimSpace(option); option != "" {
			cleaned = append(cleaned, option)
		}
	}
	return cleaned
}

func cleanImages(images []models.ImageRef) []models.ImageRef {
	cleaned := make([]models.ImageRef, 0, len(images))
	for _, image := range images {
		image.Path = strings.TrimSpace(image.Path)
		if image.Path == "" {
			continue
		}
		image.Description = strings.TrimSpace(image.Description)
		cleaned = append(cleaned, image)
	}
	return cleaned
}
