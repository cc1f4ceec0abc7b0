// internal/api/error_codes.go
package api

// API错误代码常量
const (
	// 通用错误
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorConflict      = "CONFLICT"
	ErrorRateLimited   = "RATE_LIMIT_EXCEEDED"

	// 旅程相关错误
	ErrorInvalidTransition = "INVALID_TRANSITION"
	ErrorInvalidEvent      = "INVALID_EVENT"
	ErrorStageNotFound     = "STAGE_NOT_FOUND"
	ErrorJourneyNotFound   = "JOURNEY_NOT_FOUND"

	// 生成后端相关错误
	ErrorBackendUnreachable = "BACKEND_UNREACHABLE"
	ErrorBackendNonJSON     = "BACKEND_NON_JSON"
	ErrorBackendFailed      = "BACKEND_FAILED"
)
