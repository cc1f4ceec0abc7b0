// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType 定义错误类型
type ErrorType string

const (
	// 通用错误类型
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeError      ErrorType = "processing_error"
	ErrorTypeConflict   ErrorType = "conflict"

	// 后端协作方错误类型
	ErrorTypeTransport ErrorType = "transport_error"   // 请求被拒绝或网络异常
	ErrorTypeNonJSON   ErrorType = "non_json_response" // 响应不是 JSON
	ErrorTypeBackend   ErrorType = "backend_error"     // success:false

	// 流程错误
	ErrorTypeInvalidTransition ErrorType = "invalid_transition"
)

// AppError 应用程序错误结构
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string // 用户友好的错误代码
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 实现错误链接
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError 创建新的 AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewValidationError 创建验证错误
func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

// NewNotFoundError 创建未找到错误
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewProcessingError 创建处理错误
func NewProcessingError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeError, message, originalError)
}

// NewConflictError 创建冲突错误
func NewConflictError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeConflict, message, originalError)
}

// NewTransportError 创建网络传输错误
func NewTransportError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeTransport, message, originalError)
}

// NewNonJSONError 创建非 JSON 响应错误，message 中携带（截断后的）原始响应
func NewNonJSONError(message string) *AppError {
	return NewAppError(ErrorTypeNonJSON, message, nil)
}

// NewBackendError 创建后端业务失败错误
func NewBackendError(message string) *AppError {
	return NewAppError(ErrorTypeBackend, message, nil)
}

// NewInvalidTransitionError 创建非法状态迁移错误
func NewInvalidTransitionError(message string) *AppError {
	return NewAppError(ErrorTypeInvalidTransition, message, nil)
}

// IsValidationError 检查是否为验证错误
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsNotFoundError 检查是否为未找到错误
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsConflictError 检查是否为冲突错误
func IsConflictError(err error) bool {
	return isType(err, ErrorTypeConflict)
}

// IsInvalidTransitionError 检查是否为非法状态迁移
func IsInvalidTransitionError(err error) bool {
	return isType(err, ErrorTypeInvalidTransition)
}

// IsBackendFailure 检查错误是否来自后端协作方（三类失败统一处理）
func IsBackendFailure(err error) bool {
	return isType(err, ErrorTypeTransport) || isType(err, ErrorTypeNonJSON) || isType(err, ErrorTypeBackend)
}

func isType(err error, t ErrorType) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == t
	}
	return false
}

// TypeOf 返回错误类型，非 AppError 返回空字符串
func TypeOf(err error) ErrorType {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type
	}
	return ""
}

// generateErrorCode 根据错误类型生成错误代码
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeError:
		return "PROCESSING_ERROR"
	case ErrorTypeConflict:
		return "CONFLICT"
	case ErrorTypeTransport:
		return "BACKEND_UNREACHABLE"
	case ErrorTypeNonJSON:
		return "BACKEND_NON_JSON"
	case ErrorTypeBackend:
		return "BACKEND_FAILED"
	case ErrorTypeInvalidTransition:
		return "INVALID_TRANSITION"
	default:
		return "UNKNOWN_ERROR"
	}
}

// UserMessage 生成展示给用户的一行失败提示，例如 "生成故事失败：quota exceeded"
func UserMessage(action string, err error) string {
	if err == nil {
		return ""
	}

	detail := err.Error()
	var appError *AppError
	if errors.As(err, &appError) {
		detail = appError.Message
		if appError.Type == ErrorTypeTransport && appError.Err != nil {
			detail = appError.Err.Error()
		}
	}
	detail = strings.Join(strings.Fields(detail), " ")

	if action == "" {
		return detail
	}
	return action + "：" + detail
}
