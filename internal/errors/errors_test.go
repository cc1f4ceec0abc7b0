package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage("生成故事失败", nil))
	assert.Equal(t, "生成故事失败：quota exceeded", UserMessage("生成故事失败", NewBackendError("quota exceeded")))
	assert.Equal(t, "<html> 502 </html>", UserMessage("", NewNonJSONError("<html>\n  502\n</html>")))
	assert.Equal(t, "连接失败：boom", UserMessage("连接失败", errors.New("boom")))

	transport := NewTransportError("请求失败", errors.New("dial tcp: connection refused"))
	assert.Equal(t, "获取测试题失败：dial tcp: connection refused", UserMessage("获取测试题失败", transport))
}

func TestTypeChecksFollowWrapping(t *testing.T) {
	wrapped := fmt.Errorf("外层: %w", NewNotFoundError("存档不存在", nil))

	assert.True(t, IsNotFoundError(wrapped))
	assert.False(t, IsValidationError(wrapped))
	assert.Equal(t, ErrorTypeNotFound, TypeOf(wrapped))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))

	assert.True(t, IsBackendFailure(NewNonJSONError("x")))
	assert.False(t, IsBackendFailure(NewConflictError("x", nil)))
}

func TestAppErrorFormatting(t *testing.T) {
	inner := errors.New("磁盘已满")
	err := NewProcessingError("保存失败", inner)

	assert.Equal(t, "保存失败: 磁盘已满", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.NotEmpty(t, err.Code)
}
