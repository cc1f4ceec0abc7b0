// internal/api/auth_middleware.go
package api

import (
	"fmt"
	"net/http"

	"github.com/Corphon/LifeJourney/internal/auth"
	"github.com/Corphon/LifeJourney/internal/config"
	"github.com/Corphon/LifeJourney/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName = "lj_session"
	sessionContextKey = "session_id"
)

// SessionAuth 用签名 Cookie 标识匿名访客
type SessionAuth struct {
	tokens *auth.TokenConfig
	secure bool
}

// NewSessionAuth 根据配置创建会话认证。
// 未设置 SESSION_SECRET 时，调试模式使用固定密钥，否则每次启动随机生成。
func NewSessionAuth(cfg *config.Config) (*SessionAuth, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	var secret []byte
	switch {
	case cfg.SessionSecret != "":
		secret = []byte(cfg.SessionSecret)
	case cfg.DebugMode:
		secret = []byte("dev_session_key_for_testing_purposes_only")
		utils.GetLogger().Warn("开发模式下使用固定会话密钥，生产环境请设置 SESSION_SECRET", nil)
	default:
		key, err := auth.GenerateSecureKey(32)
		if err != nil {
			return nil, fmt.Errorf("生成会话密钥失败: %w", err)
		}
		secret = key
	}

	return &SessionAuth{
		tokens: &auth.TokenConfig{Secret: secret, Expiration: cfg.SessionTTL},
		secure: !cfg.DebugMode,
	}, nil
}

// Middleware 读取会话 Cookie；缺失或无效时签发新会话
func (sa *SessionAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(sessionCookieName); err == nil && token != "" {
			if sessionID, err := auth.ParseToken(token, sa.tokens); err == nil {
				c.Set(sessionContextKey, sessionID)
				c.Next()
				return
			}
		}

		sessionID := auth.NewSessionID()
		token, err := auth.GenerateToken(sessionID, sa.tokens)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, &APIResponse{
				Success: false,
				Error:   &APIError{Code: ErrorInternalError, Message: "创建会话失败"},
			})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookieName, token, int(sa.tokens.Expiration.Seconds()), "/", "", sa.secure, true)
		c.Set(sessionContextKey, sessionID)
		c.Next()
	}
}

// SessionFromContext 返回当前请求的会话ID
func SessionFromContext(c *gin.Context) string {
	return c.GetString(sessionContextKey)
}
