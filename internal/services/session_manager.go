// internal/services/session_manager.go
package services

import (
	"context"
	"sync"
	"time"

	"github.com/Corphon/LifeJourney/internal/journey"
	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/Corphon/LifeJourney/internal/utils"
)

// SessionManager 按会话ID保存进行中的旅程，超过 TTL 未活动的会话会被清理
type SessionManager struct {
	sessions   map[string]*journey.Session
	globalLock sync.RWMutex
	sessionTTL time.Duration
	stages     []models.Stage
}

// NewSessionManager 创建会话管理器
func NewSessionManager(ttl time.Duration, stages []models.Stage) *SessionManager {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &SessionManager{
		sessions:   make(map[string]*journey.Session),
		sessionTTL: ttl,
		stages:     stages,
	}
}

// Get 获取会话
func (sm *SessionManager) Get(id string) (*journey.Session, bool) {
	sm.globalLock.RLock()
	defer sm.globalLock.RUnlock()
	session, exists := sm.sessions[id]
	return session, exists
}

// GetOrCreate 获取会话，不存在时创建（线程安全）
func (sm *SessionManager) GetOrCreate(id string) *journey.Session {
	if session, exists := sm.Get(id); exists {
		return session
	}

	sm.globalLock.Lock()
	defer sm.globalLock.Unlock()

	// 双重检查
	if session, exists := sm.sessions[id]; exists {
		return session
	}

	session := journey.NewSession(id, sm.stages)
	sm.sessions[id] = session
	utils.SetActiveSessions(len(sm.sessions))
	return session
}

// Delete 删除会话
func (sm *SessionManager) Delete(id string) {
	sm.globalLock.Lock()
	defer sm.globalLock.Unlock()
	delete(sm.sessions, id)
	utils.SetActiveSessions(len(sm.sessions))
}

// Len 当前会话数
func (sm *SessionManager) Len() int {
	sm.globalLock.RLock()
	defer sm.globalLock.RUnlock()
	return len(sm.sessions)
}

// Sweep 清理在 now 之前超过 TTL 未活动的会话，返回清理数量。
// 加载中的会话不清理，以免后台请求写入已丢弃的会话。
func (sm *SessionManager) Sweep(now time.Time) int {
	sm.globalLock.Lock()
	defer sm.globalLock.Unlock()

	removed := 0
	for id, session := range sm.sessions {
		if session.State().Loading() {
			continue
		}
		if now.Sub(session.UpdatedAt()) > sm.sessionTTL {
			delete(sm.sessions, id)
			removed++
		}
	}
	utils.SetActiveSessions(len(sm.sessions))
	return removed
}

// Run 定期清理过期会话，直到 ctx 结束
func (sm *SessionManager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if removed := sm.Sweep(now); removed > 0 {
				utils.GetLogger().Info("expired sessions removed", map[string]interface{}{
					"removed":   removed,
					"remaining": sm.Len(),
				})
			}
		}
	}
}
