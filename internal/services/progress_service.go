// internal/services/progress_service.go
package services

import (
	"sync"

	"github.com/Corphon/LifeJourney/internal/journey"
)

// StateUpdate 推送给页面的状态变化
type StateUpdate struct {
	Type       string        `json:"type"`
	State      journey.State `json:"state"`
	StageIndex int           `json:"stage_index"`
	Progress   int           `json:"progress"`
	Loading    bool          `json:"loading"`
	LastError  string        `json:"last_error,omitempty"`
}

// ProgressService 把会话状态变化分发给订阅者，实现 journey.Notifier
type ProgressService struct {
	subscribers map[string]map[chan StateUpdate]bool
	mutex       sync.RWMutex
}

// NewProgressService 创建进度服务实例
func NewProgressService() *ProgressService {
	return &ProgressService{
		subscribers: make(map[string]map[chan StateUpdate]bool),
	}
}

// Publish 通知会话的所有订阅者
func (s *ProgressService) Publish(sessionID string, snap journey.Snapshot) {
	update := StateUpdate{
		Type:       "state",
		State:      snap.State,
		StageIndex: snap.StageIndex,
		Progress:   snap.Progress,
		Loading:    snap.Loading,
		LastError:  snap.LastError,
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for subscriber := range s.subscribers[sessionID] {
		// 非阻塞发送，如果通道已满则跳过
		select {
		case subscriber <- update:
		default:
		}
	}
}

// Subscribe 订阅会话的状态变化
func (s *ProgressService) Subscribe(sessionID string) chan StateUpdate {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	// 缓冲区设为10以避免阻塞
	subscriber := make(chan StateUpdate, 10)
	if s.subscribers[sessionID] == nil {
		s.subscribers[sessionID] = make(map[chan StateUpdate]bool)
	}
	s.subscribers[sessionID][subscriber] = true
	return subscriber
}

// Unsubscribe 取消订阅并关闭通道
func (s *ProgressService) Unsubscribe(sessionID string, subscriber chan StateUpdate) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	subs, exists := s.subscribers[sessionID]
	if !exists || !subs[subscriber] {
		return
	}
	delete(subs, subscriber)
	if len(subs) == 0 {
		delete(s.subscribers, sessionID)
	}
	close(subscriber)
}

// SubscriberCount 会话当前的订阅数
func (s *ProgressService) SubscriberCount(sessionID string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.subscribers[sessionID])
}
