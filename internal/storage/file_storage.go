// internal/storage/file_storage.go
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/Corphon/LifeJourney/internal/errors"
	"github.com/Corphon/LifeJourney/internal/models"
)

// FileArchive 以 JSON 文件保存旅程存档，每个存档一个文件
type FileArchive struct {
	BaseDir string

	// 文件级别锁 path -> *sync.RWMutex
	fileLocks sync.Map

	// 读缓存
	cache        map[string]*CacheEntry
	cacheMutex   sync.RWMutex
	cacheExpiry  time.Duration
	maxCacheSize int
}

// CacheEntry 缓存条目
type CacheEntry struct {
	Record    *models.JourneyRecord
	Timestamp time.Time
}

// NewFileArchive 创建文件存档
func NewFileArchive(baseDir string) (*FileArchive, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}

	return &FileArchive{
		BaseDir:      baseDir,
		cache:        make(map[string]*CacheEntry),
		cacheExpiry:  5 * time.Minute,
		maxCacheSize: 100,
	}, nil
}

func (fa *FileArchive) getFileLock(fullPath string) *sync.RWMutex {
	value, _ := fa.fileLocks.LoadOrStore(fullPath, &sync.RWMutex{})
	return value.(*sync.RWMutex)
}

func (fa *FileArchive) pathFor(id string) string {
	return filepath.Join(fa.BaseDir, id+".json")
}

// Save 原子写入存档文件
func (fa *FileArchive) Save(ctx context.Context, record *models.JourneyRecord) error {
	if record == nil {
		return apperrors.NewValidationError("存档为空", nil)
	}
	if err := validateID(record.ID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	fullPath := fa.pathFor(record.ID)
	lock := fa.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return fmt.Errorf("保存临时文件失败: %w", err)
	}
	if err := os.Rename(tempPath, fullPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("保存文件失败: %w", err)
	}

	fa.invalidateCache(record.ID)
	return nil
}

// Load 读取存档
func (fa *FileArchive) Load(ctx context.Context, id string) (*models.JourneyRecord, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	if record, ok := fa.cached(id); ok {
		return record, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath := fa.pathFor(id)
	lock := fa.getFileLock(fullPath)
	lock.RLock()
	defer lock.RUnlock()

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("存档不存在: "+id, err)
		}
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}

	var record models.JourneyRecord
	if err := json.Unmarshal(content, &record); err != nil {
		return nil, fmt.Errorf("解析JSON失败: %w", err)
	}

	fa.updateCache(id, &record)
	return &record, nil
}

// List 列出存档摘要，按完成时间倒序
func (fa *FileArchive) List(ctx context.Context, limit int) ([]models.JourneySummary, error) {
	entries, err := os.ReadDir(fa.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("读取目录失败: %w", err)
	}

	summaries := make([]models.JourneySummary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		record, err := fa.Load(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			// 单个损坏的存档不影响列表
			continue
		}
		summaries = append(summaries, record.Summarize())
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CompletedAt.After(summaries[j].CompletedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func (fa *FileArchive) cached(id string) (*models.JourneyRecord, bool) {
	fa.cacheMutex.RLock()
	defer fa.cacheMutex.RUnlock()

	entry, exists := fa.cache[id]
	if !exists || time.Since(entry.Timestamp) >= fa.cacheExpiry {
		return nil, false
	}
	return entry.Record, true
}

// 缓存管理
func (fa *FileArchive) updateCache(id string, record *models.JourneyRecord) {
	fa.cacheMutex.Lock()
	defer fa.cacheMutex.Unlock()

	fa.cache[id] = &CacheEntry{Record: record, Timestamp: time.Now()}

	if len(fa.cache) > fa.maxCacheSize {
		// 删除最老的条目
		var oldestKey string
		var oldestTime time.Time
		for key, entry := range fa.cache {
			if oldestKey == "" || entry.Timestamp.Before(oldestTime) {
				oldestKey = key
				oldestTime = entry.Timestamp
			}
		}
		delete(fa.cache, oldestKey)
	}
}

func (fa *FileArchive) invalidateCache(id string) {
	fa.cacheMutex.Lock()
	defer fa.cacheMutex.Unlock()
	delete(fa.cache, id)
}
