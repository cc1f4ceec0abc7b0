// internal/storage/archive.go
package storage

import (
	"context"
	"regexp"

	apperrors "github.com/Corphon/LifeJourney/internal/errors"
	"github.com/Corphon/LifeJourney/internal/models"
)

// Archive 完成旅程的存档
type Archive interface {
	Save(ctx context.Context, record *models.JourneyRecord) error
	Load(ctx context.Context, id string) (*models.JourneyRecord, error)
	// List 按完成时间倒序返回最多 limit 条存档；limit <= 0 表示不限制
	List(ctx context.Context, limit int) ([]models.JourneySummary, error)
}

// 存档 ID 由 uuid 生成，只接受该字符集，避免路径穿越
var archiveIDPattern = regexp.MustCompile(`^[0-9a-fA-F-]{8,64}$`)

func validateID(id string) error {
	if !archiveIDPattern.MatchString(id) {
		return apperrors.NewValidationError("无效的存档ID", nil)
	}
	return nil
}
