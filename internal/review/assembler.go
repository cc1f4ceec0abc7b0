// internal/review/assembler.go
package review

import "github.com/Corphon/LifeJourney/internal/models"

// AssembleFrames 把各阶段历史展开成回顾漫画的帧序列。
// 空条目直接跳过；每个阶段先是故事图片（保持原顺序），再是结局图片。
// 返回空切片时调用方应渲染占位内容。
func AssembleFrames(history []*models.StageHistoryEntry) []models.ReviewFrame {
	frames := make([]models.ReviewFrame, 0, len(history)*3)

	for _, entry := range history {
		if entry == nil {
			continue
		}

		for _, image := range entry.Images {
			frames = append(frames, models.ReviewFrame{
				StageIndex: entry.StageIndex,
				StageLabel: entry.Stage.Name,
				Kind:       models.FrameStory,
				Image:      image,
			})
		}

		if entry.OutcomeImage != nil {
			frames = append(frames, models.ReviewFrame{
				StageIndex: entry.StageIndex,
				StageLabel: entry.Stage.Name,
				Kind:       models.FrameOutcome,
				Image:      *entry.OutcomeImage,
			})
		}
	}

	return frames
}
