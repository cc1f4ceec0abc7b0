// internal/trivia/store.go
package trivia

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Corphon/LifeJourney/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/facts.json
var defaultFacts []byte

// Format 数据集文件格式
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Store 只读的冷知识数据集，加载后不再修改
type Store struct {
	stages []models.StageFacts
}

// Default 返回内置数据集
func Default() *Store {
	store, err := Parse(defaultFacts, FormatJSON)
	if err != nil {
		// 内置数据在编译期确定，解析失败属于构建错误
		panic(fmt.Sprintf("内置冷知识数据解析失败: %v", err))
	}
	return store
}

// LoadFile 从文件加载数据集，格式由扩展名决定
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取冷知识数据失败: %w", err)
	}

	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".json", "":
	default:
		return nil, fmt.Errorf("不支持的冷知识数据格式: %s", filepath.Ext(path))
	}

	return Parse(data, format)
}

// Parse 解析数据集内容
func Parse(data []byte, format Format) (*Store, error) {
	var dataset models.TriviaDataset

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &dataset); err != nil {
			return nil, fmt.Errorf("解析YAML失败: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&dataset); err != nil {
			return nil, fmt.Errorf("解析JSON失败: %w", err)
		}
	}

	stages := make([]models.StageFacts, len(dataset.Stages))
	for i, stage := range dataset.Stages {
		facts := make([]models.TriviaRecord, 0, len(stage.Facts))
		for _, fact := range stage.Facts {
			if strings.TrimSpace(fact.Person) == "" || strings.TrimSpace(fact.Text) == "" {
				continue
			}
			facts = append(facts, fact)
		}
		stages[i] = models.StageFacts{Name: stage.Name, AgeRange: stage.AgeRange, Facts: facts}
	}

	return &Store{stages: stages}, nil
}

// Len 返回数据集中的阶段数
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.stages)
}

// Facts 返回阶段对应的事迹列表（调用方不得修改）。
// 先按位置查找，找不到再按阶段名称或年龄区间匹配。
func (s *Store) Facts(stageIndex int, stages []models.Stage) []models.TriviaRecord {
	if s == nil {
		return nil
	}

	if stageIndex >= 0 && stageIndex < len(s.stages) && len(s.stages[stageIndex].Facts) > 0 {
		return s.stages[stageIndex].Facts
	}

	descriptor, ok := models.StageAt(stages, stageIndex)
	if !ok {
		return nil
	}
	for _, stage := range s.stages {
		if len(stage.Facts) == 0 {
			continue
		}
		if (stage.Name != "" && stage.Name == descriptor.Name) ||
			(stage.AgeRange != "" && stage.AgeRange == descriptor.AgeRange) {
			return stage.Facts
		}
	}
	return nil
}
