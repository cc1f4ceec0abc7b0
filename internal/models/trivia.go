// internal/models/trivia.go
package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// TriviaRecord 某个历史人物在特定人生阶段的事迹
type TriviaRecord struct {
	Person string `json:"person" yaml:"person"`
	Age    int    `json:"age" yaml:"age"`
	Year   Year   `json:"year" yaml:"year"`
	Text   string `json:"text" yaml:"text"`
	Source string `json:"source" yaml:"source"`
}

// Year 年份，既可以是数字也可以是纪年标签（如"公元前336"）
type Year string

// UnmarshalJSON 同时接受数字与字符串
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*y = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = Year(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*y = Year(n.String())
	return nil
}

// UnmarshalYAML 同时接受数字与字符串标量
func (y *Year) UnmarshalYAML(value *yaml.Node) error {
	*y = Year(strings.TrimSpace(value.Value))
	return nil
}

// StageFacts 数据集中一个阶段的事迹列表
type StageFacts struct {
	Name     string         `json:"name" yaml:"name"`
	AgeRange string         `json:"ageRange" yaml:"ageRange"`
	Facts    []TriviaRecord `json:"facts" yaml:"facts"`
}

// TriviaDataset 冷知识数据集
type TriviaDataset struct {
	Stages []StageFacts `json:"stages" yaml:"stages"`
}
