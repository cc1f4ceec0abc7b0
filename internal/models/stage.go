// internal/models/stage.go
package models

// Stage 人生阶段描述
type Stage struct {
	Name     string `json:"name"`      // 阶段名称，如"幼儿时期"
	AgeRange string `json:"age_range"` // 年龄区间标签，如"0-12岁"
}

// DefaultStages 固定的四个人生阶段，按顺序推进
var DefaultStages = []Stage{
	{Name: "幼儿时期", AgeRange: "0-12岁"},
	{Name: "少年时期", AgeRange: "13-24岁"},
	{Name: "青年时期", AgeRange: "25-36岁"},
	{Name: "中年时期", AgeRange: "37-50岁"},
}

// StageAt 返回索引对应的阶段，越界返回 false
func StageAt(stages []Stage, index int) (Stage, bool) {
	if index < 0 || index >= len(stages) {
		return Stage{}, false
	}
	return stages[index], true
}
