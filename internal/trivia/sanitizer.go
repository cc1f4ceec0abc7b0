// internal/trivia/sanitizer.go
package trivia

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

// 替换规则按顺序执行
type rule struct {
	pattern *regexp.Regexp
	replace string
}

// Sanitizer 去掉事迹文本中的年龄、年份片段，便于重新加上阶段前缀
type Sanitizer struct {
	rules []rule
}

// 紧跟在年龄、年份之后的时间助词，随前面的片段一起删除
const chineseTrailer = `(?:的时候|时候|之时|那年|时|左右)?(?:就|便)?`

var (
	chineseRules = []rule{
		// 公元前336年 / 公元1905年 / 前221年
		{regexp.MustCompile(`(?:公元前|公元|前)\s*\d+\s*年(?:代)?` + chineseTrailer), ""},
		// 1905年
		{regexp.MustCompile(`\d{3,4}\s*年(?:代)?` + chineseTrailer), ""},
		// 26岁 / 5 岁时就
		{regexp.MustCompile(`\d+\s*(?:周岁|岁)` + chineseTrailer), ""},
		// 删除后残留在句首的连接标点
		{regexp.MustCompile(`^[\s，,、；;：:。]+`), ""},
		{regexp.MustCompile(`\s{2,}`), " "},
	}

	englishRules = []rule{
		// in 336 BC / in 1905 AD
		{regexp.MustCompile(`(?i)\b(?:in\s+)?(?:the\s+year\s+)?\d+\s*(?:BC|BCE|AD|CE)\b`), ""},
		// in 1905 / in the year 1905 / 句首的 1905
		{regexp.MustCompile(`(?i)\b(?:in\s+(?:the\s+year\s+)?|the\s+year\s+)\d{3,4}\b`), ""},
		{regexp.MustCompile(`^\d{3,4}\b`), ""},
		// at age 5 / aged 5 / at 5 years old
		{regexp.MustCompile(`(?i)\b(?:at\s+)?(?:the\s+)?(?:age\s+of|age|aged)\s+\d+\b`), ""},
		{regexp.MustCompile(`(?i)\b(?:at\s+)?\d+\s*(?:years?\s+old|yrs?\s+old)\b`), ""},
		{regexp.MustCompile(`(?i)^(?:[\s,;:.]|when\b|then\b)+`), ""},
		{regexp.MustCompile(`\s{2,}`), " "},
		{regexp.MustCompile(`\s+([,.;:])`), "$1"},
	}

	localeMatcher = language.NewMatcher([]language.Tag{language.Chinese, language.English})

	defaultSanitizer = &Sanitizer{rules: chineseRules}
)

// NewSanitizer 按语言选择替换规则，无法匹配时退回中文规则
func NewSanitizer(tag language.Tag) *Sanitizer {
	_, index, confidence := localeMatcher.Match(tag)
	if confidence == language.No {
		return defaultSanitizer
	}
	if index == 1 {
		return &Sanitizer{rules: englishRules}
	}
	return defaultSanitizer
}

// Sanitize 使用中文规则清洗文本
func Sanitize(text string) string {
	return defaultSanitizer.Sanitize(text)
}

// Sanitize 反复执行规则直到文本不再变化，因此结果是幂等的
func (s *Sanitizer) Sanitize(text string) string {
	current := strings.TrimSpace(text)
	if current == "" {
		return ""
	}

	for {
		next := current
		for _, r := range s.rules {
			next = r.pattern.ReplaceAllString(next, r.replace)
		}
		next = strings.TrimSpace(next)
		if next == current {
			return next
		}
		current = next
	}
}
