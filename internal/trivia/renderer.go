// internal/trivia/renderer.go
package trivia

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/Corphon/LifeJourney/internal/models"
	"golang.org/x/text/language"
)

// DefaultCount 每个面板默认展示的事迹条数
const DefaultCount = 3

// Phrasing 面板中固定的措辞
type Phrasing struct {
	Heading     string   // 面板标题
	Lead        string   // 句首引导语
	StagePrefix string   // 阶段前缀，%s 为阶段名
	Joiner      string   // 不加阶段前缀时人物与正文之间的分隔
	SourceLabel string   // 来源行前缀
	StageHints  []string // 文本已含这些词时不再加阶段前缀
}

var (
	chinesePhrasing = Phrasing{
		Heading:     "你知道吗？同龄人的人生片段",
		Lead:        "你知道吗？",
		StagePrefix: "在%s",
		SourceLabel: "来源：",
		StageHints: []string{
			"幼儿", "幼年", "童年", "儿时", "小时候",
			"少年", "青少年", "青春",
			"青年", "年轻",
			"中年", "壮年",
		},
	}

	englishPhrasing = Phrasing{
		Heading:     "Did you know?",
		Lead:        "You know? ",
		StagePrefix: " during %s ",
		Joiner:      " ",
		SourceLabel: "Source: ",
		StageHints: []string{
			"childhood", "as a child", "infancy",
			"teen", "adolescen", "youth",
			"young adult", "twenties",
			"midlife", "middle age", "middle-aged",
		},
	}
)

// PhrasingFor 按语言选择措辞
func PhrasingFor(tag language.Tag) Phrasing {
	_, index, confidence := localeMatcher.Match(tag)
	if confidence != language.No && index == 1 {
		return englishPhrasing
	}
	return chinesePhrasing
}

// Entry 面板中的一条事迹
type Entry struct {
	Person      string `json:"person"`
	StageLabel  string `json:"stage_label"`
	Attribution string `json:"attribution"`
	Sentence    string `json:"sentence"`
	Source      string `json:"source,omitempty"`
}

// Panel 一个阶段的冷知识面板
type Panel struct {
	StageIndex int     `json:"stage_index"`
	Heading    string  `json:"heading"`
	Entries    []Entry `json:"entries"`
}

// Renderer 组合抽样、清洗与排版，除全局随机源外无副作用
type Renderer struct {
	store     *Store
	stages    []models.Stage
	sanitizer *Sanitizer
	phrasing  Phrasing
}

// NewRenderer 创建渲染器
func NewRenderer(store *Store, stages []models.Stage, tag language.Tag) *Renderer {
	if stages == nil {
		stages = models.DefaultStages
	}
	return &Renderer{
		store:     store,
		stages:    stages,
		sanitizer: NewSanitizer(tag),
		phrasing:  PhrasingFor(tag),
	}
}

var panelTemplate = template.Must(template.New("fact-panel").Parse(
	`<div class="fact-panel"><h3 class="fact-heading">{{.Heading}}</h3><ul class="fact-list">` +
		`{{range .Entries}}<li class="fact-entry">` +
		`<div class="fact-meta">{{.Attribution}}</div>` +
		`<p class="fact-text">{{.Sentence}}</p>` +
		`{{if .Source}}<div class="fact-source">{{$.SourceLabel}}{{.Source}}</div>{{end}}` +
		`</li>{{end}}</ul></div>`))

// Build 抽样并组装面板，没有可用数据时返回 false
func (r *Renderer) Build(stageIndex, count int) (Panel, bool) {
	facts := r.store.Facts(stageIndex, r.stages)
	if len(facts) == 0 || count <= 0 {
		return Panel{}, false
	}

	label := r.stageLabel(stageIndex)
	sampled := Sample(facts, count)

	panel := Panel{
		StageIndex: stageIndex,
		Heading:    r.phrasing.Heading,
		Entries:    make([]Entry, 0, len(sampled)),
	}
	for _, record := range sampled {
		text := r.sanitizer.Sanitize(record.Text)
		panel.Entries = append(panel.Entries, Entry{
			Person:      record.Person,
			StageLabel:  label,
			Attribution: record.Person + " · " + label,
			Sentence:    r.compose(record.Person, label, text),
			Source:      strings.TrimSpace(record.Source),
		})
	}
	return panel, true
}

// Render 返回面板的 HTML 片段；空字符串表示调用方应省略面板
func (r *Renderer) Render(stageIndex, count int) template.HTML {
	panel, ok := r.Build(stageIndex, count)
	if !ok {
		return ""
	}

	var buf bytes.Buffer
	err := panelTemplate.Execute(&buf, struct {
		Panel
		SourceLabel string
	}{panel, r.phrasing.SourceLabel})
	if err != nil {
		// 冷知识只是装饰，失败时静默省略
		return ""
	}
	return template.HTML(buf.String())
}

func (r *Renderer) compose(person, label, text string) string {
	var b strings.Builder
	b.WriteString(r.phrasing.Lead)
	b.WriteString(person)
	if label != "" && !r.mentionsStage(text, label) {
		b.WriteString(fmt.Sprintf(r.phrasing.StagePrefix, label))
	} else {
		b.WriteString(r.phrasing.Joiner)
	}
	b.WriteString(text)
	return strings.TrimSpace(b.String())
}

func (r *Renderer) mentionsStage(text, label string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, strings.ToLower(label)) {
		return true
	}
	for _, hint := range r.phrasing.StageHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func (r *Renderer) stageLabel(stageIndex int) string {
	if stage, ok := models.StageAt(r.stages, stageIndex); ok {
		return stage.Name
	}
	return ""
}
