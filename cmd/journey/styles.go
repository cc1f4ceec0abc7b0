// cmd/journey/styles.go
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Corphon/LifeJourney/internal/config"
	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/Corphon/LifeJourney/internal/trivia"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)

	stageStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	textStyle = lipgloss.NewStyle().
			Width(72)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F87"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(72)
)

// newRenderer 按命令行参数与环境变量创建冷知识渲染器
func newRenderer(cfg *config.Config) (*trivia.Renderer, error) {
	store := trivia.Default()
	path := flagFacts
	if path == "" && cfg != nil {
		path = cfg.FactsFile
	}
	if path != "" {
		loaded, err := trivia.LoadFile(path)
		if err != nil {
			return nil, err
		}
		store = loaded
	}

	locale := flagLocale
	if locale == "" && cfg != nil {
		locale = cfg.FactLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Chinese
	}
	return trivia.NewRenderer(store, models.DefaultStages, tag), nil
}

// printPanel 在终端中绘制冷知识面板；没有数据时不输出
func printPanel(out io.Writer, panel trivia.Panel) {
	if len(panel.Entries) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(panel.Heading))
	for _, entry := range panel.Entries {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(entry.Attribution))
		b.WriteString("\n")
		b.WriteString(entry.Sentence)
		if entry.Source != "" {
			b.WriteString("\n")
			b.WriteString(mutedStyle.Render("来源：" + entry.Source))
		}
		b.WriteString("\n")
	}
	fmt.Fprintln(out, panelStyle.Render(strings.TrimRight(b.String(), "\n")))
}
