// cmd/journey/facts.go
package main

import (
	"encoding/json"
	"fmt"

	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/Corphon/LifeJourney/internal/trivia"
	"github.com/spf13/cobra"
)

var (
	factsStage  int
	factsCount  int
	factsFormat string
)

// factsCmd 查看阶段冷知识
var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "查看某个阶段的冷知识面板",
	Long: `随机抽取某个人生阶段的名人事迹，按面板格式输出。

阶段编号从 1 开始：
  1 幼儿时期  2 少年时期  3 青年时期  4 中年时期`,
	Example: `  journey facts --stage 2 --count 5
  journey facts --stage 4 --format html`,
	RunE: runFacts,
}

func init() {
	factsCmd.Flags().IntVarP(&factsStage, "stage", "s", 1, "阶段编号 (1-4)")
	factsCmd.Flags().IntVarP(&factsCount, "count", "n", trivia.DefaultCount, "抽取条数")
	factsCmd.Flags().StringVarP(&factsFormat, "format", "f", "text", "输出格式: text, html, json")
}

func runFacts(cmd *cobra.Command, args []string) error {
	index := factsStage - 1
	if _, ok := models.StageAt(models.DefaultStages, index); !ok {
		return fmt.Errorf("阶段编号超出范围: %d", factsStage)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch factsFormat {
	case "html":
		fmt.Fprintln(out, string(renderer.Render(index, factsCount)))
	case "json":
		panel, _ := renderer.Build(index, factsCount)
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(panel)
	case "text", "":
		panel, ok := renderer.Build(index, factsCount)
		if !ok {
			fmt.Fprintln(out, mutedStyle.Render("这个阶段暂时没有冷知识"))
			return nil
		}
		printPanel(out, panel)
	default:
		return fmt.Errorf("不支持的输出格式: %s", factsFormat)
	}
	return nil
}
