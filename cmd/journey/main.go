// cmd/journey/main.go
package main

import (
	"fmt"
	"os"

	"github.com/Corphon/LifeJourney/internal/utils"
	"github.com/spf13/cobra"
)

var (
	flagBackend string
	flagLocale  string
	flagFacts   string
	flagVerbose bool
)

// rootCmd 终端版人生旅程
var rootCmd = &cobra.Command{
	Use:   "journey",
	Short: "在终端里体验人生旅程",
	Long: `在终端里体验人生旅程。

可用子命令:
  play  - 从基础信息开始完整走一遍四个人生阶段
  facts - 查看某个阶段的冷知识面板`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if flagVerbose {
			level = "debug"
		}
		return utils.InitLogger(utils.LoggerConfig{Level: level, Encoding: "console"})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLocale, "locale", "", "冷知识措辞语言 (默认读取 FACT_LOCALE)")
	rootCmd.PersistentFlags().StringVar(&flagFacts, "facts-file", "", "冷知识数据文件 (JSON/YAML)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "输出调试日志")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(factsCmd)
}

func main() {
	defer utils.GetLogger().Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
