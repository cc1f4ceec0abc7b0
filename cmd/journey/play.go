// cmd/journey/play.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/Corphon/LifeJourney/internal/backend"
	"github.com/Corphon/LifeJourney/internal/config"
	"github.com/Corphon/LifeJourney/internal/journey"
	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/Corphon/LifeJourney/internal/storage"
	"github.com/Corphon/LifeJourney/internal/trivia"
	"github.com/Corphon/LifeJourney/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var flagSave bool

// playCmd 交互式走完一段人生
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "在终端中开始一段人生旅程",
	Long: `依次填写基础信息、完成性格测试，然后逐个阶段阅读故事并做出选择。

任意输入处可以使用:
  /restart - 清空进度重新开始
  /quit    - 退出`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagBackend, "backend", "", "生成后端地址 (默认读取 BACKEND_URL)")
	playCmd.Flags().BoolVar(&flagSave, "save", false, "完成后把旅程存档到 DATA_DIR")
}

var (
	errQuit    = errors.New("quit")
	errRestart = errors.New("restart")
)

// loadConfig 读取环境配置，环境变量无效时直接报错而不是退回默认值
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}
	return cfg, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backendURL := flagBackend
	if backendURL == "" {
		backendURL = cfg.BackendURL
	}
	client, err := backend.NewClient(backendURL, cfg.BackendTimeout, utils.GetLogger().Zap())
	if err != nil {
		return err
	}

	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	opts := []journey.Option{journey.WithLogger(utils.GetLogger().Named("journey"))}
	if flagSave {
		archive, err := storage.NewFileArchive(cfg.ArchiveDir())
		if err != nil {
			return err
		}
		opts = append(opts, journey.WithArchiver(archive))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	p := &player{
		in:         bufio.NewScanner(cmd.InOrStdin()),
		out:        cmd.OutOrStdout(),
		controller: journey.NewController(client, opts...),
		facts:      renderer,
		factCount:  cfg.FactCount,
		session:    journey.NewSession(uuid.NewString(), models.DefaultStages),
	}
	return p.run(ctx)
}

// player 终端交互循环，每一步都同步等待后端
type player struct {
	in         *bufio.Scanner
	out        io.Writer
	controller *journey.Controller
	facts      *trivia.Renderer
	factCount  int
	session    *journey.Session
}

func (p *player) run(ctx context.Context) error {
	fmt.Fprintln(p.out, titleStyle.Render("人生旅程"))

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		snap := p.session.Snapshot()
		if snap.State == journey.StateReview {
			p.showReview(snap)
			return nil
		}

		ev, err := p.next(snap)
		switch {
		case errors.Is(err, errQuit):
			fmt.Fprintln(p.out, mutedStyle.Render("已退出"))
			return nil
		case errors.Is(err, errRestart):
			ev = journey.Event{Kind: journey.EventRestarted}
		case err != nil:
			return err
		}

		p.showFacts(snap, ev)

		after, err := p.controller.Dispatch(ctx, p.session, ev)
		if err != nil {
			msg := after.LastError
			if msg == "" {
				msg = err.Error()
			}
			fmt.Fprintln(p.out, errorStyle.Render(msg))
		}
	}
}

// next 根据当前状态提示输入，返回下一个事件
func (p *player) next(snap journey.Snapshot) (journey.Event, error) {
	switch snap.State {
	case journey.StateStart:
		return p.askBasicInfo()

	case journey.StateQuiz:
		return p.askQuiz(snap.Questions)

	case journey.StatePersonality:
		fmt.Fprintln(p.out, titleStyle.Render("你的性格画像"))
		fmt.Fprintln(p.out, textStyle.Render(snap.Personality))
		if _, err := p.ask("按回车开始人生旅程"); err != nil {
			return journey.Event{}, err
		}
		return journey.Event{Kind: journey.EventJourneyStarted}, nil

	case journey.StateStoryShown, journey.StateChoicePending:
		return p.askChoice(snap)

	case journey.StateOutcomeShown:
		p.showOutcome(snap)
		if snap.IsLastStage {
			if _, err := p.ask("按回车查看人生回顾"); err != nil {
				return journey.Event{}, err
			}
			return journey.Event{Kind: journey.EventReviewRequested}, nil
		}
		if _, err := p.ask("按回车进入下一阶段"); err != nil {
			return journey.Event{}, err
		}
		return journey.Event{Kind: journey.EventStageAdvanced}, nil
	}

	return journey.Event{}, fmt.Errorf("意外的状态: %s", snap.State)
}

func (p *player) askBasicInfo() (journey.Event, error) {
	info := &models.BasicInfo{}
	prompts := []struct {
		label  string
		target *string
	}{
		{"性别 (男/女)", &info.Gender},
		{"MBTI", &info.MBTI},
		{"星座", &info.Zodiac},
		{"家庭背景", &info.Background},
	}
	for _, prompt := range prompts {
		value, err := p.ask(prompt.label)
		if err != nil {
			return journey.Event{}, err
		}
		*prompt.target = value
	}
	return journey.Event{Kind: journey.EventBasicInfoSubmitted, BasicInfo: info}, nil
}

func (p *player) askQuiz(questions []models.QuizQuestion) (journey.Event, error) {
	fmt.Fprintln(p.out, titleStyle.Render("性格测试"))

	answers := make([]string, len(questions))
	for i, q := range questions {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, q.Question)
		p.printOptions(q.Options)

		value, err := p.ask("你的答案")
		if err != nil {
			return journey.Event{}, err
		}
		answers[i] = pickOption(value, q.Options)
	}
	return journey.Event{Kind: journey.EventQuizSubmitted, Answers: answers}, nil
}

func (p *player) askChoice(snap journey.Snapshot) (journey.Event, error) {
	fmt.Fprintln(p.out, stageStyle.Render(snap.Stage.Name+" "+snap.Stage.AgeRange))

	current := snap.Current
	if current == nil {
		return journey.Event{}, fmt.Errorf("当前阶段没有故事")
	}
	fmt.Fprintln(p.out, textStyle.Render(current.Story))
	for _, image := range current.Images {
		fmt.Fprintln(p.out, mutedStyle.Render("🖼 "+image.Description+" "+backend.ImageURL(image.Path)))
	}

	if current.Question != "" {
		fmt.Fprintln(p.out, current.Question)
	}
	p.printOptions(current.Options)

	value, err := p.ask("你的选择")
	if err != nil {
		return journey.Event{}, err
	}
	return journey.Event{Kind: journey.EventChoiceSelected, Choice: pickOption(value, current.Options)}, nil
}

func (p *player) showOutcome(snap journey.Snapshot) {
	if snap.Outcome == nil {
		return
	}
	fmt.Fprintln(p.out, stageStyle.Render(snap.Stage.Name+" 的结局"))
	fmt.Fprintln(p.out, mutedStyle.Render("你的选择："+snap.Outcome.Choice))
	fmt.Fprintln(p.out, textStyle.Render(snap.Outcome.Outcome))
	if image := snap.Outcome.OutcomeImage; image != nil {
		fmt.Fprintln(p.out, mutedStyle.Render("🖼 "+image.Description+" "+backend.ImageURL(image.Path)))
	}
}

func (p *player) showReview(snap journey.Snapshot) {
	fmt.Fprintln(p.out, titleStyle.Render("人生回顾"))
	if len(snap.Frames) == 0 {
		fmt.Fprintln(p.out, mutedStyle.Render("这段旅程没有留下画面"))
	}
	for _, frame := range snap.Frames {
		fmt.Fprintf(p.out, "%s %s %s\n",
			stageStyle.Render(frame.StageLabel),
			frame.Image.Description,
			mutedStyle.Render(backend.ImageURL(frame.Image.Path)))
	}
	fmt.Fprintln(p.out, textStyle.Render(snap.Summary))
	if snap.ArchiveID != "" {
		fmt.Fprintln(p.out, mutedStyle.Render("已存档："+snap.ArchiveID))
	}
}

// showFacts 等待生成阶段故事时先展示冷知识
func (p *player) showFacts(snap journey.Snapshot, ev journey.Event) {
	var index int
	switch {
	case ev.Kind == journey.EventJourneyStarted:
		index = 0
	case ev.Kind == journey.EventStageAdvanced:
		index = snap.StageIndex + 1
	default:
		return
	}

	if panel, ok := p.facts.Build(index, p.factCount); ok {
		printPanel(p.out, panel)
	}
	fmt.Fprintln(p.out, mutedStyle.Render("正在书写你的人生故事…"))
}

func (p *player) printOptions(options []string) {
	for i, option := range options {
		fmt.Fprintln(p.out, optionStyle.Render(fmt.Sprintf("  [%d] %s", i+1, option)))
	}
}

// ask 读取一行输入
func (p *player) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt+"> ")
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}

	line := strings.TrimSpace(p.in.Text())
	switch line {
	case "/quit":
		return "", errQuit
	case "/restart":
		return "", errRestart
	}
	return line, nil
}

// pickOption 输入为选项编号时换成选项文本
func pickOption(value string, options []string) string {
	if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= len(options) {
		return options[n-1]
	}
	return value
}
