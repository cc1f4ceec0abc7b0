// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Corphon/LifeJourney/internal/api"
	"github.com/Corphon/LifeJourney/internal/backend"
	"github.com/Corphon/LifeJourney/internal/config"
	"github.com/Corphon/LifeJourney/internal/di"
	"github.com/Corphon/LifeJourney/internal/journey"
	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/Corphon/LifeJourney/internal/services"
	"github.com/Corphon/LifeJourney/internal/storage"
	"github.com/Corphon/LifeJourney/internal/trivia"
	"github.com/Corphon/LifeJourney/internal/utils"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 30 * time.Second
)

// App 组装好的应用实例
type App struct {
	config    *config.Config
	container *di.Container
	server    *http.Server
	redis     *redis.Client
	logger    *utils.Logger
}

// InitServices 按依赖顺序创建服务并注册到容器
func InitServices(ctx context.Context, cfg *config.Config, container *di.Container) (*redis.Client, error) {
	logger := utils.GetLogger()
	container.Register("config", cfg)

	// 1. 后端客户端
	client, err := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger.Zap().Named("backend"))
	if err != nil {
		return nil, fmt.Errorf("创建后端客户端失败: %w", err)
	}
	container.Register("backend", client)

	// 2. 冷知识数据
	store := trivia.Default()
	if cfg.FactsFile != "" {
		store, err = trivia.LoadFile(cfg.FactsFile)
		if err != nil {
			return nil, err
		}
	}
	stages := models.DefaultStages
	tag, err := language.Parse(cfg.FactLocale)
	if err != nil {
		logger.Warn("无法识别的 FACT_LOCALE，使用中文", map[string]interface{}{
			"locale": cfg.FactLocale,
		})
		tag = language.Chinese
	}
	facts := trivia.NewRenderer(store, stages, tag)
	container.Register("trivia", facts)

	// 3. 存档
	var (
		archive     storage.Archive
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClient, err = storage.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		container.Register("redis", redisClient)
		archive = storage.NewRedisArchive(redisClient, cfg.ArchiveTTL, logger.Zap().Named("archive"))
		logger.Info("使用 Redis 存档", nil)
	} else {
		fileArchive, err := storage.NewFileArchive(cfg.ArchiveDir())
		if err != nil {
			return nil, err
		}
		archive = fileArchive
		logger.Info("使用文件存档", map[string]interface{}{"dir": cfg.ArchiveDir()})
	}
	container.Register("archive", archive)

	// 4. 会话与推送
	progress := services.NewProgressService()
	container.Register("progress", progress)

	sessions := services.NewSessionManager(cfg.SessionTTL, stages)
	container.Register("sessions", sessions)

	// 5. 流程控制
	controller := journey.NewController(client,
		journey.WithNotifier(progress),
		journey.WithArchiver(archive),
		journey.WithLogger(logger.Named("journey")),
	)
	container.Register("controller", controller)

	container.Register("journey", &services.JourneyService{
		Sessions:   sessions,
		Controller: controller,
		Progress:   progress,
		Facts:      facts,
		Archive:    archive,
		Stages:     stages,
		FactCount:  cfg.FactCount,
	})

	return redisClient, nil
}

// New 初始化服务与路由
func New(ctx context.Context, cfg *config.Config, container *di.Container) (*App, error) {
	redisClient, err := InitServices(ctx, cfg, container)
	if err != nil {
		return nil, err
	}

	router, err := api.SetupRouter(container)
	if err != nil {
		if redisClient != nil {
			redisClient.Close()
		}
		return nil, fmt.Errorf("设置路由失败: %w", err)
	}

	return &App{
		config:    cfg,
		container: container,
		redis:     redisClient,
		logger:    utils.GetLogger(),
		server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler 返回 HTTP 处理器
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run 启动 HTTP 服务与会话清理，ctx 取消后优雅关闭
func (a *App) Run(ctx context.Context) error {
	sessions, err := di.Resolve[*services.SessionManager](a.container, "sessions")
	if err != nil {
		return err
	}
	controller, err := di.Resolve[*journey.Controller](a.container, "controller")
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP 服务启动", map[string]interface{}{"addr": a.server.Addr})
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("启动服务器失败: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sessions.Run(gctx, sweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("正在关闭服务器...", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	// 等待后台生成请求结束，确保存档写完；后端挂起时不无限等待
	waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if waitErr := controller.WaitContext(waitCtx); waitErr != nil {
		a.logger.Warn("后台请求未在关闭超时内结束", map[string]interface{}{"error": waitErr.Error()})
	}
	return err
}

// Close 释放外部连接
func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
