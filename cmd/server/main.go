// cmd/server/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Corphon/LifeJourney/internal/app"
	"github.com/Corphon/LifeJourney/internal/config"
	"github.com/Corphon/LifeJourney/internal/di"
	"github.com/Corphon/LifeJourney/internal/utils"
	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("🚀 启动 LifeJourney 服务器...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	config.SetCurrentConfig(cfg)
	log.Printf("✅ 配置加载完成，端口: %s，后端: %s", cfg.Port, cfg.BackendURL)

	// 2. 创建必要的目录
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("%v", err)
	}

	// 3. 初始化日志
	if err := utils.InitLogger(utils.LoggerConfig{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		LogFile:  cfg.LogFile(),
	}); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer utils.GetLogger().Sync()

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. 初始化服务与路由
	application, err := app.New(ctx, cfg, di.GetContainer())
	if err != nil {
		log.Fatalf("初始化服务失败: %v", err)
	}
	defer application.Close()
	log.Printf("✅ 所有服务初始化完成，服务数量: %d", len(di.GetContainer().GetNames()))
	log.Printf("🔗 访问地址: http://localhost:%s", cfg.Port)

	// 5. 运行直到收到中断信号
	if err := application.Run(ctx); err != nil {
		log.Printf("❌ 服务器异常退出: %v", err)
		return
	}
	log.Println("✅ 服务器优雅关闭完成")
}
