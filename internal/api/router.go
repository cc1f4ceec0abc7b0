// internal/api/router.go
package api

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/Corphon/LifeJourney/internal/backend"
	"github.com/Corphon/LifeJourney/internal/config"
	"github.com/Corphon/LifeJourney/internal/di"
	"github.com/Corphon/LifeJourney/internal/services"
	"github.com/Corphon/LifeJourney/internal/utils"
	"github.com/Corphon/LifeJourney/web"
	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

var (
	httpMetrics     *ginprometheus.Prometheus
	httpMetricsOnce sync.Once
)

// 模板函数
var templateFuncs = template.FuncMap{
	"imageURL": backend.ImageURL,
	"inc":      func(i int) int { return i + 1 },
}

// SetupRouter 配置HTTP路由
func SetupRouter(container *di.Container) (*gin.Engine, error) {
	cfg, ok := container.Get("config").(*config.Config)
	if !ok {
		return nil, fmt.Errorf("配置未正确初始化")
	}

	journeyService, ok := container.Get("journey").(*services.JourneyService)
	if !ok {
		return nil, fmt.Errorf("旅程服务未正确初始化")
	}

	images, err := NewImageProxy(cfg.BackendURL)
	if err != nil {
		return nil, err
	}

	sessions, err := NewSessionAuth(cfg)
	if err != nil {
		return nil, err
	}

	handler := NewHandler(journeyService, images)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(ZapLogger(utils.GetLogger().Zap().Named("http")))
	r.Use(cors.New(corsConfig(cfg)))

	if cfg.MetricsEnabled {
		httpMetricsOnce.Do(func() {
			httpMetrics = ginprometheus.NewPrometheus("gin")
		})
		httpMetrics.Use(r)
	}

	if err := loadTemplates(r, cfg); err != nil {
		return nil, err
	}
	if err := mountStatic(r, cfg); err != nil {
		return nil, err
	}

	r.GET("/health", handler.Health)
	r.GET(backend.ImagePrefix+"*file", handler.ProxyImage)
	r.GET("/journeys/:id", handler.ArchivePage)

	// ===============================
	// 需要会话的路由
	// ===============================
	session := r.Group("/", sessions.Middleware())
	{
		session.GET("/", handler.IndexPage)
		session.GET("/ws/journey", handler.JourneyWebSocket)

		// 会产生后端请求的事件按会话限流
		var limitStore ratelimit.Store
		if redisClient, err := di.Resolve[*redis.Client](container, "redis"); err == nil && cfg.RateLimitPerMinute > 0 {
			limitStore = RedisRateLimitStore(redisClient, cfg.RateLimitPerMinute, time.Minute)
		}
		limited := RateLimitBySession(limitStore, cfg.RateLimitPerMinute, time.Minute)

		forms := session.Group("/journey", limited)
		{
			forms.POST("/basic", handler.SubmitBasicInfo)
			forms.POST("/quiz", handler.SubmitQuiz)
			forms.POST("/begin", handler.BeginJourney)
			forms.POST("/choice", handler.SubmitChoice)
			forms.POST("/next", handler.NextStage)
			forms.POST("/review", handler.RequestReview)
			forms.POST("/restart", handler.Restart)
		}

		apiGroup := session.Group("/api")
		{
			apiGroup.GET("/journey", handler.GetJourney)
			apiGroup.POST("/journey/events", limited, handler.PostEvent)
		}
	}

	// ===============================
	// 无会话的 API
	// ===============================
	api := r.Group("/api")
	{
		api.GET("/stages", handler.GetStages)
		api.GET("/facts/:stage", handler.GetFacts)
		api.GET("/facts/:stage/html", handler.GetFactsHTML)
		api.GET("/journeys", handler.ListJourneys)
		api.GET("/journeys/:id", handler.GetArchivedJourney)
	}

	return r, nil
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORSOrigins
		corsCfg.AllowCredentials = true
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}
	return corsCfg
}

// loadTemplates 优先使用 TEMPLATES_DIR，否则使用内置模板
func loadTemplates(r *gin.Engine, cfg *config.Config) error {
	if cfg.TemplatesDir != "" {
		r.SetFuncMap(templateFuncs)
		r.LoadHTMLGlob(filepath.Join(cfg.TemplatesDir, "*.html"))
		return nil
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return fmt.Errorf("解析内置模板失败: %w", err)
	}
	r.SetHTMLTemplate(tmpl)
	return nil
}

func mountStatic(r *gin.Engine, cfg *config.Config) error {
	if cfg.StaticDir != "" {
		r.Static("/static", cfg.StaticDir)
		return nil
	}

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("加载内置静态资源失败: %w", err)
	}
	r.StaticFS("/static", http.FS(static))
	return nil
}
