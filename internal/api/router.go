package api

import (
	"net/http"
	"time"

	"GameCatalog/internal/config"
	"GameCatalog/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "game-catalog"

// NewRouter 创建 gin 引擎并注册全部路由
func NewRouter(cfg *config.Config, gameHandler *GameHandler, importHandler *ImportHandler, recorder *metrics.Recorder, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), otelgin.Middleware(serviceName))
	if len(cfg.CORS.AllowOrigins) > 0 {
		r.Use(cors.New(corsConfig(cfg.CORS)))
	}
	if cfg.Server.Pprof {
		// 注册 pprof 方便调试和监测性能问题
		pprof.Register(r)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(recorder.Handler()))

	games := r.Group("/api/games")
	games.GET("", gameHandler.ListGames)
	games.POST("", gameHandler.CreateGame)
	games.POST("/search", gameHandler.SearchGames)
	games.POST("/populate", importHandler.PopulateGames)
	games.GET("/:id", gameHandler.GetGame)
	games.PUT("/:id", gameHandler.UpdateGame)
	games.DELETE("/:id", gameHandler.DeleteGame)

	r.GET("/api/imports/:job_uuid", importHandler.GetImportJob)
	return r
}

func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.DefaultConfig()
	cc.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	cc.MaxAge = 12 * time.Hour
	for _, o := range c.AllowOrigins {
		if o == "*" {
			cc.AllowAllOrigins = true
			return cc
		}
	}
	cc.AllowOrigins = c.AllowOrigins
	return cc
}

// requestLogger 用 logrus 记录访问日志
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request")
			return
		}
		entry.Debug("request")
	}
}
