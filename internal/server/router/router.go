package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/allocgrid/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
// metricsHandler may be nil, in which case /metrics is not served.
func New(handler *handlers.AllocationHandler, metricsHandler http.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := r.Group("/api")
	api.GET("/state", handler.State)
	api.GET("/status", handler.Status)
	api.GET("/filters", handler.Filters)
	api.GET("/summary", handler.Summary)
	api.GET("/detail", handler.Detail)
	api.POST("/commands", handler.Command)
	api.PUT("/records/:id/channels/:channel", handler.Edit)
	api.POST("/reload", handler.Reload)
	api.POST("/save", handler.Save)
	api.POST("/auto-allocate", handler.AutoAllocate)
	api.POST("/validate", handler.Validate)
	api.GET("/export.xlsx", handler.ExportXLSX)
	api.POST("/export/sheets", handler.ExportSheets)
	api.GET("/runs", handler.Runs)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
