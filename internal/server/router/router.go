package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/peixeiro/internal/server/handlers"
	"github.com/mamadbah2/peixeiro/pkg/metrics"
)

const requestIDHeader = "X-Request-ID"

// New wires the Gin engine with required routes and middlewares. gatherer
// backs the /metrics endpoint; nil skips it.
func New(handler *handlers.SimulationHandler, collector *metrics.Collector, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger, collector))

	r.GET("/healthz", handler.Health)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.POST("/calculate", handler.Calculate)
	api.GET("/engine", handler.Engine)

	sims := api.Group("/simulations", handler.RequireUser)
	sims.POST("", handler.Save)
	sims.GET("/:userId", handler.List)
	sims.GET("/:userId/:id/projections.csv", handler.ExportCSV)
	sims.DELETE("/:id", handler.Delete)
	sims.POST("/:id/sheets", handler.ExportSheets)
	sims.POST("/:id/share", handler.Share)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger, collector *metrics.Collector) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		duration := time.Since(start)
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		collector.RecordHTTPRequest(path, c.Request.Method, c.Writer.Status(), duration)

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
