package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/transit-reports-backend-go/internal/config"
	"github.com/jengzang/transit-reports-backend-go/internal/handler"
	"github.com/jengzang/transit-reports-backend-go/internal/middleware"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Reports *handler.ReportHandler
	Routes  *handler.RouteHandler
	Tokens  *middleware.TokenValidator
	Limiter *middleware.RateLimiter
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Transit Reports API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.Timeout(cfg.RequestTimeout))
	{
		reports := api.Group("/reports")
		{
			reports.GET("", h.Reports.ListReports)
			reports.GET("/:id", h.Reports.GetReport)
			reports.GET("/:id/verifications", h.Reports.ListVerifications)

			// Writes need an identity and are throttled per user
			writes := reports.Group("")
			writes.Use(middleware.Auth(h.Tokens))
			if h.Limiter != nil {
				writes.Use(middleware.RateLimit(h.Limiter))
			}
			writes.POST("", h.Reports.SubmitReport)
			writes.POST("/:id/verifications", h.Reports.VerifyReport)
		}

		api.GET("/routes/:id", h.Routes.GetRoute)
	}

	return r
}
