package main

import (
	"context"
	"os"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/jengzang/transit-reports-backend-go/internal/api"
	"github.com/jengzang/transit-reports-backend-go/internal/config"
	"github.com/jengzang/transit-reports-backend-go/internal/database"
	"github.com/jengzang/transit-reports-backend-go/internal/events"
	"github.com/jengzang/transit-reports-backend-go/internal/geofence"
	"github.com/jengzang/transit-reports-backend-go/internal/handler"
	"github.com/jengzang/transit-reports-backend-go/internal/logging"
	"github.com/jengzang/transit-reports-backend-go/internal/metrics"
	"github.com/jengzang/transit-reports-backend-go/internal/middleware"
	"github.com/jengzang/transit-reports-backend-go/internal/repository"
	"github.com/jengzang/transit-reports-backend-go/internal/service"
)

func main() {
	// 加载配置
	cfg := config.Load()
	logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(ctx, cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to AMQP broker")
		}
		publisher = amqpPublisher
	}
	defer publisher.Close()

	metrics.Register()

	validator := geofence.NewValidator(cfg.GeofenceThresholdKm)
	routeRepo := repository.NewRouteRepository(db)
	reportRepo := repository.NewReportRepository(db)

	reportHandler := handler.NewReportHandler(
		service.NewReportSubmissionService(routeRepo, reportRepo, validator),
		service.NewVerificationQuorumEngine(reportRepo, validator),
		service.NewReportQueryService(reportRepo),
		publisher,
	)
	routeHandler := handler.NewRouteHandler(service.NewRouteService(routeRepo))

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 0)
	stop := make(chan struct{})
	defer close(stop)
	go limiter.Run(stop)

	// 初始化路由
	router := api.SetupRouter(cfg, api.Handlers{
		Reports: reportHandler,
		Routes:  routeHandler,
		Tokens:  middleware.NewTokenValidator(cfg.JWTSecret),
		Limiter: limiter,
	})

	// 启动服务器
	log.WithFields(log.Fields{
		"port":      cfg.Port,
		"driver":    cfg.Database.Driver,
		"geofence":  validator.ThresholdKm,
		"publisher": cfg.AMQPURL != "",
	}).Info("server starting")
	if err := router.Run(cfg.Port); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}
