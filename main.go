package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"schoolconnect/internal/config"
	"schoolconnect/internal/db"
	"schoolconnect/internal/handlers"
	"schoolconnect/internal/logger"
	"schoolconnect/internal/middleware"
	"schoolconnect/internal/observability"
	"schoolconnect/internal/rabbitmq"
	"schoolconnect/internal/repositories"
	"schoolconnect/internal/session"
	"schoolconnect/internal/telemetry"
	"schoolconnect/internal/watch"
	"schoolconnect/internal/ws"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.Development)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		zlog.Fatalw("failed to set up tracing", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	database, err := db.Connect(cfg.DatabaseDSN, zlog)
	if err != nil {
		zlog.Fatalw("failed to connect to db", "error", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, zlog)
	defer publisher.Close()
	observability.SetPublisher(publisher)

	audit := telemetry.NewAuditEmitter(publisher, "audit_log.schoolconnect", "schoolconnect", cfg.Environment, zlog)

	accountRepo := repositories.NewAccountRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	sessions := session.NewStore(database)

	tracker := watch.NewTracker(messageRepo, groupRepo)
	hub := ws.NewHub(zlog)

	authHandler := handlers.NewAuthHandler(accountRepo, sessions, tracker, audit)
	groupHandler := handlers.NewGroupHandler(groupRepo, audit)
	messageHandler := handlers.NewMessageHandler(messageRepo, groupRepo, accountRepo, hub, audit)
	notificationHandler := handlers.NewNotificationHandler(tracker)
	notifyWS := ws.NewNotificationWebSocketHandler(hub, sessions, zlog)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("schoolconnect"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(sessions)

	router.POST("/api/register", authHandler.Register)
	router.POST("/api/login", authHandler.Login)
	router.POST("/api/logout", authMiddleware, authHandler.Logout)
	router.GET("/api/users", authMiddleware, authHandler.ListUsers)

	router.GET("/api/groups", authMiddleware, groupHandler.ListGroups)
	router.POST("/api/groups", authMiddleware, groupHandler.CreateGroup)

	router.GET("/api/messages", authMiddleware, messageHandler.ListMessages)
	router.POST("/api/messages", authMiddleware, messageHandler.PostMessage)
	router.PATCH("/api/messages/:id", authMiddleware, messageHandler.PatchMessage)

	router.GET("/api/notifications", authMiddleware, notificationHandler.Poll)
	router.GET("/ws/notifications", notifyWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	zlog.Infow("server listening", "port", cfg.Port, "environment", cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		zlog.Fatalw("server error", "error", err)
	}
}
