package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/spanel_go_server/config"
	"github.com/qs3c/spanel_go_server/internal/api"
	"github.com/qs3c/spanel_go_server/internal/api/handler"
	"github.com/qs3c/spanel_go_server/internal/database"
	"github.com/qs3c/spanel_go_server/internal/pkg/cache"
	"github.com/qs3c/spanel_go_server/internal/pkg/cron"
	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
	"github.com/qs3c/spanel_go_server/internal/pkg/oauth"
	"github.com/qs3c/spanel_go_server/internal/pkg/oss"
	"github.com/qs3c/spanel_go_server/internal/pkg/pubsub"
	"github.com/qs3c/spanel_go_server/internal/pkg/queue"
	"github.com/qs3c/spanel_go_server/internal/pkg/ws"
	"github.com/qs3c/spanel_go_server/internal/repository"
	"github.com/qs3c/spanel_go_server/internal/service"
)

var (
	configPath = flag.String("config", "config/config.yaml", "Path to config file")
	migrate    = flag.Bool("migrate", false, "Run AutoMigrate before serving")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)

	fatal := func(msg string, err error) {
		logger.Error(ctx, msg, "error", err)
		os.Exit(1)
	}

	// 初始化数据库
	db, err := database.New(&cfg.Database)
	if err != nil {
		fatal("failed to connect database", err)
	}
	logger.Info(ctx, "database connected", "driver", cfg.Database.Driver)

	if *migrate {
		if err := database.AutoMigrate(db); err != nil {
			fatal("failed to migrate", err)
		}
		logger.Info(ctx, "database migrated")
	}

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		fatal("failed to connect redis", err)
	}
	logger.Info(ctx, "redis connected")

	// 初始化 OSS（可选）
	var uploader service.AvatarUploader
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			logger.Warn(ctx, "failed to init OSS client, avatar upload disabled", "error", err)
		} else {
			uploader = ossClient
			logger.Info(ctx, "OSS client initialized")
		}
	}

	// 初始化 Queue 和 Pub/Sub
	notifyQueue := queue.NewQueue(rdb, cfg.Queue.NotifyQueue)
	publisher := pubsub.NewPublisher(rdb)
	subscriber := pubsub.NewSubscriber(rdb)
	nodeCache := cache.NewNodeCache(rdb, time.Duration(cfg.Subscribe.NodeCacheTTLSeconds)*time.Second)

	// 初始化 WebSocket Hub
	wsHub := ws.NewHub(logger)

	// 初始化 Repository
	accountRepo := repository.NewAccountRepository(db)
	nodeRepo := repository.NewNodeRepository(db)
	productRepo := repository.NewProductRepository(db)
	codeRepo := repository.NewCodeRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	trafficRepo := repository.NewTrafficRepository(db)

	// 初始化 Service
	ledger := service.NewLedger(accountRepo)
	nodeService := service.NewNodeService(nodeRepo, nodeCache, logger)
	authService := service.NewAuthService(accountRepo, cfg, logger)
	userService := service.NewUserService(accountRepo, trafficRepo, uploader, cfg)
	subscribeService := service.NewSubscribeService(db, accountRepo, linkRepo, nodeService, cfg, logger)

	billingService := service.NewBillingService(db, accountRepo, productRepo, codeRepo, purchaseRepo, ledger, cfg, logger)
	billingService.SetPublisher(publisher)
	billingService.SetNotifier(notifyQueue)

	adminService := service.NewAdminService(db, accountRepo, codeRepo, productRepo, ledger, logger)
	adminService.SetPublisher(publisher)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService, oauth.NewStateStore(rdb), cfg.OAuth.Github.FrontendURL)
	userHandler := handler.NewUserHandler(userService, nodeService)
	billingHandler := handler.NewBillingHandler(billingService)
	subscribeHandler := handler.NewSubscribeHandler(subscribeService)
	nodeHandler := handler.NewNodeHandler(nodeService)
	adminHandler := handler.NewAdminHandler(adminService, nodeService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret, cfg.CORS.AllowedOrigins)

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		userHandler,
		billingHandler,
		subscribeHandler,
		nodeHandler,
		adminHandler,
		websocketHandler,
		cfg,
		logger,
	)
	engine := router.Setup()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 余额事件转发到 WebSocket
	go func() {
		if err := subscriber.Subscribe(runCtx, wsHub.HandleBalanceEvent); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(runCtx, "balance event subscription stopped", "error", err)
		}
	}()

	// 定时任务
	cronService := cron.NewService(
		nodeService,
		accountRepo,
		trafficRepo,
		notifyQueue,
		time.Duration(cfg.Cron.NodeOfflineAfterSeconds)*time.Second,
		cfg.Cron.ExpiryReminderDays,
		logger,
	)
	cronService.Start()
	defer cronService.Stop()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	go func() {
		logger.Info(ctx, "server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("failed to start server", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info(ctx, "received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server shutdown failed", "error", err)
	}
	logger.Info(ctx, "server stopped")
}
