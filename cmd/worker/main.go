package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/qs3c/spanel_go_server/config"
	"github.com/qs3c/spanel_go_server/internal/database"
	"github.com/qs3c/spanel_go_server/internal/pkg/email"
	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
	"github.com/qs3c/spanel_go_server/internal/pkg/queue"
	"github.com/qs3c/spanel_go_server/internal/repository"
	"github.com/qs3c/spanel_go_server/internal/worker"
)

var configPath = flag.String("config", "config/config.yaml", "Path to config file")

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 初始化数据库
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Error(ctx, "failed to connect database", "error", err)
		os.Exit(1)
	}

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		logger.Error(ctx, "failed to connect redis", "error", err)
		os.Exit(1)
	}

	mailer := email.NewService(&cfg.Email)
	if !mailer.Enabled() {
		logger.Warn(ctx, "SMTP not configured, notifications will be dropped")
	}

	notifyQueue := queue.NewQueue(rdb, cfg.Queue.NotifyQueue)
	processor := worker.NewProcessor(repository.NewAccountRepository(db), mailer, logger)

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info(ctx, "received shutdown signal")
		cancel()
	}()

	workers := cfg.Queue.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	logger.Info(ctx, "worker started", "queue", cfg.Queue.NotifyQueue, "workers", workers)

	// 阻塞直到所有 worker 退出
	worker.Run(ctx, notifyQueue, processor, workers, logger)
	logger.Info(context.Background(), "worker shutdown complete")
}
