package worker

import (
	"context"
	"sync"
	"time"

	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
	"github.com/qs3c/spanel_go_server/internal/pkg/queue"
)

const popTimeout = 5 * time.Second

// Source 通知队列
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.NotifyMessage, error)
}

// Handler 处理单条通知
type Handler interface {
	Process(ctx context.Context, msg *queue.NotifyMessage) error
}

// Run 启动 n 个 worker 消费队列，ctx 取消后等待全部退出
func Run(ctx context.Context, src Source, h Handler, n int, logger logging.Logger) {
	if n <= 0 {
		n = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			loop(ctx, workerID, src, h, logger)
		}(i)
	}
	wg.Wait()
}

func loop(ctx context.Context, workerID int, src Source, h Handler, logger logging.Logger) {
	for {
		if ctx.Err() != nil {
			logger.Info(context.Background(), "worker shutting down", "worker", workerID)
			return
		}

		msg, err := src.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn(ctx, "failed to pop notification", "worker", workerID, "error", err)
			time.Sleep(time.Second)
			continue
		}
		if msg == nil {
			continue
		}

		if err := h.Process(ctx, msg); err != nil {
			logger.Error(ctx, "notification failed", "worker", workerID, "kind", msg.Kind, "user_id", msg.UserID, "error", err)
		}
	}
}
