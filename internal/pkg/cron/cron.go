package cron

import (
	"context"
	"sync"
	"time"

	"github.com/qs3c/spanel_go_server/internal/model"
	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
	"github.com/qs3c/spanel_go_server/internal/pkg/queue"
	"github.com/qs3c/spanel_go_server/internal/repository"
)

const (
	sweepInterval       = time.Minute
	snapshotBatchSize   = 500
	defaultOfflineAfter = 5 * time.Minute
	defaultReminderDays = 3
)

// NodeSweeper 节点存活检查
type NodeSweeper interface {
	SweepOffline(ctx context.Context, threshold time.Duration) (int64, error)
}

// Notifier 投递到期提醒
type Notifier interface {
	Push(ctx context.Context, msg *queue.NotifyMessage) error
}

type Service struct {
	nodes        NodeSweeper
	accountRepo  *repository.AccountRepository
	trafficRepo  *repository.TrafficRepository
	notifier     Notifier
	offlineAfter time.Duration
	reminderDays int
	logger       logging.Logger
	now          func() time.Time

	stopOnce sync.Once
	stopChan chan struct{}
}

func NewService(
	nodes NodeSweeper,
	accountRepo *repository.AccountRepository,
	trafficRepo *repository.TrafficRepository,
	notifier Notifier,
	offlineAfter time.Duration,
	reminderDays int,
	logger logging.Logger,
) *Service {
	if offlineAfter <= 0 {
		offlineAfter = defaultOfflineAfter
	}
	if reminderDays <= 0 {
		reminderDays = defaultReminderDays
	}
	return &Service{
		nodes:        nodes,
		accountRepo:  accountRepo,
		trafficRepo:  trafficRepo,
		notifier:     notifier,
		offlineAfter: offlineAfter,
		reminderDays: reminderDays,
		logger:       logger,
		now:          time.Now,
		stopChan:     make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runNodeSweep()
	go s.runDaily()
	s.logger.Info(context.Background(), "cron service started", "offline_after", s.offlineAfter.String())
}

// Stop 停止定时任务，可重复调用
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.logger.Info(context.Background(), "cron service stopped")
	})
}

// runNodeSweep 定期把心跳超时的节点置为离线
func (s *Service) runNodeSweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.SweepNodes(context.Background())
		}
	}
}

// runDaily 每天零点执行流量快照和到期提醒
func (s *Service) runDaily() {
	now := s.now()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	timer := time.NewTimer(nextMidnight.Sub(now))

	for {
		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			ctx := context.Background()
			s.SnapshotTraffic(ctx)
			s.SendExpiryReminders(ctx)
			timer.Reset(24 * time.Hour)
		}
	}
}

// SweepNodes 返回本次置为离线的节点数
func (s *Service) SweepNodes(ctx context.Context) int64 {
	if s.nodes == nil {
		return 0
	}
	n, err := s.nodes.SweepOffline(ctx, s.offlineAfter)
	if err != nil {
		s.logger.Error(ctx, "node sweep failed", "error", err)
		return 0
	}
	if n > 0 {
		s.logger.Info(ctx, "nodes marked offline", "count", n)
	}
	return n
}

// SnapshotTraffic 记录所有用户当天的 u/d，同一天重复执行会覆盖
func (s *Service) SnapshotTraffic(ctx context.Context) int {
	date := s.now().Format(time.DateOnly)
	total := 0

	err := s.accountRepo.EachBatch(snapshotBatchSize, func(accounts []model.Account) error {
		logs := make([]model.TrafficLog, 0, len(accounts))
		for _, a := range accounts {
			logs = append(logs, model.TrafficLog{
				UserID:  a.ID,
				LogDate: date,
				U:       a.U,
				D:       a.D,
			})
		}
		if err := s.trafficRepo.UpsertSnapshots(logs); err != nil {
			return err
		}
		total += len(logs)
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "traffic snapshot failed", "date", date, "error", err)
		return total
	}

	s.logger.Info(ctx, "traffic snapshot completed", "date", date, "accounts", total)
	return total
}

// SendExpiryReminders 提醒 reminderDays 天后当天到期的用户，每个用户只会命中一次
func (s *Service) SendExpiryReminders(ctx context.Context) int {
	if s.notifier == nil {
		return 0
	}

	now := s.now()
	from := now.AddDate(0, 0, s.reminderDays-1)
	to := now.AddDate(0, 0, s.reminderDays)

	accounts, err := s.accountRepo.ListExpiringBetween(from, to)
	if err != nil {
		s.logger.Error(ctx, "list expiring accounts failed", "error", err)
		return 0
	}

	sent := 0
	for _, a := range accounts {
		if a.Email == nil || *a.Email == "" || a.ExpireIn == nil {
			continue
		}
		msg := &queue.NotifyMessage{
			Kind:     queue.KindExpiryReminder,
			UserID:   a.ID,
			Email:    *a.Email,
			Username: a.Username,
			ExpireAt: a.ExpireIn.Format(time.RFC3339),
		}
		if err := s.notifier.Push(ctx, msg); err != nil {
			s.logger.Warn(ctx, "failed to queue expiry reminder", "user_id", a.ID, "error", err)
			continue
		}
		sent++
	}

	if sent > 0 {
		s.logger.Info(ctx, "expiry reminders queued", "count", sent)
	}
	return sent
}
