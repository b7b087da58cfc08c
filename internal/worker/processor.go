package worker

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/internal/model"
	"github.com/qs3c/spanel_go_server/internal/pkg/email"
	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
	"github.com/qs3c/spanel_go_server/internal/pkg/queue"
	"github.com/qs3c/spanel_go_server/internal/repository"
)

var ErrUnknownKind = errors.New("unknown notification kind")

// Mailer 发送通知邮件
type Mailer interface {
	Enabled() bool
	SendPurchase(to string, data email.Data) error
	SendRedeem(to string, data email.Data) error
	SendExpiryReminder(to string, data email.Data) error
}

// Processor 通知任务处理器
type Processor struct {
	accountRepo *repository.AccountRepository
	mailer      Mailer
	logger      logging.Logger
}

// NewProcessor 创建通知处理器
func NewProcessor(accountRepo *repository.AccountRepository, mailer Mailer, logger logging.Logger) *Processor {
	return &Processor{
		accountRepo: accountRepo,
		mailer:      mailer,
		logger:      logger,
	}
}

// Process 处理一条通知，收件人以数据库中的最新邮箱为准
func (p *Processor) Process(ctx context.Context, msg *queue.NotifyMessage) error {
	if p.mailer == nil || !p.mailer.Enabled() {
		p.logger.Info(ctx, "smtp not configured, skip notification", "kind", msg.Kind, "user_id", msg.UserID)
		return nil
	}

	account, err := p.accountRepo.GetByID(msg.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p.logger.Info(ctx, "account gone, skip notification", "kind", msg.Kind, "user_id", msg.UserID)
			return nil
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	to := recipient(account, msg)
	if to == "" {
		p.logger.Info(ctx, "no email, skip notification", "kind", msg.Kind, "user_id", msg.UserID)
		return nil
	}

	data := email.Data{
		Username:    account.Username,
		ProductName: msg.ProductName,
		Amount:      msg.Amount,
		NewBalance:  msg.NewBalance,
		ExpireAt:    msg.ExpireAt,
	}

	switch msg.Kind {
	case queue.KindPurchase:
		err = p.mailer.SendPurchase(to, data)
	case queue.KindRedeem:
		err = p.mailer.SendRedeem(to, data)
	case queue.KindExpiryReminder:
		err = p.mailer.SendExpiryReminder(to, data)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, msg.Kind)
	}
	if err != nil {
		return fmt.Errorf("send %s email: %w", msg.Kind, err)
	}

	p.logger.Info(ctx, "notification sent", "kind", msg.Kind, "user_id", msg.UserID)
	return nil
}

func recipient(account *model.Account, msg *queue.NotifyMessage) string {
	if account.Email != nil && *account.Email != "" {
		return *account.Email
	}
	return msg.Email
}
