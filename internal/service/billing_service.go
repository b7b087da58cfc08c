package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/config"
	"github.com/qs3c/spanel_go_server/internal/model"
	"github.com/qs3c/spanel_go_server/internal/model/dto"
	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
	"github.com/qs3c/spanel_go_server/internal/pkg/pubsub"
	"github.com/qs3c/spanel_go_server/internal/pkg/queue"
	"github.com/qs3c/spanel_go_server/internal/pkg/shopcontent"
	"github.com/qs3c/spanel_go_server/internal/repository"
)

var (
	ErrProductNotFound       = errors.New("商品不存在")
	ErrProductInactive       = errors.New("商品已下架")
	ErrInvalidProductContent = errors.New("商品内容配置有误")
	ErrInvalidCode           = errors.New("充值码不能为空")
	ErrCodeNotFound          = errors.New("充值码无效")
	ErrCodeAlreadyUsed       = errors.New("充值码已被使用")
	ErrRedeemRateLimited     = errors.New("兑换过于频繁，请稍后再试")
)

const defaultRedeemHourlyLimit = 10

// EventPublisher 发布余额变化事件
type EventPublisher interface {
	PublishBalance(ctx context.Context, evt *pubsub.BalanceEvent) error
}

// Notifier 投递异步通知
type Notifier interface {
	Push(ctx context.Context, msg *queue.NotifyMessage) error
}

type BillingService struct {
	db           *gorm.DB
	accountRepo  *repository.AccountRepository
	productRepo  *repository.ProductRepository
	codeRepo     *repository.CodeRepository
	purchaseRepo *repository.PurchaseRepository
	ledger       *Ledger
	publisher    EventPublisher
	notifier     Notifier
	cfg          *config.Config
	logger       logging.Logger
	now          func() time.Time
}

func NewBillingService(
	db *gorm.DB,
	accountRepo *repository.AccountRepository,
	productRepo *repository.ProductRepository,
	codeRepo *repository.CodeRepository,
	purchaseRepo *repository.PurchaseRepository,
	ledger *Ledger,
	cfg *config.Config,
	logger logging.Logger,
) *BillingService {
	return &BillingService{
		db:           db,
		accountRepo:  accountRepo,
		productRepo:  productRepo,
		codeRepo:     codeRepo,
		purchaseRepo: purchaseRepo,
		ledger:       ledger,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// SetPublisher 设置余额事件发布者，未设置时不发布
func (s *BillingService) SetPublisher(p EventPublisher) {
	s.publisher = p
}

// SetNotifier 设置通知队列，未设置时不发送通知
func (s *BillingService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Purchase 使用余额购买商品，扣款与权益发放在同一事务内完成
func (s *BillingService) Purchase(ctx context.Context, accountID, productID int64) (*dto.PurchaseReceipt, error) {
	now := s.now()

	var (
		receipt *dto.PurchaseReceipt
		product *model.Product
		account *model.Account
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		product, err = s.productRepo.WithTx(tx).GetByID(productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("get product: %w", err)
		}
		if !product.IsActive() {
			return ErrProductInactive
		}

		account, err = s.ledger.LockAccount(tx, accountID)
		if err != nil {
			return err
		}

		effects, err := shopcontent.Parse(product.Content)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProductContent, err)
		}

		// 免费商品不扣款
		if product.Price.IsPositive() {
			if err := s.ledger.Debit(tx, accountID, product.Price); err != nil {
				return err
			}
		}

		if err := s.ledger.Apply(tx, account, effects, now); err != nil {
			return err
		}

		record := &model.PurchaseRecord{
			UserID: accountID,
			ShopID: product.ID,
			Price:  product.Price,
			Renew:  product.AutoRenew > 0,
		}
		if err := s.purchaseRepo.WithTx(tx).Create(record); err != nil {
			return fmt.Errorf("create purchase record: %w", err)
		}

		account, err = s.accountRepo.WithTx(tx).GetByID(accountID)
		if err != nil {
			return fmt.Errorf("reload account: %w", err)
		}

		receipt = &dto.PurchaseReceipt{
			PurchaseID:     record.ID,
			ProductID:      product.ID,
			Price:          product.Price.StringFixed(2),
			Balance:        account.Money.StringFixed(2),
			TransferEnable: account.TransferEnable,
			Class:          account.Class,
			ExpireIn:       formatTime(account.ExpireIn),
			ClassExpire:    formatTime(account.ClassExpire),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "purchase completed",
		"user_id", accountID, "product_id", productID, "price", receipt.Price, "balance", receipt.Balance)

	s.publish(ctx, &pubsub.BalanceEvent{
		UserID:     accountID,
		Event:      pubsub.EventPurchase,
		Amount:     receipt.Price,
		NewBalance: receipt.Balance,
		ShopID:     product.ID,
	})
	s.notify(ctx, account, &queue.NotifyMessage{
		Kind:        queue.KindPurchase,
		ProductName: product.Name,
		Amount:      receipt.Price,
		NewBalance:  receipt.Balance,
		ExpireAt:    receipt.ExpireIn,
	})

	return receipt, nil
}

// Redeem 兑换充值码。同一充值码只会被成功兑换一次。
func (s *BillingService) Redeem(ctx context.Context, accountID int64, code string) (*dto.RedeemReceipt, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	now := s.now()

	// 频率限制按已兑换记录计算，不在事务内
	limit := s.cfg.Redeem.HourlyLimit
	if limit <= 0 {
		limit = defaultRedeemHourlyLimit
	}
	recent, err := s.codeRepo.CountUsedSince(accountID, now.Add(-time.Hour))
	if err != nil {
		return nil, fmt.Errorf("count recent redemptions: %w", err)
	}
	if recent >= int64(limit) {
		return nil, ErrRedeemRateLimited
	}

	var (
		receipt *dto.RedeemReceipt
		account *model.Account
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		codeRepo := s.codeRepo.WithTx(tx)

		ok, err := codeRepo.MarkUsed(code, accountID, now)
		if err != nil {
			return fmt.Errorf("mark code used: %w", err)
		}

		rc, err := codeRepo.GetByCode(code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCodeNotFound
			}
			return fmt.Errorf("get code: %w", err)
		}
		if !ok {
			return ErrCodeAlreadyUsed
		}

		if err := s.ledger.Credit(tx, accountID, rc.Amount); err != nil {
			return err
		}

		account, err = s.accountRepo.WithTx(tx).GetByID(accountID)
		if err != nil {
			return fmt.Errorf("reload account: %w", err)
		}

		receipt = &dto.RedeemReceipt{
			Amount:     rc.Amount.StringFixed(2),
			NewBalance: account.Money.StringFixed(2),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "code redeemed", "user_id", accountID, "amount", receipt.Amount)

	s.publish(ctx, &pubsub.BalanceEvent{
		UserID:     accountID,
		Event:      pubsub.EventRedeem,
		Amount:     receipt.Amount,
		NewBalance: receipt.NewBalance,
	})
	s.notify(ctx, account, &queue.NotifyMessage{
		Kind:       queue.KindRedeem,
		Amount:     receipt.Amount,
		NewBalance: receipt.NewBalance,
	})

	return receipt, nil
}

// RedeemRemaining 当前小时内剩余可兑换次数
func (s *BillingService) RedeemRemaining(accountID int64) (int, error) {
	limit := s.cfg.Redeem.HourlyLimit
	if limit <= 0 {
		limit = defaultRedeemHourlyLimit
	}
	recent, err := s.codeRepo.CountUsedSince(accountID, s.now().Add(-time.Hour))
	if err != nil {
		return 0, err
	}
	remaining := limit - int(recent)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// ListProducts 在售商品
func (s *BillingService) ListProducts() ([]dto.ProductItem, error) {
	products, err := s.productRepo.ListActive()
	if err != nil {
		return nil, err
	}

	items := make([]dto.ProductItem, 0, len(products))
	for i := range products {
		p := &products[i]
		item := dto.ProductItem{
			ID:        p.ID,
			Name:      p.Name,
			Price:     p.Price.StringFixed(2),
			Content:   p.Content,
			AutoRenew: p.AutoRenew,
		}
		// 内容解析失败的商品依然展示，只是不带效果字段
		if effects, err := shopcontent.Parse(p.Content); err == nil {
			item.TrafficBytes = effects.TrafficBytes
			item.Class = effects.Class
			item.ExpireDays = effects.ExpireDays
			item.ClassExpireDays = effects.ClassExpireDays
		}
		items = append(items, item)
	}
	return items, nil
}

// ListPurchases 购买历史
func (s *BillingService) ListPurchases(accountID int64, page, pageSize int) ([]dto.PurchaseItem, int64, error) {
	records, total, err := s.purchaseRepo.ListByUser(accountID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]dto.PurchaseItem, 0, len(records))
	for _, r := range records {
		item := dto.PurchaseItem{
			ID:        r.ID,
			ProductID: r.ShopID,
			Price:     r.Price.StringFixed(2),
			Renew:     r.Renew,
			CreatedAt: r.CreatedAt.Format(time.RFC3339),
		}
		if r.Product != nil {
			item.ProductName = r.Product.Name
		}
		items = append(items, item)
	}
	return items, total, nil
}

func (s *BillingService) publish(ctx context.Context, evt *pubsub.BalanceEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBalance(ctx, evt); err != nil {
		s.logger.Warn(ctx, "failed to publish balance event", "user_id", evt.UserID, "error", err)
	}
}

func (s *BillingService) notify(ctx context.Context, account *model.Account, msg *queue.NotifyMessage) {
	if s.notifier == nil || account == nil || account.Email == nil {
		return
	}
	msg.UserID = account.ID
	msg.Email = *account.Email
	msg.Username = account.Username
	if err := s.notifier.Push(ctx, msg); err != nil {
		s.logger.Warn(ctx, "failed to queue notification", "user_id", account.ID, "kind", msg.Kind, "error", err)
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
