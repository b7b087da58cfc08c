package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/internal/model"
	"github.com/qs3c/spanel_go_server/internal/pkg/shopcontent"
	"github.com/qs3c/spanel_go_server/internal/repository"
)

var (
	ErrInsufficientBalance = errors.New("余额不足")
	ErrInvalidAmount       = errors.New("金额必须大于 0")
	ErrAccountNotFound     = errors.New("用户不存在")
)

// Ledger 用户权益（余额、流量、等级、有效期）的唯一修改入口。
//
// 所有方法都接收事务句柄，调用方负责开启和提交事务。
type Ledger struct {
	accountRepo *repository.AccountRepository
}

func NewLedger(accountRepo *repository.AccountRepository) *Ledger {
	return &Ledger{accountRepo: accountRepo}
}

// LockAccount 读取并锁定用户行
func (l *Ledger) LockAccount(tx *gorm.DB, accountID int64) (*model.Account, error) {
	account, err := l.accountRepo.WithTx(tx).LockByID(accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lock account: %w", err)
	}
	return account, nil
}

// Debit 扣款，余额不足时返回 ErrInsufficientBalance 且不做任何修改
func (l *Ledger) Debit(tx *gorm.DB, accountID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	ok, err := l.accountRepo.WithTx(tx).DebitMoney(accountID, amount)
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}
	if !ok {
		return ErrInsufficientBalance
	}
	return nil
}

// Credit 加款
func (l *Ledger) Credit(tx *gorm.DB, accountID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	ok, err := l.accountRepo.WithTx(tx).CreditMoney(accountID, amount)
	if err != nil {
		return fmt.Errorf("credit: %w", err)
	}
	if !ok {
		return ErrAccountNotFound
	}
	return nil
}

// GrantTraffic 累加总流量
func (l *Ledger) GrantTraffic(tx *gorm.DB, accountID int64, bytes int64) error {
	if bytes <= 0 {
		return nil
	}
	if err := l.accountRepo.WithTx(tx).AddTransferEnable(accountID, bytes); err != nil {
		return fmt.Errorf("grant traffic: %w", err)
	}
	return nil
}

// RaiseClass 等级取 max(当前, class)
func (l *Ledger) RaiseClass(tx *gorm.DB, accountID int64, class int) error {
	if err := l.accountRepo.WithTx(tx).RaiseClass(accountID, class); err != nil {
		return fmt.Errorf("raise class: %w", err)
	}
	return nil
}

// ExtendExpiry 新到期时间 = max(当前到期时间, now) + days
func (l *Ledger) ExtendExpiry(tx *gorm.DB, account *model.Account, field string, days int, now time.Time) error {
	if days <= 0 {
		return nil
	}

	var current *time.Time
	switch field {
	case repository.ExpiryFieldAccount:
		current = account.ExpireIn
	case repository.ExpiryFieldClass:
		current = account.ClassExpire
	default:
		return fmt.Errorf("%w: %s", repository.ErrUnknownExpiryField, field)
	}

	next := ExtendFrom(current, now, days)
	if err := l.accountRepo.WithTx(tx).SetExpiry(account.ID, field, next); err != nil {
		return fmt.Errorf("extend %s: %w", field, err)
	}

	if field == repository.ExpiryFieldAccount {
		account.ExpireIn = &next
	} else {
		account.ClassExpire = &next
	}
	return nil
}

// ExtendFrom 未过期时在原有基础上叠加，已过期或未设置则从 now 起算
func ExtendFrom(current *time.Time, now time.Time, days int) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	return base.AddDate(0, 0, days)
}

// Apply 将商品内容解析出的权益写入用户
func (l *Ledger) Apply(tx *gorm.DB, account *model.Account, effects shopcontent.ParsedEffects, now time.Time) error {
	if effects.TrafficBytes != nil {
		if err := l.GrantTraffic(tx, account.ID, *effects.TrafficBytes); err != nil {
			return err
		}
	}
	if effects.Class != nil {
		if err := l.RaiseClass(tx, account.ID, *effects.Class); err != nil {
			return err
		}
	}
	if effects.ExpireDays != nil {
		if err := l.ExtendExpiry(tx, account, repository.ExpiryFieldAccount, *effects.ExpireDays, now); err != nil {
			return err
		}
	}
	if effects.ClassExpireDays != nil {
		if err := l.ExtendExpiry(tx, account, repository.ExpiryFieldClass, *effects.ClassExpireDays, now); err != nil {
			return err
		}
	}
	return nil
}
