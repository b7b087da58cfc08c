package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/spanel_go_server/internal/model"
)

// 可以通过 SetExpiry 修改的到期字段
const (
	ExpiryFieldAccount = "expire_in"
	ExpiryFieldClass   = "class_expire"
)

var ErrUnknownExpiryField = errors.New("unknown expiry field")

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// WithTx 返回绑定到事务的 repository
func (r *AccountRepository) WithTx(tx *gorm.DB) *AccountRepository {
	return &AccountRepository{db: tx}
}

func (r *AccountRepository) Create(account *model.Account) error {
	return r.db.Create(account).Error
}

func (r *AccountRepository) GetByID(id int64) (*model.Account, error) {
	var account model.Account
	err := r.db.Where("id = ?", id).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// LockByID 读取并锁定用户行（SELECT ... FOR UPDATE），必须在事务内调用
func (r *AccountRepository) LockByID(id int64) (*model.Account, error) {
	q := r.db
	// SQLite 没有行锁，单写者本身就是串行的
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var account model.Account
	if err := q.Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) GetByEmail(email string) (*model.Account, error) {
	var account model.Account
	err := r.db.Where("email = ?", email).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) GetByGithubID(githubID string) (*model.Account, error) {
	var account model.Account
	err := r.db.Where("github_id = ?", githubID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Account{}).Where("id = ?", id).Updates(fields).Error
}

func (r *AccountRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Account{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *AccountRepository) ExistsByUsername(username string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Account{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *AccountRepository) ExistsByPort(port int) (bool, error) {
	var count int64
	err := r.db.Model(&model.Account{}).Where("port = ?", port).Count(&count).Error
	return count > 0, err
}

// DebitMoney 条件扣款，余额不足时不修改并返回 false
func (r *AccountRepository) DebitMoney(id int64, amount decimal.Decimal) (bool, error) {
	result := r.db.Model(&model.Account{}).
		Where("id = ? AND money >= CAST(? AS DECIMAL(12,2))", id, amount.String()).
		Update("money", gorm.Expr("money - CAST(? AS DECIMAL(12,2))", amount.String()))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CreditMoney 加款，用户不存在时返回 false
func (r *AccountRepository) CreditMoney(id int64, amount decimal.Decimal) (bool, error) {
	result := r.db.Model(&model.Account{}).
		Where("id = ?", id).
		Update("money", gorm.Expr("money + CAST(? AS DECIMAL(12,2))", amount.String()))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AddTransferEnable 累加总流量
func (r *AccountRepository) AddTransferEnable(id int64, bytes int64) error {
	return r.db.Model(&model.Account{}).Where("id = ?", id).
		Update("transfer_enable", gorm.Expr("transfer_enable + ?", bytes)).Error
}

// RaiseClass 等级只升不降
func (r *AccountRepository) RaiseClass(id int64, class int) error {
	return r.db.Model(&model.Account{}).Where("id = ?", id).
		Update("class", gorm.Expr("CASE WHEN class < ? THEN ? ELSE class END", class, class)).Error
}

func (r *AccountRepository) SetExpiry(id int64, field string, at time.Time) error {
	if field != ExpiryFieldAccount && field != ExpiryFieldClass {
		return fmt.Errorf("%w: %s", ErrUnknownExpiryField, field)
	}
	return r.db.Model(&model.Account{}).Where("id = ?", id).Update(field, at).Error
}

// ListExpiringBetween 到期时间落在 [from, to) 的用户
func (r *AccountRepository) ListExpiringBetween(from, to time.Time) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.Where("expire_in >= ? AND expire_in < ?", from, to).
		Order("id ASC").
		Find(&accounts).Error
	return accounts, err
}

// EachBatch 分批遍历所有用户
func (r *AccountRepository) EachBatch(size int, fn func([]model.Account) error) error {
	var batch []model.Account
	return r.db.Select("id", "u", "d").FindInBatches(&batch, size, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}
