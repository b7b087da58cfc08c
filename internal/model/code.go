package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RedemptionCode 充值码，is_used 只允许 false -> true 一次
type RedemptionCode struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	Code      string          `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	IsUsed    bool            `gorm:"default:false;index" json:"is_used"`
	UserID    *int64          `gorm:"index:idx_code_user_used" json:"user_id,omitempty"`
	UsedAt    *time.Time      `gorm:"index:idx_code_user_used" json:"used_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (RedemptionCode) TableName() string {
	return "code"
}
