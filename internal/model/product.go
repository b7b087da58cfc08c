package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProductStatusInactive = 0
	ProductStatusActive   = 1
)

// Product 商店商品，Content 为 JSON 或旧版 "key: value" 文本
type Product struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:128;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Content   string          `gorm:"type:text" json:"content"`
	AutoRenew int             `gorm:"default:0" json:"auto_renew"`
	Status    int             `gorm:"not null;index" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "shop"
}

func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}
