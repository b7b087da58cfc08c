package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRecord 购买记录，只追加不修改
type PurchaseRecord struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	UserID    int64           `gorm:"index;not null" json:"user_id"`
	ShopID    int64           `gorm:"index;not null" json:"shop_id"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Renew     bool            `gorm:"default:false" json:"renew"`
	CreatedAt time.Time       `json:"created_at"`

	Product *Product `gorm:"foreignKey:ShopID" json:"product,omitempty"`
}

func (PurchaseRecord) TableName() string {
	return "bought"
}
