package model

import "time"

// SubscriptionLink 订阅 token，每个用户只有一个有效 token
type SubscriptionLink struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"size:64;uniqueIndex;not null" json:"token"`
	UserID    int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (SubscriptionLink) TableName() string {
	return "link"
}
