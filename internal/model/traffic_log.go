package model

import "time"

// TrafficLog 每日流量快照
type TrafficLog struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"uniqueIndex:idx_traffic_user_date;not null" json:"user_id"`
	LogDate   string    `gorm:"size:10;uniqueIndex:idx_traffic_user_date;not null" json:"log_date"` // 2006-01-02
	U         int64     `gorm:"column:u" json:"u"`
	D         int64     `gorm:"column:d" json:"d"`
	CreatedAt time.Time `json:"created_at"`
}

func (TrafficLog) TableName() string {
	return "user_traffic_log"
}
