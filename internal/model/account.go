package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account 面板用户，余额/流量/等级/到期时间都挂在这一行上
type Account struct {
	ID           int64   `gorm:"primaryKey" json:"id"`
	Username     string  `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        *string `gorm:"size:100;uniqueIndex" json:"email,omitempty"`
	PasswordHash *string `gorm:"column:pass;size:255" json:"-"`
	// 旧版面板迁移过来的账号使用 sha256/md5 加盐
	PasswordSalt string  `gorm:"column:salt;size:64" json:"-"`
	GithubID     *string `gorm:"column:github_id;size:50;uniqueIndex" json:"-"`
	AvatarURL    string  `gorm:"size:500" json:"avatar_url"`
	IsAdmin      bool    `gorm:"default:false" json:"is_admin"`

	Money          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"money"`
	Class          int             `gorm:"default:0" json:"class"`
	NodeGroup      int             `gorm:"column:node_group;default:0" json:"node_group"`
	TransferEnable int64           `gorm:"column:transfer_enable;default:0" json:"transfer_enable"`
	U              int64           `gorm:"column:u;default:0" json:"u"`
	D              int64           `gorm:"column:d;default:0" json:"d"`
	ExpireIn       *time.Time      `gorm:"column:expire_in" json:"expire_in,omitempty"`
	ClassExpire    *time.Time      `gorm:"column:class_expire" json:"class_expire,omitempty"`

	Port     int    `gorm:"index" json:"port"`
	Passwd   string `gorm:"size:64" json:"-"`
	Method   string `gorm:"size:64" json:"method"`
	Protocol string `gorm:"size:64" json:"protocol"`
	Obfs     string `gorm:"size:64" json:"obfs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "users"
}

// IsExpired 账户有效期已过（未设置视为永不过期）
func (a *Account) IsExpired(now time.Time) bool {
	return a.ExpireIn != nil && a.ExpireIn.Before(now)
}

// UsedTraffic 已用流量（上行 + 下行）
func (a *Account) UsedTraffic() int64 {
	return a.U + a.D
}

// RemainingTraffic 剩余流量，不会小于 0
func (a *Account) RemainingTraffic() int64 {
	remain := a.TransferEnable - a.UsedTraffic()
	if remain < 0 {
		return 0
	}
	return remain
}
