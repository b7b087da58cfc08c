package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/internal/model"
)

var seq int64

func nextSeq() int64 {
	return atomic.AddInt64(&seq, 1)
}

// TestAccount 创建测试用户
func TestAccount(t *testing.T, db *gorm.DB, opts ...func(*model.Account)) *model.Account {
	t.Helper()

	n := nextSeq()
	email := fmt.Sprintf("test_%d@example.com", n)
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	account := &model.Account{
		Username:       fmt.Sprintf("testuser_%d", n),
		Email:          &email,
		PasswordHash:   &passwordHash,
		Money:          decimal.Zero,
		TransferEnable: 10 * 1024 * 1024 * 1024,
		Port:           20000 + int(n),
		Passwd:         "secret",
		Method:         "aes-256-gcm",
		Protocol:       "origin",
		Obfs:           "plain",
	}

	for _, opt := range opts {
		opt(account)
	}

	if err := db.Create(account).Error; err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}

	return account
}

// WithMoney 设置余额
func WithMoney(amount string) func(*model.Account) {
	return func(a *model.Account) {
		a.Money = decimal.RequireFromString(amount)
	}
}

// WithClass 设置等级与分组
func WithClass(class, group int) func(*model.Account) {
	return func(a *model.Account) {
		a.Class = class
		a.NodeGroup = group
	}
}

// WithExpireIn 设置账户到期时间
func WithExpireIn(t time.Time) func(*model.Account) {
	return func(a *model.Account) {
		a.ExpireIn = &t
	}
}

// WithTraffic 设置流量
func WithTraffic(total, upload, download int64) func(*model.Account) {
	return func(a *model.Account) {
		a.TransferEnable = total
		a.U = upload
		a.D = download
	}
}

// WithAdmin 设置为管理员
func WithAdmin() func(*model.Account) {
	return func(a *model.Account) {
		a.IsAdmin = true
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.Account) {
	return func(a *model.Account) {
		a.Email = &email
	}
}

// TestNode 创建测试节点
func TestNode(t *testing.T, db *gorm.DB, opts ...func(*model.Node)) *model.Node {
	t.Helper()

	n := nextSeq()
	node := &model.Node{
		Name:        fmt.Sprintf("node-%d", n),
		Server:      fmt.Sprintf("n%d.example.com", n),
		Port:        443,
		Method:      "aes-256-gcm",
		Type:        model.NodeTypeShadowsocks,
		Online:      true,
		TrafficRate: 1,
		NodeKey:     "node-key",
	}

	for _, opt := range opts {
		opt(node)
	}

	if err := db.Create(node).Error; err != nil {
		t.Fatalf("Failed to create test node: %v", err)
	}

	return node
}

// WithNodeAccess 设置节点等级、分组与排序
func WithNodeAccess(class, group, sort int) func(*model.Node) {
	return func(n *model.Node) {
		n.NodeClass = class
		n.NodeGroup = group
		n.Sort = sort
	}
}

// WithOffline 节点离线
func WithOffline() func(*model.Node) {
	return func(n *model.Node) {
		n.Online = false
	}
}

// TestProduct 创建测试商品
func TestProduct(t *testing.T, db *gorm.DB, price, content string, opts ...func(*model.Product)) *model.Product {
	t.Helper()

	product := &model.Product{
		Name:    fmt.Sprintf("plan-%d", nextSeq()),
		Price:   decimal.RequireFromString(price),
		Content: content,
		Status:  model.ProductStatusActive,
	}

	for _, opt := range opts {
		opt(product)
	}

	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}

	return product
}

// WithInactive 下架商品
func WithInactive() func(*model.Product) {
	return func(p *model.Product) {
		p.Status = model.ProductStatusInactive
	}
}

// TestCode 创建充值码
func TestCode(t *testing.T, db *gorm.DB, code, amount string) *model.RedemptionCode {
	t.Helper()

	rc := &model.RedemptionCode{
		Code:   code,
		Amount: decimal.RequireFromString(amount),
	}

	if err := db.Create(rc).Error; err != nil {
		t.Fatalf("Failed to create test code: %v", err)
	}

	return rc
}

// TestUsedCode 创建一条已被某用户使用的充值码
func TestUsedCode(t *testing.T, db *gorm.DB, userID int64, usedAt time.Time) *model.RedemptionCode {
	t.Helper()

	rc := &model.RedemptionCode{
		Code:   fmt.Sprintf("USED-%08d", nextSeq()),
		Amount: decimal.NewFromInt(1),
		IsUsed: true,
		UserID: &userID,
		UsedAt: &usedAt,
	}

	if err := db.Create(rc).Error; err != nil {
		t.Fatalf("Failed to create used code: %v", err)
	}

	return rc
}
