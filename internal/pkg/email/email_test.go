package email

import (
	"mime"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/spanel_go_server/config"
)

type capture struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestService(cfg *config.EmailConfig) (*Service, *capture) {
	c := &capture{}
	svc := NewService(cfg)
	svc.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		c.addr = addr
		c.from = from
		c.to = to
		c.msg = string(msg)
		return nil
	}
	return svc, c
}

func testConfig() *config.EmailConfig {
	return &config.EmailConfig{
		SMTPHost: "smtp.example.com",
		SMTPPort: 465,
		From:     "panel@example.com",
		SiteName: "SPanel",
	}
}

func TestService_NotConfigured(t *testing.T) {
	svc, c := newTestService(&config.EmailConfig{})

	assert.False(t, svc.Enabled())
	assert.ErrorIs(t, svc.SendRedeem("a@example.com", Data{}), ErrNotConfigured)
	assert.Empty(t, c.msg)
}

func TestService_SendPurchase(t *testing.T) {
	svc, c := newTestService(testConfig())

	err := svc.SendPurchase("user@example.com", Data{
		Username:    "alice",
		ProductName: "月付套餐",
		Amount:      "15.00",
		NewBalance:  "85.00",
		ExpireAt:    "2026-04-01T00:00:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:465", c.addr)
	assert.Equal(t, "panel@example.com", c.from)
	assert.Equal(t, []string{"user@example.com"}, c.to)
	assert.Contains(t, c.msg, "Subject: "+mime.BEncoding.Encode("UTF-8", "购买成功 - SPanel"))
	assert.Contains(t, c.msg, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, c.msg, "月付套餐")
	assert.Contains(t, c.msg, "85.00")
	assert.Contains(t, c.msg, "2026-04-01T00:00:00Z")
}

func TestService_EscapesUserInput(t *testing.T) {
	svc, c := newTestService(testConfig())

	require.NoError(t, svc.SendRedeem("user@example.com", Data{Username: "<script>x</script>", Amount: "1.00"}))
	assert.NotContains(t, c.msg, "<script>")
	assert.Contains(t, c.msg, "&lt;script&gt;")
}

func TestService_SendExpiryReminder(t *testing.T) {
	svc, c := newTestService(testConfig())

	require.NoError(t, svc.SendExpiryReminder("user@example.com", Data{Username: "bob", ExpireAt: "2026-03-17"}))
	assert.Contains(t, c.msg, "2026-03-17")
	assert.Contains(t, c.msg, "bob")
}
