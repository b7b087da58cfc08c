package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
	"strings"

	"github.com/qs3c/spanel_go_server/config"
)

var ErrNotConfigured = errors.New("smtp not configured")

const layout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">{{.Title}}</h2>
        <p>您好，{{.Username}}！</p>
        {{block "content" .}}{{end}}
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由 {{.SiteName}} 自动发送，请勿回复。</p>
    </div>
</body>
</html>
`

var templates = map[string]string{
	"purchase": `{{define "content"}}
        <p>您已成功购买套餐 <b>{{.ProductName}}</b>，支付 {{.Amount}} 元。</p>
        <p>当前余额：{{.NewBalance}} 元</p>
        {{if .ExpireAt}}<p>账户有效期至：{{.ExpireAt}}</p>{{end}}
{{end}}`,
	"redeem": `{{define "content"}}
        <p>充值码兑换成功，到账 {{.Amount}} 元。</p>
        <p>当前余额：{{.NewBalance}} 元</p>
{{end}}`,
	"expiry": `{{define "content"}}
        <p>您的账户将于 <b>{{.ExpireAt}}</b> 到期，到期后订阅将无法使用。</p>
        <p>请及时登录面板续费。</p>
{{end}}`,
}

var parsed = func() map[string]*template.Template {
	base := template.Must(template.New("layout").Parse(layout))
	out := make(map[string]*template.Template, len(templates))
	for name, body := range templates {
		out[name] = template.Must(template.Must(base.Clone()).Parse(body))
	}
	return out
}()

// Data 邮件模板变量
type Data struct {
	Title       string
	SiteName    string
	Username    string
	ProductName string
	Amount      string
	NewBalance  string
	ExpireAt    string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	cfg  *config.EmailConfig
	send sendFunc
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg, send: smtp.SendMail}
}

// Enabled SMTP 是否已配置
func (s *Service) Enabled() bool {
	return s.cfg != nil && s.cfg.SMTPHost != "" && s.cfg.From != ""
}

// SendPurchase 购买成功通知
func (s *Service) SendPurchase(to string, data Data) error {
	data.Title = "购买成功"
	return s.render(to, "purchase", data)
}

// SendRedeem 充值成功通知
func (s *Service) SendRedeem(to string, data Data) error {
	data.Title = "充值成功"
	return s.render(to, "redeem", data)
}

// SendExpiryReminder 账户即将到期提醒
func (s *Service) SendExpiryReminder(to string, data Data) error {
	data.Title = "账户即将到期"
	return s.render(to, "expiry", data)
}

func (s *Service) render(to, name string, data Data) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	if data.SiteName == "" {
		data.SiteName = s.cfg.SiteName
	}

	var body bytes.Buffer
	if err := parsed[name].Execute(&body, data); err != nil {
		return fmt.Errorf("render %s email: %w", name, err)
	}

	subject := data.Title
	if data.SiteName != "" {
		subject = fmt.Sprintf("%s - %s", data.Title, data.SiteName)
	}
	return s.sendHTML(to, subject, body.String())
}

// sendHTML 发送 HTML 邮件
func (s *Service) sendHTML(to, subject, body string) error {
	headers := [][2]string{
		{"From", s.cfg.From},
		{"To", to},
		{"Subject", mime.BEncoding.Encode("UTF-8", subject)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var msg strings.Builder
	for _, h := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	return s.send(addr, auth, s.cfg.From, []string{to}, []byte(msg.String()))
}
