// Package render 根据用户凭据和可用节点生成各客户端的订阅内容。
//
// 输出需要与第三方客户端逐字节兼容，修改格式前请先确认客户端解析方式。
package render

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/qs3c/spanel_go_server/internal/model"
)

// 订阅目标
const (
	TargetSS     = "ss"
	TargetSSR    = "ssr"
	TargetV2Ray  = "v2ray"
	TargetVMess  = "vmess"
	TargetTrojan = "trojan"
	TargetClash  = "clash"
	TargetSurge  = "surge"
)

// Targets 对外公布的订阅目标
var Targets = []string{TargetSS, TargetSSR, TargetV2Ray, TargetTrojan, TargetClash, TargetSurge}

const (
	HeaderUserInfo           = "subscription-userinfo"
	HeaderContentDisposition = "Content-Disposition"

	contentTypeText = "text/plain; charset=utf-8"
	contentTypeYAML = "text/yaml; charset=utf-8"

	defaultProtocol = "origin"
	defaultObfs     = "plain"

	groupSelect = "🚀 节点选择"
	groupAuto   = "♻️ 自动选择"
)

// Document 渲染结果
type Document struct {
	Body        []byte
	ContentType string
	Headers     map[string]string
}

// Render 渲染订阅。未知 target 按 ss 处理。
func Render(account *model.Account, nodes []model.Node, target, groupName string) (*Document, error) {
	doc := &Document{
		ContentType: contentTypeText,
		Headers: map[string]string{
			HeaderUserInfo: UserInfoHeader(account),
		},
	}

	var (
		body string
		err  error
	)
	switch target {
	case TargetClash:
		body, err = clashConfig(account, nodes)
		doc.ContentType = contentTypeYAML
		doc.Headers[HeaderContentDisposition] = "attachment; filename=clash.yaml"
	case TargetSurge:
		body = surgeConfig(account, nodes)
		doc.Headers[HeaderContentDisposition] = "attachment; filename=surge.conf"
	case TargetV2Ray, TargetVMess:
		body, err = joinLines(account, nodes, vmessLink)
	case TargetSSR:
		body, err = joinLines(account, nodes, func(a *model.Account, n *model.Node) (string, error) {
			return ssrLink(a, n, groupName), nil
		})
	case TargetTrojan:
		body, err = joinLines(account, nodes, trojanLink)
	default:
		body, err = joinLines(account, nodes, ssLink)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", target, err)
	}

	doc.Body = []byte(body)
	return doc, nil
}

// UserInfoHeader 客户端用于显示流量与到期时间的响应头
func UserInfoHeader(account *model.Account) string {
	var expire int64
	if account.ExpireIn != nil {
		expire = account.ExpireIn.Unix()
	}
	return fmt.Sprintf("upload=%d; download=%d; total=%d; expire=%d",
		account.U, account.D, account.TransferEnable, expire)
}

func joinLines(account *model.Account, nodes []model.Node, link func(*model.Account, *model.Node) (string, error)) (string, error) {
	lines := make([]string, 0, len(nodes))
	for i := range nodes {
		line, err := link(account, &nodes[i])
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// cipher 用户自定义加密优先，其次节点默认
func cipher(account *model.Account, node *model.Node) string {
	if account.Method != "" {
		return account.Method
	}
	return node.Method
}

var uriUnescaper = strings.NewReplacer(
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent 与浏览器 encodeURIComponent 输出一致
func encodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	return uriUnescaper.Replace(escaped)
}
