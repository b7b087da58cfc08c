package render

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/qs3c/spanel_go_server/internal/model"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// ss://base64(method:password)@server:port#name
func ssLink(account *model.Account, node *model.Node) (string, error) {
	userInfo := b64(cipher(account, node) + ":" + account.Passwd)
	return fmt.Sprintf("ss://%s@%s:%d#%s", userInfo, node.Server, node.Port, encodeURIComponent(node.Name)), nil
}

// ssr://server:port:protocol:method:obfs:base64(password)/?remarks=base64(name)&group=base64(group)
func ssrLink(account *model.Account, node *model.Node, groupName string) string {
	protocol := account.Protocol
	if protocol == "" {
		protocol = defaultProtocol
	}
	obfs := account.Obfs
	if obfs == "" {
		obfs = defaultObfs
	}

	return fmt.Sprintf("ssr://%s:%d:%s:%s:%s:%s/?remarks=%s&group=%s",
		node.Server, node.Port, protocol, cipher(account, node), obfs,
		b64(account.Passwd), b64(node.Name), b64(groupName))
}

// vmessConfig 字段顺序即客户端看到的 JSON 顺序
type vmessConfig struct {
	V    string `json:"v"`
	PS   string `json:"ps"`
	Add  string `json:"add"`
	Port string `json:"port"`
	ID   string `json:"id"`
	Aid  string `json:"aid"`
	Scy  string `json:"scy"`
	Net  string `json:"net"`
	Type string `json:"type"`
	Host string `json:"host"`
	Path string `json:"path"`
	TLS  string `json:"tls"`
}

func vmessLink(account *model.Account, node *model.Node) (string, error) {
	cfg := vmessConfig{
		V:    "2",
		PS:   node.Name,
		Add:  node.Server,
		Port: strconv.Itoa(node.Port),
		ID:   account.Passwd,
		Aid:  "0",
		Scy:  "auto",
		Net:  "tcp",
		Type: "none",
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cfg); err != nil {
		return "", err
	}

	return "vmess://" + b64(string(bytes.TrimRight(buf.Bytes(), "\n"))), nil
}

// trojan://password@server:port?peer=server#name
func trojanLink(account *model.Account, node *model.Node) (string, error) {
	return fmt.Sprintf("trojan://%s@%s:%d?peer=%s#%s",
		account.Passwd, node.Server, node.Port, node.Server, encodeURIComponent(node.Name)), nil
}
