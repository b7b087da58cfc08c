package render

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/qs3c/spanel_go_server/internal/model"
)

type clashConfigDoc struct {
	Port               int          `yaml:"port"`
	SocksPort          int          `yaml:"socks-port"`
	AllowLan           bool         `yaml:"allow-lan"`
	Mode               string       `yaml:"mode"`
	LogLevel           string       `yaml:"log-level"`
	ExternalController string       `yaml:"external-controller"`
	Proxies            []clashProxy `yaml:"proxies"`
	ProxyGroups        []clashGroup `yaml:"proxy-groups"`
	Rules              []string     `yaml:"rules"`
}

type clashProxy struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Cipher   string `yaml:"cipher"`
	Password string `yaml:"password"`
}

type clashGroup struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	URL      string   `yaml:"url,omitempty"`
	Interval int      `yaml:"interval,omitempty"`
	Proxies  []string `yaml:"proxies"`
}

func clashConfig(account *model.Account, nodes []model.Node) (string, error) {
	proxies := make([]clashProxy, 0, len(nodes))
	names := make([]string, 0, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		proxies = append(proxies, clashProxy{
			Name:     n.Name,
			Type:     "ss",
			Server:   n.Server,
			Port:     n.Port,
			Cipher:   cipher(account, n),
			Password: account.Passwd,
		})
		names = append(names, n.Name)
	}

	doc := clashConfigDoc{
		Port:               7890,
		SocksPort:          7891,
		AllowLan:           true,
		Mode:               "Rule",
		LogLevel:           "info",
		ExternalController: "127.0.0.1:9090",
		Proxies:            proxies,
		ProxyGroups: []clashGroup{
			{
				Name:    groupSelect,
				Type:    "select",
				Proxies: append([]string{groupAuto}, names...),
			},
			{
				Name:     groupAuto,
				Type:     "url-test",
				URL:      "http://www.gstatic.com/generate_204",
				Interval: 300,
				Proxies:  names,
			},
		},
		Rules: []string{"MATCH," + groupSelect},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
