package render

import (
	"fmt"
	"strings"

	"github.com/qs3c/spanel_go_server/internal/model"
)

const surgeGeneral = `[General]
loglevel = notify
skip-proxy = 127.0.0.1, 192.168.0.0/16, 10.0.0.0/8, 172.16.0.0/12, 100.64.0.0/10, localhost, *.local
ipv6 = true
dns-server = system
`

func surgeConfig(account *model.Account, nodes []model.Node) string {
	var b strings.Builder
	b.WriteString(surgeGeneral)

	b.WriteString("\n[Proxy]\n")
	names := make([]string, 0, len(nodes)+1)
	for i := range nodes {
		n := &nodes[i]
		fmt.Fprintf(&b, "%s = ss, %s, %d, encrypt-method=%s, password=%s\n",
			n.Name, n.Server, n.Port, cipher(account, n), account.Passwd)
		names = append(names, n.Name)
	}
	names = append(names, "DIRECT")

	b.WriteString("\n[Proxy Group]\n")
	fmt.Fprintf(&b, "%s = select, %s\n", groupSelect, strings.Join(names, ", "))

	b.WriteString("\n[Rule]\n")
	fmt.Fprintf(&b, "FINAL,%s\n", groupSelect)

	return b.String()
}
