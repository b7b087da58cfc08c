package service

import (
	"sort"

	"github.com/qs3c/spanel_go_server/internal/model"
)

// EligibleNodes 过滤出用户可用的节点并按 sort 升序排列（相同 sort 保持输入顺序）
func EligibleNodes(account *model.Account, nodes []model.Node) []model.Node {
	eligible := make([]model.Node, 0, len(nodes))
	for _, n := range nodes {
		if !n.Online {
			continue
		}
		if n.NodeClass > account.Class {
			continue
		}
		if n.NodeGroup != 0 && n.NodeGroup != account.NodeGroup {
			continue
		}
		eligible = append(eligible, n)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Sort < eligible[j].Sort
	})
	return eligible
}
