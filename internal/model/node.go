package model

import "time"

// 节点类型
const (
	NodeTypeShadowsocks  = 1
	NodeTypeShadowsocksR = 2
	NodeTypeV2Ray        = 11
	NodeTypeTrojan       = 14
)

type Node struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:128;not null" json:"name"`
	Server      string     `gorm:"size:255;not null" json:"server"`
	Port        int        `gorm:"not null" json:"port"`
	Method      string     `gorm:"size:64" json:"method"`
	Type        int        `gorm:"default:1" json:"type"`
	NodeClass   int        `gorm:"column:node_class;default:0" json:"node_class"`
	NodeGroup   int        `gorm:"column:node_group;default:0" json:"node_group"`
	Online      bool       `gorm:"default:false" json:"online"`
	TrafficRate float64    `gorm:"not null" json:"traffic_rate"`
	Sort        int        `gorm:"default:0;index" json:"sort"`
	Info        string     `gorm:"size:255" json:"info"`
	NodeKey     string     `gorm:"size:64" json:"-"`
	Load        string     `gorm:"size:64" json:"load"`
	OnlineUsers int        `gorm:"default:0" json:"online_users"`
	HeartbeatAt *time.Time `json:"heartbeat_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Node) TableName() string {
	return "ss_node"
}

// TypeName 节点类型名称
func (n *Node) TypeName() string {
	switch n.Type {
	case NodeTypeShadowsocks:
		return "ss"
	case NodeTypeShadowsocksR:
		return "ssr"
	case NodeTypeV2Ray:
		return "v2ray"
	case NodeTypeTrojan:
		return "trojan"
	default:
		return "unknown"
	}
}
