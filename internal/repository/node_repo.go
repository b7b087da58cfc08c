package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/internal/model"
)

type NodeRepository struct {
	db *gorm.DB
}

func NewNodeRepository(db *gorm.DB) *NodeRepository {
	return &NodeRepository{db: db}
}

func (r *NodeRepository) Create(node *model.Node) error {
	return r.db.Create(node).Error
}

func (r *NodeRepository) Update(node *model.Node) error {
	return r.db.Save(node).Error
}

func (r *NodeRepository) GetByID(id int64) (*model.Node, error) {
	var node model.Node
	err := r.db.Where("id = ?", id).First(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// ListAll 全部节点，按 sort、id 排序
func (r *NodeRepository) ListAll() ([]model.Node, error) {
	var nodes []model.Node
	err := r.db.Order("sort ASC, id ASC").Find(&nodes).Error
	return nodes, err
}

// Heartbeat 节点上报心跳，标记在线
func (r *NodeRepository) Heartbeat(id int64, load string, onlineUsers int, at time.Time) error {
	return r.db.Model(&model.Node{}).Where("id = ?", id).Updates(map[string]interface{}{
		"online":       true,
		"load":         load,
		"online_users": onlineUsers,
		"heartbeat_at": at,
	}).Error
}

// MarkStaleOffline 心跳早于 before（或从未上报）的在线节点置为离线
func (r *NodeRepository) MarkStaleOffline(before time.Time) (int64, error) {
	result := r.db.Model(&model.Node{}).
		Where("online = ? AND (heartbeat_at IS NULL OR heartbeat_at < ?)", true, before).
		Update("online", false)
	return result.RowsAffected, result.Error
}
