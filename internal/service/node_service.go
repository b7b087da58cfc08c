package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/internal/model"
	"github.com/qs3c/spanel_go_server/internal/model/dto"
	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
	"github.com/qs3c/spanel_go_server/internal/repository"
)

var (
	ErrNodeNotFound   = errors.New("节点不存在")
	ErrInvalidNodeKey = errors.New("节点密钥错误")
)

// NodeLister 读取全部节点快照
type NodeLister interface {
	ListNodes(ctx context.Context) ([]model.Node, error)
}

// NodeCache 节点列表缓存
type NodeCache interface {
	Get(ctx context.Context) ([]model.Node, bool, error)
	Set(ctx context.Context, nodes []model.Node) error
	Invalidate(ctx context.Context) error
}

type NodeService struct {
	nodeRepo *repository.NodeRepository
	cache    NodeCache
	logger   logging.Logger
}

// NewNodeService cache 可以为 nil，此时每次都查库
func NewNodeService(nodeRepo *repository.NodeRepository, cache NodeCache, logger logging.Logger) *NodeService {
	return &NodeService{
		nodeRepo: nodeRepo,
		cache:    cache,
		logger:   logger,
	}
}

// ListNodes 返回全部节点，优先读缓存。缓存异常时降级查库。
func (s *NodeService) ListNodes(ctx context.Context) ([]model.Node, error) {
	if s.cache != nil {
		nodes, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn(ctx, "node cache read failed", "error", err)
		} else if ok {
			return nodes, nil
		}
	}

	nodes, err := s.nodeRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, nodes); err != nil {
			s.logger.Warn(ctx, "node cache write failed", "error", err)
		}
	}
	return nodes, nil
}

// Heartbeat 校验节点密钥并标记在线
func (s *NodeService) Heartbeat(ctx context.Context, nodeKey string, req *dto.HeartbeatRequest) error {
	node, err := s.nodeRepo.GetByID(req.NodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNodeNotFound
		}
		return err
	}

	if node.NodeKey == "" || subtle.ConstantTimeCompare([]byte(node.NodeKey), []byte(nodeKey)) != 1 {
		return ErrInvalidNodeKey
	}

	if err := s.nodeRepo.Heartbeat(node.ID, req.Load, req.OnlineUsers, time.Now()); err != nil {
		return err
	}

	// 离线节点恢复上线需要让订阅尽快看到
	if !node.Online {
		s.invalidate(ctx)
	}
	return nil
}

// SweepOffline 将超过 threshold 未上报心跳的节点置为离线
func (s *NodeService) SweepOffline(ctx context.Context, threshold time.Duration) (int64, error) {
	n, err := s.nodeRepo.MarkStaleOffline(time.Now().Add(-threshold))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info(ctx, "nodes marked offline", "count", n)
		s.invalidate(ctx)
	}
	return n, nil
}

// SaveNode 新增（id 为 0）或修改节点
func (s *NodeService) SaveNode(ctx context.Context, id int64, req *dto.SaveNodeRequest) (*model.Node, error) {
	node := &model.Node{}
	if id != 0 {
		existing, err := s.nodeRepo.GetByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNodeNotFound
			}
			return nil, err
		}
		node = existing
	}

	node.Name = req.Name
	node.Server = req.Server
	node.Port = req.Port
	node.Method = req.Method
	node.Type = req.Type
	node.NodeClass = req.NodeClass
	node.NodeGroup = req.NodeGroup
	switch {
	case req.TrafficRate != nil:
		node.TrafficRate = *req.TrafficRate
	case id == 0:
		node.TrafficRate = 1
	}
	node.Sort = req.Sort
	node.Info = req.Info
	if req.NodeKey != "" {
		node.NodeKey = req.NodeKey
	}

	var err error
	if id == 0 {
		err = s.nodeRepo.Create(node)
	} else {
		err = s.nodeRepo.Update(node)
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return node, nil
}

// UserNodes 用户可用节点（不含凭据）
func (s *NodeService) UserNodes(ctx context.Context, account *model.Account) ([]dto.NodeItem, error) {
	nodes, err := s.ListNodes(ctx)
	if err != nil {
		return nil, err
	}

	eligible := EligibleNodes(account, nodes)
	items := make([]dto.NodeItem, 0, len(eligible))
	for i := range eligible {
		n := &eligible[i]
		items = append(items, dto.NodeItem{
			ID:          n.ID,
			Name:        n.Name,
			Type:        n.TypeName(),
			Server:      n.Server,
			Port:        n.Port,
			NodeClass:   n.NodeClass,
			TrafficRate: n.TrafficRate,
			Info:        n.Info,
			Online:      n.Online,
			OnlineUsers: n.OnlineUsers,
			Load:        n.Load,
		})
	}
	return items, nil
}

func (s *NodeService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn(ctx, "node cache invalidate failed", "error", err)
	}
}
