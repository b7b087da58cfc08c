package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/qs3c/spanel_go_server/internal/model"
)

const KeyAllNodes = "nodes:all"

// NodeCache 节点列表的 Redis 缓存
type NodeCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewNodeCache(client *redis.Client, ttl time.Duration) *NodeCache {
	return &NodeCache{client: client, ttl: ttl}
}

// Get 未命中时返回 (nil, false, nil)
func (c *NodeCache) Get(ctx context.Context) ([]model.Node, bool, error) {
	data, err := c.client.Get(ctx, KeyAllNodes).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read node cache: %w", err)
	}

	var nodes []model.Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, false, fmt.Errorf("failed to decode node cache: %w", err)
	}
	return nodes, true, nil
}

func (c *NodeCache) Set(ctx context.Context, nodes []model.Node) error {
	data, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("failed to encode node cache: %w", err)
	}
	return c.client.Set(ctx, KeyAllNodes, data, c.ttl).Err()
}

// Invalidate 节点变更后调用
func (c *NodeCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, KeyAllNodes).Err()
}
