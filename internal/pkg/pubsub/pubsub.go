package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelBalanceEvents = "balance_events"
)

// 事件类型
const (
	EventPurchase = "purchase"
	EventRedeem   = "redeem"
	EventCredit   = "credit"
)

// BalanceEvent 用户余额或权益变化
type BalanceEvent struct {
	Type       string `json:"type"`
	UserID     int64  `json:"user_id"`
	Event      string `json:"event"`
	Amount     string `json:"amount"`
	NewBalance string `json:"new_balance"`
	ShopID     int64  `json:"shop_id,omitempty"`
	Message    string `json:"message,omitempty"`
}

var eventMessages = map[string]string{
	EventPurchase: "购买成功",
	EventRedeem:   "充值成功",
	EventCredit:   "管理员已为您充值",
}

// EventMessage 事件对应的提示文案
func EventMessage(event string) string {
	return eventMessages[event]
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishBalance 发布余额变化事件
func (p *Publisher) PublishBalance(ctx context.Context, evt *BalanceEvent) error {
	evt.Type = "balance_changed"
	if evt.Message == "" {
		evt.Message = EventMessage(evt.Event)
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal balance event: %w", err)
	}

	return p.client.Publish(ctx, ChannelBalanceEvents, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅余额事件，ctx 取消时返回
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*BalanceEvent)) error {
	pubsub := s.client.Subscribe(ctx, ChannelBalanceEvents)
	defer pubsub.Close()

	// 等待订阅确认，避免丢失紧随其后发布的消息
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var evt BalanceEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue // 忽略解析错误
			}

			handler(&evt)
		}
	}
}
