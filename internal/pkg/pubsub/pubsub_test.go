package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func TestEventMessage(t *testing.T) {
	for _, event := range []string{EventPurchase, EventRedeem, EventCredit} {
		assert.NotEmpty(t, EventMessage(event), "event %s should have message", event)
	}
	assert.Empty(t, EventMessage("unknown"))
}

func TestBalanceEvent_JSON(t *testing.T) {
	evt := &BalanceEvent{
		Type:       "balance_changed",
		UserID:     1,
		Event:      EventRedeem,
		Amount:     "10.00",
		NewBalance: "25.50",
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Contains(t, raw, "user_id")
	assert.Contains(t, raw, "new_balance")
	_, hasShop := raw["shop_id"]
	assert.False(t, hasShop, "zero shop_id should be omitted")
}

func TestPublisherSubscriber(t *testing.T) {
	client := setupTestRedis(t)

	publisher := NewPublisher(client)
	subscriber := NewSubscriber(client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan *BalanceEvent, 1)
	go func() {
		subscriber.Subscribe(ctx, func(evt *BalanceEvent) {
			received <- evt
		})
	}()

	// 等待订阅建立
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, ChannelBalanceEvents).Result()
		return err == nil && n[ChannelBalanceEvents] > 0
	}, 2*time.Second, 10*time.Millisecond)

	err := publisher.PublishBalance(ctx, &BalanceEvent{
		UserID:     42,
		Event:      EventPurchase,
		Amount:     "10",
		NewBalance: "90",
		ShopID:     3,
	})
	require.NoError(t, err)

	select {
	case evt := <-received:
		assert.Equal(t, int64(42), evt.UserID)
		assert.Equal(t, "balance_changed", evt.Type)
		assert.Equal(t, int64(3), evt.ShopID)
		assert.Equal(t, EventMessage(EventPurchase), evt.Message)
	case <-ctx.Done():
		t.Fatal("Timeout waiting for message")
	}
}

func TestSubscriber_ContextCancel(t *testing.T) {
	client := setupTestRedis(t)
	subscriber := NewSubscriber(client)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- subscriber.Subscribe(ctx, func(*BalanceEvent) {})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
}
