package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, cleanup
}

func TestNewQueue(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	q := NewQueue(client, "notify_queue")

	assert.NotNil(t, q)
	assert.Equal(t, "notify_queue", q.queueName)
	assert.Equal(t, client, q.client)
}

func TestQueue_Push(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	q := NewQueue(client, "test_queue")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := q.Push(ctx, &NotifyMessage{Kind: KindRedeem, UserID: int64(i)})
		require.NoError(t, err)
	}

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), length)
}

func TestQueue_Pop(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("pop returns pushed fields", func(t *testing.T) {
		q := NewQueue(client, "test_pop_queue")

		err := q.Push(ctx, &NotifyMessage{
			Kind:        KindPurchase,
			UserID:      20,
			Email:       "user@example.com",
			Username:    "user",
			ProductName: "100G 月付",
			Amount:      "10.00",
			NewBalance:  "90.00",
		})
		require.NoError(t, err)

		result, err := q.Pop(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, KindPurchase, result.Kind)
		assert.Equal(t, int64(20), result.UserID)
		assert.Equal(t, "user@example.com", result.Email)
		assert.Equal(t, "100G 月付", result.ProductName)
		assert.Equal(t, "90.00", result.NewBalance)
	})

	t.Run("pop FIFO order", func(t *testing.T) {
		q := NewQueue(client, "test_fifo_queue")

		for i := 1; i <= 3; i++ {
			require.NoError(t, q.Push(ctx, &NotifyMessage{UserID: int64(i)}))
		}

		for i := 1; i <= 3; i++ {
			result, err := q.Pop(ctx, time.Second)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, int64(i), result.UserID)
		}
	})

	t.Run("pop from empty queue times out", func(t *testing.T) {
		q := NewQueue(client, "test_empty_queue")

		result, err := q.Pop(ctx, 10*time.Millisecond)

		// miniredis 的 BRPOP 超时行为与真实 Redis 不完全一致
		if err == nil {
			assert.Nil(t, result)
		}
	})
}

func TestQueue_Pop_InvalidPayload(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	q := NewQueue(client, "test_invalid")
	require.NoError(t, client.LPush(ctx, "test_invalid", "not json").Err())

	_, err := q.Pop(ctx, time.Second)
	assert.Error(t, err)
}
