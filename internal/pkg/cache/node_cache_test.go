package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/spanel_go_server/internal/model"
)

func setupCache(t *testing.T) (*NodeCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return NewNodeCache(client, 30*time.Second), mr
}

func TestNodeCache_Miss(t *testing.T) {
	c, _ := setupCache(t)

	nodes, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, nodes)
}

func TestNodeCache_SetGet(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	err := c.Set(ctx, []model.Node{
		{ID: 1, Name: "香港 01", Server: "hk.example.com", Port: 443, NodeClass: 1},
		{ID: 2, Name: "日本 01", Server: "jp.example.com", Port: 8443, NodeGroup: 2},
	})
	require.NoError(t, err)
	assert.True(t, mr.Exists(KeyAllNodes))
	assert.Equal(t, 30*time.Second, mr.TTL(KeyAllNodes))

	nodes, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, nodes, 2)
	assert.Equal(t, "香港 01", nodes[0].Name)
	assert.Equal(t, 2, nodes[1].NodeGroup)
}

func TestNodeCache_Expires(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, []model.Node{{ID: 1}}))
	mr.FastForward(31 * time.Second)

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNodeCache_Invalidate(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, []model.Node{{ID: 1}}))
	require.NoError(t, c.Invalidate(ctx))

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNodeCache_CorruptPayload(t *testing.T) {
	c, mr := setupCache(t)
	require.NoError(t, mr.Set(KeyAllNodes, "{broken"))

	_, _, err := c.Get(context.Background())
	assert.Error(t, err)
}
