package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
	"github.com/qs3c/spanel_go_server/internal/pkg/pubsub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// newTestServer 每个连接注册为 userID，服务端持有连接直到客户端断开
func newTestServer(t *testing.T, hub *Hub, userID int64) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := &Client{UserID: userID, Conn: conn}
		hub.Register(client)
		defer func() {
			hub.Unregister(client)
			conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_Empty(t *testing.T) {
	hub := NewHub(logging.NewNop())

	assert.Equal(t, 0, hub.ConnectionCount())
	assert.False(t, hub.IsOnline(123))
	assert.NoError(t, hub.SendToUser(123, map[string]string{"k": "v"}))
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub(logging.NewNop())
	server := newTestServer(t, hub, 100)

	first := dial(t, server)
	second := dial(t, server)

	assert.Eventually(t, func() bool { return hub.ConnectionCount() == 2 }, time.Second, 10*time.Millisecond)
	assert.True(t, hub.IsOnline(100))

	first.Close()
	assert.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, hub.IsOnline(100))

	second.Close()
	assert.Eventually(t, func() bool { return !hub.IsOnline(100) }, time.Second, 10*time.Millisecond)
}

func TestHub_HandleBalanceEvent(t *testing.T) {
	hub := NewHub(logging.NewNop())
	server := newTestServer(t, hub, 200)

	conn := dial(t, server)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.IsOnline(200) }, time.Second, 10*time.Millisecond)

	hub.HandleBalanceEvent(&pubsub.BalanceEvent{
		Type:       "balance_changed",
		UserID:     200,
		Event:      pubsub.EventRedeem,
		Amount:     "10.00",
		NewBalance: "25.00",
	})
	// 其他用户的事件不会推送到这个连接
	hub.HandleBalanceEvent(&pubsub.BalanceEvent{UserID: 201, Event: pubsub.EventRedeem})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got pubsub.BalanceEvent
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, int64(200), got.UserID)
	assert.Equal(t, "25.00", got.NewBalance)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_HandleBalanceEvent_Ignored(t *testing.T) {
	hub := NewHub(logging.NewNop())

	assert.NotPanics(t, func() {
		hub.HandleBalanceEvent(nil)
		hub.HandleBalanceEvent(&pubsub.BalanceEvent{})
	})
}
