package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/spanel_go_server/internal/model"
	"github.com/qs3c/spanel_go_server/internal/model/dto"
	"github.com/qs3c/spanel_go_server/internal/testutil"
)

func performNodeRequest(router *gin.Engine, key string, body interface{}) int {
	req := newJSONRequest(http.MethodPost, "/node/heartbeat", body)
	if key != "" {
		req.Header.Set(HeaderNodeKey, key)
	}
	return serve(router, req).Code
}

func setupNodeRouter(env *testEnv) *gin.Engine {
	h := NewNodeHandler(env.nodes)
	router := gin.New()
	router.POST("/node/heartbeat", h.Heartbeat)
	return router
}

func TestNodeHandler_Heartbeat(t *testing.T) {
	env := newTestEnv(t)
	node := testutil.TestNode(t, env.db, testutil.WithOffline())
	router := setupNodeRouter(env)

	req := dto.HeartbeatRequest{NodeID: node.ID, Load: "0.10 0.20 0.30", OnlineUsers: 12}

	assert.Equal(t, http.StatusUnauthorized, performNodeRequest(router, "", req))
	assert.Equal(t, http.StatusUnauthorized, performNodeRequest(router, "wrong-key", req))
	assert.Equal(t, http.StatusNotFound, performNodeRequest(router, "node-key",
		dto.HeartbeatRequest{NodeID: 99999}))
	assert.Equal(t, http.StatusBadRequest, performNodeRequest(router, "node-key", map[string]string{}))

	require.Equal(t, http.StatusOK, performNodeRequest(router, "node-key", req))

	var saved model.Node
	require.NoError(t, env.db.First(&saved, node.ID).Error)
	assert.True(t, saved.Online)
	assert.Equal(t, 12, saved.OnlineUsers)
	assert.Equal(t, "0.10 0.20 0.30", saved.Load)
	assert.NotNil(t, saved.HeartbeatAt)
}
