package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/spanel_go_server/config"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(config.LogConfig{Level: "info", Format: "json"}, &buf)

	log.With("component", "billing").Info(context.Background(), "purchase done", "user_id", 7)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "purchase done", entry["msg"])
	assert.Equal(t, "billing", entry["component"])
	assert.Equal(t, float64(7), entry["user_id"])
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(config.LogConfig{Level: "warn"}, &buf)

	log.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	log.Error(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewNop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().With("k", "v").Debug(context.Background(), "nothing")
	})
}
