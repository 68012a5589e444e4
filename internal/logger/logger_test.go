package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtxWithError_CarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("production", &buf)

	ctx := WithCategory(WithRequestID(context.Background(), "req-1"), "avatars")
	CtxWithError(ctx, "store failed", errors.New("disk full"), "field", "avatar")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "store failed", entry["msg"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "avatars", entry["category"])
	assert.Equal(t, "disk full", entry["error"])
	assert.Equal(t, "avatar", entry["field"])
}

func TestDBLog_SuccessIsDebugOnly(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("production", &buf)

	DBLog("insert", "uploads", 0, nil)
	assert.Zero(t, buf.Len())

	DBLog("insert", "uploads", 0, errors.New("duplicate key"))
	assert.Contains(t, buf.String(), `"table":"uploads"`)
}
