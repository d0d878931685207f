package common

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestJSONResult(t *testing.T) {
	result, err := JSONResult(map[string]any{"success": true, "count": 2})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"success": true, "count": 2}`, resultText(t, result))
}

func TestJSONResult_Unmarshalable(t *testing.T) {
	result, err := JSONResult(map[string]any{"ch": make(chan int)})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Failed to format output")
}

func TestErrorResult(t *testing.T) {
	result, err := ErrorResult("message_id is required")
	require.NoError(t, err)
	assert.True(t, result.IsError)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "message_id is required", body["error"])
}
