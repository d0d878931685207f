package common

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// JSONResult renders v as an indented JSON text result.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format output: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// ErrorResult is the {"success": false, "error": ...} envelope every mail
// tool returns on failure, flagged as an error result.
func ErrorResult(format string, a ...any) (*mcp.CallToolResult, error) {
	msg := fmt.Sprintf(format, a...)
	jsonBytes, err := json.MarshalIndent(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{Error: msg}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(msg), nil
	}
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result, nil
}
