package mail_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailreader/internal/envelope"
	"github.com/teemow/mailreader/internal/server"
	"github.com/teemow/mailreader/internal/tools/common"
)

// failure is the envelope of a tool call that produced nothing.
type failure struct {
	Success         bool     `json:"success"`
	MessageID       string   `json:"message_id,omitempty"`
	Error           string   `json:"error"`
	PossibleReasons []string `json:"possible_reasons,omitempty"`
}

// notFoundReasons are listed when a Message-ID does not resolve.
var notFoundReasons = []string{
	"Message-ID does not exist",
	"Email file has been deleted",
	"Email is in a different Mail database version",
}

func failed(f failure) (*mcp.CallToolResult, error) {
	result, err := common.JSONResult(f)
	if result != nil {
		result.IsError = true
	}
	return result, err
}

// storeFailure reports an error from the store. A missing index gets its
// remediation text verbatim.
func storeFailure(messageID string, err error) (*mcp.CallToolResult, error) {
	msg := err.Error()
	if !errors.Is(err, envelope.ErrIndexNotFound) {
		msg = fmt.Sprintf("Failed to query mail store: %v", err)
	}
	return failed(failure{MessageID: messageID, Error: msg})
}

// requiredString returns the trimmed string argument or an error result.
func requiredString(args map[string]any, name string) (string, *mcp.CallToolResult) {
	v, ok := args[name].(string)
	if !ok || v == "" {
		result, _ := common.ErrorResult("Missing %s parameter", name)
		return "", result
	}
	return v, nil
}

func optionalString(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

func optionalBool(args map[string]any, name string) bool {
	v, _ := args[name].(bool)
	return v
}

// handlerFor adapts a handler that needs the server context to mcp-go.
func handlerFor(sc *server.ServerContext, fn func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error)) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return fn(ctx, request, sc)
	}
}

// RegisterMailTools registers all mail store tools with the MCP server.
// With readOnly, the tools that write to the attachment directory are left out.
func RegisterMailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if sc == nil || sc.Client() == nil {
		return fmt.Errorf("mail tools need a server context with a mail store client")
	}

	RegisterPathTools(s, sc)
	RegisterReadTools(s, sc)
	if !readOnly {
		RegisterAttachmentTools(s, sc)
	}
	return nil
}
