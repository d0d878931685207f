package mail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailreader/internal/envelope"
	"github.com/teemow/mailreader/internal/instrumentation"
	"github.com/teemow/mailreader/internal/server"
	"github.com/teemow/mailreader/internal/tools/batch"
	"github.com/teemow/mailreader/internal/tools/common"
)

// RegisterPathTools registers the tools that map Message-IDs to archive files.
func RegisterPathTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	getEmailPathTool := mcp.NewTool("get_email_path",
		mcp.WithDescription("Get the absolute path to an email file by RFC Message-ID. "+
			"Message-ID is the unique identifier for an email, formatted like <abc123@example.com>. "+
			"Returns the full path to the email file in the filesystem, which can be used to read email content."),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("RFC Message-ID, e.g. <abc123@example.com>. Can include or exclude angle brackets."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(getEmailPathTool, common.InstrumentedToolHandler("get_email_path",
		instrumentation.OperationResolvePath, sc, handlerFor(sc, handleGetEmailPath)))

	getEmailPathsTool := mcp.NewTool("get_email_paths",
		mcp.WithDescription("Get the email file paths of several RFC Message-IDs at once. "+
			"Each Message-ID is reported as success, not_found or error."),
		mcp.WithString("message_ids",
			mcp.Required(),
			mcp.Description("Message-ID (string) or array of Message-IDs"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(getEmailPathsTool, common.InstrumentedToolHandler("get_email_paths",
		instrumentation.OperationResolvePath, sc, handlerFor(sc, handleGetEmailPaths)))

	getThreadPathsTool := mcp.NewTool("get_thread_paths",
		mcp.WithDescription("Get file paths of all emails in a thread by Message-ID of any email in the thread. "+
			"An email thread is a group of related emails (such as the original email and all replies). "+
			"Returns a list of paths to all email files in the thread, sorted chronologically, "+
			"useful for analyzing complete email conversations."),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("RFC Message-ID of any email in the thread."),
		),
		mcp.WithBoolean("include_missing",
			mcp.Description("Also list thread members without an email file (default: false)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(getThreadPathsTool, common.InstrumentedToolHandler("get_thread_paths",
		instrumentation.OperationThread, sc, handlerFor(sc, handleGetThreadPaths)))
}

func handleGetEmailPath(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	messageID, errResult := requiredString(request.GetArguments(), "message_id")
	if errResult != nil {
		return errResult, nil
	}

	path, err := sc.Client().ResolvePath(ctx, messageID)
	if err != nil {
		return storeFailure(messageID, err)
	}
	if path == "" {
		return failed(failure{
			MessageID:       messageID,
			Error:           "Email file not found",
			PossibleReasons: notFoundReasons,
		})
	}

	return common.JSONResult(struct {
		Success   bool   `json:"success"`
		MessageID string `json:"message_id"`
		FilePath  string `json:"file_path"`
	}{true, messageID, path})
}

func handleGetEmailPaths(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	ids, err := batch.ParseStringOrArray(request.GetArguments()["message_ids"], "message_ids")
	if err != nil {
		return common.ErrorResult("%v", err)
	}

	results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id string) (any, error) {
		path, err := sc.Client().ResolvePath(ctx, id)
		if err != nil || path == "" {
			return nil, err
		}
		return path, nil
	})
	return common.JSONResult(batch.Summarize(results))
}

func handleGetThreadPaths(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	messageID, errResult := requiredString(args, "message_id")
	if errResult != nil {
		return errResult, nil
	}
	includeMissing := optionalBool(args, "include_missing")

	entries, err := sc.Client().ResolveThreadPaths(ctx, messageID, includeMissing)
	if err != nil {
		return storeFailure(messageID, err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Found() {
			paths = append(paths, e.Path)
		}
	}
	if len(paths) == 0 {
		return failed(failure{
			MessageID: messageID,
			Error:     "Email thread not found or thread has no email files",
		})
	}

	out := struct {
		Success    bool                   `json:"success"`
		MessageID  string                 `json:"message_id"`
		ThreadSize int                    `json:"thread_size"`
		FilePaths  []string               `json:"file_paths"`
		Entries    []envelope.ThreadEntry `json:"entries,omitempty"`
	}{
		Success:    true,
		MessageID:  messageID,
		ThreadSize: len(paths),
		FilePaths:  paths,
	}
	if includeMissing {
		out.ThreadSize = len(entries)
		out.Entries = entries
	}
	return common.JSONResult(out)
}
