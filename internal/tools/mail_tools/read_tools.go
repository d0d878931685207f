package mail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailreader/internal/applemail"
	"github.com/teemow/mailreader/internal/instrumentation"
	"github.com/teemow/mailreader/internal/server"
	"github.com/teemow/mailreader/internal/tools/common"
)

// RegisterReadTools registers the tools that parse messages.
func RegisterReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	readEmailTool := mcp.NewTool("read_email",
		mcp.WithDescription("Parse and read plain text content of an email by RFC Message-ID. "+
			"Returns structured information including subject, sender, recipient, date, body text and attachments, "+
			"enabling AI to analyze email content directly without handling raw .emlx files."),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("RFC Message-ID, e.g. <abc123@example.com>. Can include or exclude angle brackets."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(readEmailTool, common.InstrumentedToolHandler("read_email",
		instrumentation.OperationReadMessage, sc, handlerFor(sc, handleReadEmail)))

	readThreadTool := mcp.NewTool("read_thread",
		mcp.WithDescription("Parse and read all emails in a thread by Message-ID of any email in the thread. "+
			"Returns structured content of all emails in the thread, sorted chronologically. "+
			"Emails that cannot be parsed are reported individually."),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("RFC Message-ID of any email in the thread."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(readThreadTool, common.InstrumentedToolHandler("read_thread",
		instrumentation.OperationReadThread, sc, handlerFor(sc, handleReadThread)))
}

func handleReadEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	messageID, errResult := requiredString(request.GetArguments(), "message_id")
	if errResult != nil {
		return errResult, nil
	}

	msg, err := sc.Client().ReadMessage(ctx, messageID)
	if err != nil {
		return storeFailure(messageID, err)
	}
	if msg == nil {
		return failed(failure{MessageID: messageID, Error: "Email file not found"})
	}

	result, err := common.JSONResult(msg)
	if result != nil && !msg.Success {
		result.IsError = true
	}
	return result, err
}

func handleReadThread(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	messageID, errResult := requiredString(request.GetArguments(), "message_id")
	if errResult != nil {
		return errResult, nil
	}

	thread, err := sc.Client().ReadThread(ctx, messageID)
	if err != nil {
		return storeFailure(messageID, err)
	}
	if thread.Size() == 0 {
		return failed(failure{
			MessageID: messageID,
			Error:     "Email thread not found or thread has no email files",
		})
	}

	return common.JSONResult(struct {
		Success    bool                       `json:"success"`
		MessageID  string                     `json:"message_id"`
		ThreadSize int                        `json:"thread_size"`
		Failed     int                        `json:"failed"`
		Emails     []*applemail.MessageResult `json:"emails"`
	}{
		Success:    true,
		MessageID:  messageID,
		ThreadSize: thread.Size(),
		Failed:     thread.Failed(),
		Emails:     thread.Messages,
	})
}
