package mail_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailreader/internal/attachments"
	"github.com/teemow/mailreader/internal/instrumentation"
	"github.com/teemow/mailreader/internal/server"
	"github.com/teemow/mailreader/internal/tools/batch"
	"github.com/teemow/mailreader/internal/tools/common"
)

// RegisterAttachmentTools registers the tools that write to and clean the
// attachment working directory.
func RegisterAttachmentTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	extractTool := mcp.NewTool("extract_attachments",
		mcp.WithDescription("Extract named attachments of an email file into a per-message working directory. "+
			"Use read_email first to learn the attachment filenames and get_email_path for the file path. "+
			"Attachments that Mail stored outside the email file are picked up from the mailbox Attachments folder."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Absolute path to the .emlx file"),
		),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("RFC Message-ID of the email, used to name the working directory"),
		),
		mcp.WithString("filenames",
			mcp.Required(),
			mcp.Description("Attachment filename (string) or array of filenames to extract"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Base directory override (default: MAIL_ATTACHMENT_PATH/mail-mcp-attachments)"),
		),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(extractTool, common.InstrumentedToolHandler("extract_attachments",
		instrumentation.OperationExtract, sc, handlerFor(sc, handleExtractAttachments)))

	cleanupTool := mcp.NewTool("cleanup_attachments",
		mcp.WithDescription("Remove the working directories created by extract_attachments for one or more emails."),
		mcp.WithString("message_ids",
			mcp.Required(),
			mcp.Description("Message-ID (string) or array of Message-IDs whose extracted attachments should be removed"),
		),
		mcp.WithString("base_dir",
			mcp.Description("Base directory override (default: MAIL_ATTACHMENT_PATH/mail-mcp-attachments)"),
		),
		mcp.WithDestructiveHintAnnotation(true),
	)
	s.AddTool(cleanupTool, common.InstrumentedToolHandler("cleanup_attachments",
		instrumentation.OperationCleanup, sc, handlerFor(sc, handleCleanupAttachments)))
}

func handleExtractAttachments(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	filePath, errResult := requiredString(args, "file_path")
	if errResult != nil {
		return errResult, nil
	}
	messageID, errResult := requiredString(args, "message_id")
	if errResult != nil {
		return errResult, nil
	}
	filenames, err := batch.ParseStringOrArray(args["filenames"], "filenames")
	if err != nil {
		return common.ErrorResult("%v", err)
	}

	result, err := sc.Client().ExtractAttachments(ctx, filePath, messageID, filenames, optionalString(args, "output_dir"))
	switch {
	case errors.Is(err, attachments.ErrArchiveNotFound):
		return failed(failure{MessageID: messageID, Error: fmt.Sprintf("File not found: %s", filePath)})
	case err != nil:
		return failed(failure{MessageID: messageID, Error: fmt.Sprintf("Extraction failed: %v", err)})
	}

	var total int64
	for _, x := range result.Extracted {
		total += int64(x.SizeBytes)
	}

	return common.JSONResult(struct {
		Success bool `json:"success"`
		*attachments.Extraction
		TotalSize string `json:"total_size"`
	}{true, result, humanize.Bytes(uint64(total))})
}

func handleCleanupAttachments(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ids, err := batch.ParseStringOrArray(args["message_ids"], "message_ids")
	if err != nil {
		return common.ErrorResult("%v", err)
	}

	result, err := sc.Client().CleanupAttachments(ctx, ids, optionalString(args, "base_dir"))
	if err != nil {
		return failed(failure{Error: fmt.Sprintf("Cleanup failed: %v", err)})
	}

	return common.JSONResult(struct {
		Success bool `json:"success"`
		*attachments.CleanupResult
		SpaceFreed string `json:"space_freed"`
	}{true, result, humanize.Bytes(uint64(result.TotalBytes()))})
}
