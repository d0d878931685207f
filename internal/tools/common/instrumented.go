package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/mailreader/internal/instrumentation"
	"github.com/teemow/mailreader/internal/logging"
	"github.com/teemow/mailreader/internal/server"
)

// errResultFlagged marks spans of calls that returned an error result.
var errResultFlagged = errors.New("tool returned an error result")

// ToolHandler is the signature of an mcp-go tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, metrics and audit
// logging. The Message-IDs and paths named in the arguments are attached to
// the audit record; the span only carries the first Message-ID, anonymized.
//
// Usage:
//
//	s.AddTool(tool, common.InstrumentedToolHandler("read_email", instrumentation.OperationReadMessage, sc, handler))
func InstrumentedToolHandler(toolName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		ids := MessageIDsFromArgs(args)

		attrs := instrumentation.NewSpanAttributeBuilder().
			WithOperation(operation).
			WithReadOnly(operation != instrumentation.OperationExtract && operation != instrumentation.OperationCleanup)
		if len(ids) > 0 {
			attrs.WithMessageID(logging.AnonymizeMessageID(ids[0]))
		}
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs.Build()...)
		defer span.End()

		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithOperation(operation).
			WithMessageIDs(ids...).
			WithPaths(PathsFromArgs(args)...).
			WithSpanContext(ctx)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanStatus(span, status, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
			instrumentation.SetSpanStatus(span, status, errResultFlagged)
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanStatus(span, status, nil)
		}

		metrics.RecordToolInvocation(ctx, toolName, status, duration)
		auditLogger.LogToolInvocation(invocation)

		return result, err
	}
}
