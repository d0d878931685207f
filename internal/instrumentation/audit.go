package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/mailreader/internal/logging"
)

// ToolInvocation captures one MCP tool call for audit logging.
//
// # Privacy Considerations
//
// MessageIDs and Paths identify a user's mail. LogAttrs emits only their
// anonymized forms; LogAuditAttrs emits the raw values and belongs in
// access-controlled audit streams.
type ToolInvocation struct {
	// ID uniquely identifies this invocation across log lines.
	ID string

	Tool      string
	Operation string

	// Targets of the call, raw.
	MessageIDs []string
	Paths      []string

	// Count is the number of items produced (paths, files, entries).
	Count int

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns anonymized slog attributes suitable for general logs.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := ti.baseAttrs()
	if len(ti.MessageIDs) > 0 {
		anon := make([]string, len(ti.MessageIDs))
		for i, id := range ti.MessageIDs {
			anon[i] = logging.AnonymizeMessageID(id)
		}
		attrs = append(attrs, slog.Any("message_ids", anon))
	}
	if len(ti.Paths) > 0 {
		short := make([]string, len(ti.Paths))
		for i, p := range ti.Paths {
			short[i] = logging.ShortenPath(p)
		}
		attrs = append(attrs, slog.Any("paths", short))
	}
	return ti.tailAttrs(attrs, false)
}

// LogAuditAttrs returns slog attributes carrying raw Message-IDs and paths.
//
// # Security Warning
//
// Route these to audit storage with appropriate access controls.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := ti.baseAttrs()
	if len(ti.MessageIDs) > 0 {
		attrs = append(attrs, slog.Any("message_ids", ti.MessageIDs))
	}
	if len(ti.Paths) > 0 {
		attrs = append(attrs, slog.Any("paths", ti.Paths))
	}
	return ti.tailAttrs(attrs, true)
}

func (ti *ToolInvocation) baseAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("invocation_id", ti.ID),
		slog.String(logging.KeyTool, ti.Tool),
		slog.Duration(logging.KeyDuration, ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.Operation != "" {
		attrs = append(attrs, slog.String(logging.KeyOperation, ti.Operation))
	}
	return attrs
}

func (ti *ToolInvocation) tailAttrs(attrs []slog.Attr, withSpan bool) []slog.Attr {
	if ti.Count > 0 {
		attrs = append(attrs, slog.Int(logging.KeyCount, ti.Count))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if withSpan && ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}
	return attrs
}

// NewToolInvocation starts timing a tool call. Call Complete when it finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		ID:        uuid.NewString(),
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithOperation sets the store operation the tool performs.
func (ti *ToolInvocation) WithOperation(operation string) *ToolInvocation {
	ti.Operation = operation
	return ti
}

// WithMessageIDs records the Message-IDs the call targets.
func (ti *ToolInvocation) WithMessageIDs(ids ...string) *ToolInvocation {
	ti.MessageIDs = append(ti.MessageIDs, ids...)
	return ti
}

// WithPaths records archive paths the call read.
func (ti *ToolInvocation) WithPaths(paths ...string) *ToolInvocation {
	ti.Paths = append(ti.Paths, paths...)
	return ti
}

// WithCount records the number of items produced.
func (ti *ToolInvocation) WithCount(n int) *ToolInvocation {
	ti.Count = n
	return ti
}

// WithSpanContext copies trace and span IDs from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Complete marks the invocation as finished and records its duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// AuditLogger writes tool invocations as structured log records.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that anonymizes identifiers.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs ti as "tool_executed" or "tool_failed".
// Raw identifiers are only included when the logger was configured with IncludePII.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = ti.LogAuditAttrs()
	} else {
		attrs = ti.LogAttrs()
	}

	level := slog.LevelInfo
	msg := "tool_executed"
	if !ti.Success {
		level = slog.LevelWarn
		msg = "tool_failed"
	}
	al.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
