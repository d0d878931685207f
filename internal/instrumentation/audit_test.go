package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attrMap(attrs []slog.Attr) map[string]slog.Value {
	m := make(map[string]slog.Value, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

func TestToolInvocation_NewAndComplete(t *testing.T) {
	ti := NewToolInvocation("read_email")

	assert.Equal(t, "read_email", ti.Tool)
	assert.Len(t, ti.ID, 36)
	assert.False(t, ti.StartTime.IsZero())

	time.Sleep(time.Millisecond)
	ti.CompleteSuccess()

	assert.True(t, ti.Success)
	assert.Positive(t, ti.Duration)
	assert.Empty(t, ti.Error)
	assert.Equal(t, StatusSuccess, ti.Status())
}

func TestToolInvocation_UniqueIDs(t *testing.T) {
	assert.NotEqual(t, NewToolInvocation("a").ID, NewToolInvocation("a").ID)
}

func TestToolInvocation_CompleteWithError(t *testing.T) {
	ti := NewToolInvocation("extract_attachments").CompleteWithError(errors.New("file not found"))

	assert.False(t, ti.Success)
	assert.Equal(t, "file not found", ti.Error)
	assert.Equal(t, StatusError, ti.Status())
}

func TestToolInvocation_LogAttrs_Anonymized(t *testing.T) {
	ti := NewToolInvocation("read_thread").
		WithOperation(OperationReadThread).
		WithMessageIDs("<abc@example.com>").
		WithPaths("/Users/jane/Library/Mail/V10/acct/INBOX.mbox/Messages/1.emlx").
		WithCount(2).
		CompleteSuccess()

	m := attrMap(ti.LogAttrs())

	assert.Equal(t, "read_thread", m["tool"].String())
	assert.Equal(t, "read_thread", m["operation"].String())
	assert.Equal(t, int64(2), m["count"].Int64())

	ids := m["message_ids"].Any().([]string)
	require.Len(t, ids, 1)
	assert.NotContains(t, ids[0], "abc@example.com")
	assert.Contains(t, ids[0], "msg:")

	paths := m["paths"].Any().([]string)
	require.Len(t, paths, 1)
	assert.NotContains(t, paths[0], "jane")

	_, hasSpan := m["span_id"]
	assert.False(t, hasSpan)
}

func TestToolInvocation_LogAuditAttrs_Raw(t *testing.T) {
	ti := NewToolInvocation("get_email_path").
		WithMessageIDs("<abc@example.com>").
		CompleteWithError(errors.New("boom"))
	ti.SpanID = "00f067aa0ba902b7"

	m := attrMap(ti.LogAuditAttrs())

	assert.Equal(t, []string{"<abc@example.com>"}, m["message_ids"].Any())
	assert.Equal(t, "boom", m["error"].String())
	assert.Equal(t, "00f067aa0ba902b7", m["span_id"].String())
}

func TestToolInvocation_MinimalFields(t *testing.T) {
	ti := NewToolInvocation("cleanup_attachments").CompleteSuccess()
	m := attrMap(ti.LogAttrs())

	for _, key := range []string{"operation", "message_ids", "paths", "count", "trace_id", "error"} {
		_, ok := m[key]
		assert.False(t, ok, "unexpected attribute %s", key)
	}
}

func TestToolInvocation_WithSpanContext_NoSpan(t *testing.T) {
	ti := NewToolInvocation("read_email").WithSpanContext(context.Background())
	assert.Empty(t, ti.TraceID)
	assert.Empty(t, ti.SpanID)
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	tests := []struct {
		name       string
		config     AuditLoggingConfig
		success    bool
		wantMsg    string
		wantLevel  string
		wantRawIDs bool
		wantEmpty  bool
	}{
		{name: "success anonymized", config: AuditLoggingConfig{Enabled: true}, success: true, wantMsg: "tool_executed", wantLevel: "INFO"},
		{name: "failure anonymized", config: AuditLoggingConfig{Enabled: true}, success: false, wantMsg: "tool_failed", wantLevel: "WARN"},
		{name: "include pii", config: AuditLoggingConfig{Enabled: true, IncludePII: true}, success: true, wantMsg: "tool_executed", wantLevel: "INFO", wantRawIDs: true},
		{name: "disabled", config: AuditLoggingConfig{Enabled: false}, success: true, wantEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			al := NewAuditLoggerWithConfig(logger, tt.config)

			ti := NewToolInvocation("read_email").WithMessageIDs("<abc@example.com>")
			if tt.success {
				ti.CompleteSuccess()
			} else {
				ti.CompleteWithError(errors.New("not found"))
			}
			al.LogToolInvocation(ti)

			if tt.wantEmpty {
				assert.Empty(t, buf.String())
				return
			}

			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, tt.wantMsg, record["msg"])
			assert.Equal(t, tt.wantLevel, record["level"])
			assert.Equal(t, tt.wantRawIDs, bytes.Contains(buf.Bytes(), []byte("abc@example.com")))
		})
	}
}

func TestAuditLogger_Nil(t *testing.T) {
	var al *AuditLogger
	assert.NotPanics(t, func() {
		al.LogToolInvocation(NewToolInvocation("x").CompleteSuccess())
	})
}
