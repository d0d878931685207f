// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the mailreader MCP server.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Mail Store Metrics:
//   - mail_store_operations_total: Counter by component, operation and status
//   - mail_store_operation_duration_seconds: Histogram of store operation durations
//   - mail_attachments_extracted_total: Counter of attachments written, by source
//   - mail_attachment_bytes_total: Counter of attachment bytes written, by source
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// Message-IDs, file names and paths are never used as labels.
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and mail store
// operations (mail.<component>.<operation>).
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: mailreader)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII: audit log behavior
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordStoreOperation(ctx, instrumentation.ComponentIndex,
//		instrumentation.OperationResolvePath, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
