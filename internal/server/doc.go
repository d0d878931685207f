// Package server provides the MCP server context, the HTTP transports and
// the operational endpoints of the mailreader application.
//
// # Key Components
//
// ServerContext carries the applemail.Client shared by all tool handlers,
// together with the optional metrics recorder and audit logger.
//
// HTTPServer exposes an MCP server over streamable HTTP (/mcp) or SSE
// (/sse, /message) next to the health probes:
//   - /healthz: liveness
//   - /readyz: readiness, including presence of the Envelope Index
//   - /healthz/detailed: uptime and store locations
//
// MetricsServer serves the Prometheus scrape endpoint on its own port.
package server
