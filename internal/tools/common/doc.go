// Package common provides shared helpers for the MCP tool implementations:
// argument extraction, JSON result envelopes and the instrumentation wrapper
// every tool handler is registered through.
package common
