// Package batch provides helpers for tools that act on several Message-IDs
// or filenames in one call.
//
// This package includes helpers for:
//   - Parsing parameters that accept a single value, an array, or a JSON array string
//   - Running an operation per item while collecting partial failures
//   - Summarizing per-item outcomes into one result envelope
package batch
