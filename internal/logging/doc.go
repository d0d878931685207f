// Package logging provides structured logging utilities for the mailreader application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (Message-ID hashing, shortened paths)
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for the store packages
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "envelope.resolve_path")
//	logger.Info("archive resolved",
//	    logging.MessageID(id),
//	    logging.Path(path))
//
// # Security Considerations
//
// Message-IDs are hashed before they are logged so entries can be correlated
// without exposing correspondents. Filesystem paths are shortened to their
// last two elements.
package logging
