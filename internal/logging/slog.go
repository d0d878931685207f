package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyComponent = "component"
	KeyMessageID = "message_id"
	KeyPath      = "path"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
	KeyCount     = "count"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNotFound = "not_found"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithComponent returns a logger with the component attribute set.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String(KeyComponent, component))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Component returns a slog attribute for the component name.
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Count returns a slog attribute for a result count.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeMessageID returns a hashed representation of a Message-ID.
// Message-IDs usually embed the sender's host and sometimes a mailbox name,
// so they are hashed before they reach the logs.
func AnonymizeMessageID(id string) string {
	if id == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(id))
	return "msg:" + hex.EncodeToString(hash[:8])
}

// MessageID returns a slog attribute with the anonymized Message-ID.
//
// Usage:
//
//	logger.Info("resolved archive", logging.MessageID(id))
func MessageID(id string) slog.Attr {
	return slog.String(KeyMessageID, AnonymizeMessageID(id))
}

// Path returns a slog attribute for a filesystem path. Only the last two
// elements are kept so home directories and account ids stay out of the logs.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, ShortenPath(p))
}

// ShortenPath reduces a path to its parent directory name and base name.
func ShortenPath(p string) string {
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	dir, base := filepath.Split(p)
	parent := filepath.Base(strings.TrimSuffix(dir, string(filepath.Separator)))
	if parent == "." || parent == string(filepath.Separator) || parent == "" {
		return base
	}
	return filepath.Join("…", parent, base)
}

// SanitizeFilename returns a length indicator for an attachment filename.
// Attachment names can carry personal data, so only their extension survives.
func SanitizeFilename(name string) string {
	if name == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[file:%d chars%s]", len(name), filepath.Ext(name))
}
