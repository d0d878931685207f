package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// Message-IDs, file names and paths are unbounded and never become labels;
// these helpers reduce what does reach a label to a small fixed set.

// MIMEClass reduces a MIME type to its top-level type.
//
// Example:
//
//	MIMEClass("application/pdf")            // "application"
//	MIMEClass("Image/PNG; name=\"a.png\"") // "image"
//	MIMEClass("garbage")                    // "unknown"
//	MIMEClass("")                           // "unknown"
func MIMEClass(mimeType string) string {
	major, _, ok := strings.Cut(strings.TrimSpace(mimeType), "/")
	if !ok || major == "" {
		return StatusUnknown
	}
	major = strings.ToLower(major)
	switch major {
	case "application", "audio", "font", "image", "message", "model", "multipart", "text", "video":
		return major
	}
	return StatusUnknown
}

// Operation names recorded on mail_store_operations_total.
// Status and component constants are defined in config.go and metrics.go.
const (
	OperationResolvePath = "resolve_path"
	OperationThread      = "thread"
	OperationReadMessage = "read_message"
	OperationReadThread  = "read_thread"
	OperationExtract     = "extract"
	OperationCleanup     = "cleanup"
)
