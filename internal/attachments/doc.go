// Package attachments materializes attachment payloads of archived messages
// into per-message working directories and removes those directories again.
//
// Working directories live below a base directory (by default
// $MAIL_ATTACHMENT_PATH/mail-mcp-attachments) and are named after the
// Message-ID without its angle brackets.
//
// The mail client may externalize large attachments, leaving only a stub in
// the archive. When the inline payload is shorter than the configured minimum
// the extractor looks for the file in the client's Attachments directory next
// to the archive before falling back to the stub.
package attachments
