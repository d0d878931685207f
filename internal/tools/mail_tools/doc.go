// Package mail_tools provides the MCP tools that expose the Apple Mail store.
//
// Path tools:
//   - get_email_path: Message-ID to .emlx file
//   - get_email_paths: several Message-IDs at once
//   - get_thread_paths: every file of the conversation, oldest first
//
// Read tools:
//   - read_email: headers, plain-text body and attachment list
//   - read_thread: every message of the conversation, with per-message failures
//
// Attachment tools (not registered in read-only mode):
//   - extract_attachments: write named attachments to a working directory
//   - cleanup_attachments: remove those working directories again
//
// Every result is a JSON document with a "success" field. Failures are error
// results carrying {"success": false, "error": "..."}; handlers never return
// a Go error.
package mail_tools
