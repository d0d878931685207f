// Package cmd implements the command-line interface for mailreader.
//
// This package provides the following commands:
//   - serve: Start the MCP server (stdio, sse or streamable-http)
//   - path: Print the .emlx file of a Message-ID
//   - thread: Print the .emlx files of a conversation
//   - read: Print a parsed message as JSON
//   - read-thread: Print a parsed conversation as JSON
//   - extract: Extract named attachments into the working directory
//   - cleanup: Remove extracted attachments
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Store locations come from ~/.config/mailreader/config.yaml, MAIL_*
// environment variables and the persistent flags, in increasing precedence.
package cmd
