// Package resources provides MCP resources describing the mail store the
// server reads from. Resources are read-only data sources that MCP clients
// can fetch without invoking a tool:
//
//   - mail://store/config: the resolved store root, index path, accepted
//     mailbox URL schemes and attachment working directory
//   - mail://store/status: whether the Envelope Index is readable and the
//     working directories extract_attachments has left behind
package resources
