// Package envelope resolves messages to archive files through the mail
// client's "Envelope Index" SQLite database and assembles conversations.
//
// The index is only ever opened read-only, with one short-lived connection
// per query. A Message-ID is looked up to obtain the message row id and the
// URL of its mailbox. The mailbox URL maps to a directory below the store
// root, which is then searched for a file named <rowid>*.emlx.
//
// # Not found vs. errors
//
// Unknown messages, unsupported mailbox URLs, missing directories and
// searches that run out of time are reported as "not found" (an empty path or
// an empty slice) rather than as errors. A missing index file is reported as
// ErrIndexNotFound before any query runs.
package envelope
