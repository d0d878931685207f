// Package message parses RFC 5322 messages as stored by the mail client.
//
// It decodes RFC 2047 header words, walks the MIME tree depth-first and
// separates the plain-text body from attachment parts. Every part that
// carries a disposition of "attachment", or that has a filename and is not
// text/plain or text/html, is treated as an attachment. The first remaining
// text/plain part becomes the body.
//
// Decoding is lenient: unknown charsets and transfer encodings keep their raw
// bytes and invalid UTF-8 is replaced with U+FFFD, so a readable result is
// produced for almost any input.
package message
