// Package emlx reads the per-message archive files of the mail store.
//
// An .emlx file starts with a line holding a byte count, followed by the raw
// RFC 5322 message and, optionally, an XML property list with client
// metadata. The byte count is not trusted: the message ends at the first line
// that opens the property list.
package emlx
