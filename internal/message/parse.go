package message

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	gomessage "github.com/emersion/go-message"
	"github.com/emersion/go-message/textproto"
)

// Media types that never count as attachments on their own.
const (
	TypeTextPlain     = "text/plain"
	TypeTextHTML      = "text/html"
	TypeMessageRFC822 = "message/rfc822"
)

// maxDepth bounds multipart and encapsulated message nesting. Entities
// below it are reported as leaves.
const maxDepth = 32

// Attachment describes one attachment part of a message.
type Attachment struct {
	Filename  string `json:"filename"`
	MIMEType  string `json:"mime_type"`
	SizeBytes int    `json:"size_bytes"`
}

// Parsed is the structured view of one message.
type Parsed struct {
	MessageID  string            `json:"message_id"`
	Subject    string            `json:"subject"`
	From       string            `json:"from"`
	To         string            `json:"to"`
	Cc         string            `json:"cc"`
	Date       string            `json:"date"`
	References string            `json:"references"`
	InReplyTo  string            `json:"in_reply_to"`
	Headers    map[string]string `json:"headers,omitempty"`
	BodyText   string            `json:"body_text"`

	Attachments []Attachment `json:"attachments"`

	// Truncated is set when a multipart body ended before its closing
	// boundary. Parts read up to that point are kept.
	Truncated bool `json:"truncated,omitempty"`
}

// Part is a leaf of the MIME tree as seen by Walk.
type Part struct {
	// Index is the position of the part in depth-first order, counting
	// leaves only.
	Index      int
	MIMEType   string
	Filename   string
	Attachment bool
	// Payload is the transfer-decoded body. For text parts with a known
	// charset it is already UTF-8.
	Payload []byte
	// DecodeErr is set when the payload could not be fully decoded.
	DecodeErr error
	// Nested marks a message/rfc822 part. Payload holds the encapsulated
	// message and its own parts follow this one in the walk.
	Nested bool
}

// WalkFunc is called for every leaf part. Returning an error stops the walk.
type WalkFunc func(p *Part) error

// Parse turns the message bytes of an archive into a Parsed record.
func Parse(raw []byte) (*Parsed, error) {
	root, rest, err := readRoot(raw)
	if err != nil {
		return nil, err
	}

	h := root.Header
	parsed := &Parsed{
		MessageID:   DecodeHeader(h.Get("Message-Id")),
		Subject:     DecodeHeader(h.Get("Subject")),
		From:        DecodeHeader(h.Get("From")),
		To:          DecodeHeader(h.Get("To")),
		Cc:          DecodeHeader(h.Get("Cc")),
		Date:        DecodeHeader(h.Get("Date")),
		References:  DecodeHeader(h.Get("References")),
		InReplyTo:   DecodeHeader(h.Get("In-Reply-To")),
		Headers:     headerMap(h),
		Attachments: []Attachment{},
	}

	if !isMultipart(root) {
		mediaType, _ := contentType(h)
		if mediaType == TypeTextPlain {
			payload, _ := io.ReadAll(root.Body)
			parsed.BodyText = strings.TrimSpace(ToValidUTF8(string(payload)))
		} else {
			parsed.BodyText = strings.TrimSpace(ToValidUTF8(string(rest)))
		}
		return parsed, nil
	}

	bodyFound := false
	parsed.Truncated, err = walkEntity(root, func(p *Part) error {
		if p.Attachment {
			if p.Filename != "" {
				size := len(p.Payload)
				if p.Nested || (p.DecodeErr != nil && !isLenientDecodeErr(p.DecodeErr)) {
					size = 0
				}
				parsed.Attachments = append(parsed.Attachments, Attachment{
					Filename:  p.Filename,
					MIMEType:  p.MIMEType,
					SizeBytes: size,
				})
			}
			return nil
		}
		if bodyFound || p.MIMEType != TypeTextPlain || len(p.Payload) == 0 {
			return nil
		}
		parsed.BodyText = strings.TrimSpace(ToValidUTF8(string(p.Payload)))
		bodyFound = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

// Walk visits every leaf part of the message in depth-first order,
// descending into encapsulated messages. A multipart body that ends before
// its closing boundary stops the walk without an error.
func Walk(raw []byte, fn WalkFunc) error {
	root, _, err := readRoot(raw)
	if err != nil {
		return err
	}
	_, err = walkEntity(root, fn)
	return err
}

func readRoot(raw []byte) (*gomessage.Entity, []byte, error) {
	br := bufio.NewReader(bytes.NewReader(raw))
	h, err := textproto.ReadHeader(br)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("reading message header: %w", err)
	}
	rest, err := io.ReadAll(br)
	if err != nil {
		return nil, nil, fmt.Errorf("reading message body: %w", err)
	}
	root, err := gomessage.New(gomessage.Header{Header: h}, bytes.NewReader(rest))
	if err != nil && !isLenientDecodeErr(err) {
		return nil, nil, fmt.Errorf("decoding message: %w", err)
	}
	return root, rest, nil
}

type walker struct {
	fn        WalkFunc
	index     int
	truncated bool
}

func walkEntity(root *gomessage.Entity, fn WalkFunc) (truncated bool, err error) {
	w := &walker{fn: fn}
	if err := w.entity(root, nil, 0); err != nil {
		return false, fmt.Errorf("walking MIME tree: %w", err)
	}
	return w.truncated, nil
}

func (w *walker) entity(e *gomessage.Entity, decodeErr error, depth int) error {
	if depth < maxDepth && isMultipart(e) {
		return w.multipart(e.MultipartReader(), depth)
	}

	mediaType, params := contentType(e.Header)
	filename := partFilename(e.Header, params)
	disposition := strings.ToLower(e.Header.Get("Content-Disposition"))

	p := &Part{
		Index:    w.index,
		MIMEType: mediaType,
		Filename: filename,
		Attachment: strings.Contains(disposition, "attachment") ||
			(filename != "" && mediaType != TypeTextPlain && mediaType != TypeTextHTML),
		DecodeErr: decodeErr,
		Nested:    mediaType == TypeMessageRFC822 && depth < maxDepth,
	}
	w.index++

	payload, err := io.ReadAll(e.Body)
	p.Payload = payload
	if err != nil {
		p.DecodeErr = err
	}
	if err := w.fn(p); err != nil {
		return err
	}
	if !p.Nested {
		return nil
	}

	inner, _, err := readRoot(payload)
	if err != nil {
		// An unreadable encapsulated message stays a leaf.
		return nil
	}
	return w.entity(inner, nil, depth+1)
}

func (w *walker) multipart(mr gomessage.MultipartReader, depth int) error {
	for {
		part, err := mr.NextPart()
		switch {
		case err == io.EOF:
			return nil
		case isTruncated(err):
			w.truncated = true
			return nil
		case err != nil && (part == nil || !isLenientDecodeErr(err)):
			return err
		}
		if walkErr := w.entity(part, err, depth+1); walkErr != nil {
			return walkErr
		}
	}
}

// isMultipart reports whether e can be split into parts. A multipart type
// without a boundary is read as a single part.
func isMultipart(e *gomessage.Entity) bool {
	if e.MultipartReader() == nil {
		return false
	}
	_, params, err := e.Header.ContentType()
	return err == nil && params["boundary"] != ""
}

// multipartEOF is the error text of a multipart reader whose input ended
// before the closing boundary.
var multipartEOF = "multipart: NextPart: " + io.EOF.Error()

// isTruncated reports whether a multipart body simply ended without its
// closing boundary.
func isTruncated(err error) bool {
	return err != nil && (errors.Is(err, io.ErrUnexpectedEOF) || err.Error() == multipartEOF)
}

// contentType returns the lower-cased media type, falling back to the text
// before the first ';' when the header does not parse.
func contentType(h gomessage.Header) (string, map[string]string) {
	mediaType, params, err := h.ContentType()
	if err != nil {
		mediaType, _, _ = strings.Cut(h.Get("Content-Type"), ";")
		params = map[string]string{}
		if name := lenientParam(h.Get("Content-Type"), "name"); name != "" {
			params["name"] = name
		}
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if !strings.Contains(mediaType, "/") {
		mediaType = TypeTextPlain
	}
	return mediaType, params
}

// partFilename prefers the Content-Disposition filename over the Content-Type
// name parameter.
func partFilename(h gomessage.Header, ctParams map[string]string) string {
	var name string
	if _, params, err := h.ContentDisposition(); err == nil {
		name = params["filename"]
	} else {
		name = lenientParam(h.Get("Content-Disposition"), "filename")
	}
	if name == "" {
		name = ctParams["name"]
	}
	return DecodeHeader(name)
}

// lenientParam extracts key=value from a header that mime.ParseMediaType
// rejected, e.g. an unquoted filename containing spaces.
func lenientParam(value, key string) string {
	for _, segment := range strings.Split(value, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(segment), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), key) {
			continue
		}
		return strings.Trim(strings.TrimSpace(v), `"`)
	}
	return ""
}

func headerMap(h gomessage.Header) map[string]string {
	m := make(map[string]string, h.Len())
	fields := h.Fields()
	for fields.Next() {
		if _, ok := m[fields.Key()]; ok {
			continue
		}
		m[fields.Key()] = DecodeHeader(fields.Value())
	}
	return m
}

func isLenientDecodeErr(err error) bool {
	return gomessage.IsUnknownCharset(err) || gomessage.IsUnknownEncoding(err)
}
