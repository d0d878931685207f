package emlx

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Markers that open the property-list trailer. The first line containing any
// of them ends the message bytes.
var trailerMarkers = [][]byte{
	[]byte("<?xml version"),
	[]byte("<!DOCTYPE plist"),
	[]byte("<plist version"),
}

// FormatError reports a file that is too short to hold a message.
type FormatError struct {
	Path  string
	Lines int
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid emlx format: %d line(s), need at least 2", e.Lines)
	}
	return fmt.Sprintf("invalid emlx format in %s: %d line(s), need at least 2", e.Path, e.Lines)
}

// Archive is one framed .emlx file.
type Archive struct {
	// Message holds the RFC 5322 bytes, line terminators untouched.
	Message []byte
	// Trailer holds the raw property list, if any.
	Trailer []byte
	// Metadata is decoded from the trailer on a best-effort basis and is
	// nil when the trailer is missing or unreadable.
	Metadata *Metadata
}

// Parse frames the contents of an .emlx file. The first line (a byte count
// written by the client) is ignored; lines are collected until a trailer
// marker appears.
func Parse(data []byte) (*Archive, error) {
	lines := splitLines(data)
	if len(lines) < 2 {
		return nil, &FormatError{Lines: len(lines)}
	}

	a := &Archive{}
	end := len(data)
	offset := len(lines[0])
	for _, line := range lines[1:] {
		if isTrailerStart(line) {
			end = offset
			break
		}
		offset += len(line)
	}
	start := len(lines[0])
	a.Message = data[start:end]
	if end < len(data) {
		a.Trailer = data[end:]
		a.Metadata = parseMetadata(a.Trailer)
	}
	return a, nil
}

// Read frames an .emlx file from r.
func Read(r io.Reader) (*Archive, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading emlx: %w", err)
	}
	return Parse(data)
}

// ReadFile frames the .emlx file at path on fs.
func ReadFile(fs afero.Fs, path string) (*Archive, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading emlx %s: %w", path, err)
	}
	a, err := Parse(data)
	if err != nil {
		if fe, ok := err.(*FormatError); ok {
			fe.Path = path
		}
		return nil, err
	}
	return a, nil
}

func isTrailerStart(line []byte) bool {
	for _, m := range trailerMarkers {
		if bytes.Contains(line, m) {
			return true
		}
	}
	return false
}

// splitLines splits data after each '\n', keeping the terminators. A final
// line without a terminator is still a line.
func splitLines(data []byte) [][]byte {
	var lines [][]byte
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			lines = append(lines, data)
			break
		}
		lines = append(lines, data[:i+1])
		data = data[i+1:]
	}
	return lines
}
