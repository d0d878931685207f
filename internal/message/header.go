package message

import (
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message/charset"
)

var wordDecoder = mime.WordDecoder{CharsetReader: lenientCharsetReader}

// lenientCharsetReader converts from the declared charset when it is known and
// passes the bytes through otherwise. The caller repairs invalid UTF-8 afterwards.
func lenientCharsetReader(label string, input io.Reader) (io.Reader, error) {
	r, err := charset.Reader(label, input)
	if err != nil || r == nil {
		return input, nil
	}
	return r, nil
}

// DecodeHeader turns a raw header value that may contain RFC 2047 encoded
// words into display text. Segments in unknown charsets keep their bytes, and
// any byte that is not valid UTF-8 becomes U+FFFD. It never fails.
func DecodeHeader(value string) string {
	if value == "" {
		return ""
	}
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		decoded = value
	}
	return ToValidUTF8(decoded)
}

// ToValidUTF8 replaces every byte that does not start a valid UTF-8 sequence
// with U+FFFD.
func ToValidUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}
