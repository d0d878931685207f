package emlx

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trailer = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>date-received</key>
	<integer>750000000</integer>
	<key>date-sent</key>
	<real>749999999.5</real>
	<key>flags</key>
	<integer>8590195713</integer>
	<key>original-mailbox</key>
	<string>imap://ABCD/INBOX</string>
	<key>remote-id</key>
	<string>4711</string>
</dict>
</plist>
`

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantMessage string
		wantTrailer bool
	}{
		{
			name:        "message with trailer",
			data:        "42\nSubject: hi\n\nbody\n" + trailer,
			wantMessage: "Subject: hi\n\nbody\n",
			wantTrailer: true,
		},
		{
			name:        "message without trailer",
			data:        "42\nSubject: hi\n\nbody",
			wantMessage: "Subject: hi\n\nbody",
		},
		{
			name:        "crlf line endings are kept",
			data:        "42\r\nSubject: hi\r\n\r\nbody\r\n<plist version=\"1.0\"><dict></dict></plist>",
			wantMessage: "Subject: hi\r\n\r\nbody\r\n",
			wantTrailer: true,
		},
		{
			name:        "byte count is ignored",
			data:        "9999\nSubject: hi\n",
			wantMessage: "Subject: hi\n",
		},
		{
			name:        "doctype marker ends the message",
			data:        "1\nA: b\n\nx\n<!DOCTYPE plist>\n",
			wantMessage: "A: b\n\nx\n",
			wantTrailer: true,
		},
		{
			name:        "trailer right after the count line",
			data:        "0\n" + trailer,
			wantMessage: "",
			wantTrailer: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Parse([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.wantMessage, string(a.Message))
			assert.Equal(t, tt.wantTrailer, len(a.Trailer) > 0)
		})
	}
}

func TestParse_FormatError(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantLines int
	}{
		{"empty file", "", 0},
		{"count line only", "123\n", 1},
		{"count without newline", "123", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantLines, fe.Lines)
		})
	}
}

func TestParse_Metadata(t *testing.T) {
	a, err := Parse([]byte("42\nSubject: hi\n\nbody\n" + trailer))
	require.NoError(t, err)
	require.NotNil(t, a.Metadata)

	md := a.Metadata
	assert.Equal(t, int64(8590195713), md.Flags)
	assert.True(t, md.Has(FlagRead))
	assert.False(t, md.Has(FlagFlagged))
	assert.Equal(t, "imap://ABCD/INBOX", md.OriginalMailbox)
	assert.Equal(t, "4711", md.RemoteID)
	assert.Equal(t, time.Date(2024, 10, 7, 13, 20, 0, 0, time.UTC), md.DateReceived)
	assert.Equal(t, time.Date(2024, 10, 7, 13, 19, 59, 500000000, time.UTC), md.DateSent)
}

func TestParse_UnreadableTrailer(t *testing.T) {
	a, err := Parse([]byte("1\nA: b\n\nx\n<?xml version garbage"))
	require.NoError(t, err)
	assert.Equal(t, "A: b\n\nx\n", string(a.Message))
	assert.Nil(t, a.Metadata)
}

func TestMetadata_HasOnNil(t *testing.T) {
	var md *Metadata
	assert.False(t, md.Has(FlagRead))
}

func TestRead(t *testing.T) {
	a, err := Read(strings.NewReader("5\nA: b\n\nc"))
	require.NoError(t, err)
	assert.Equal(t, "A: b\n\nc", string(a.Message))
}

func TestReadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/store/1.emlx", []byte("5\nA: b\n\nc"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/store/2.emlx", []byte("5\n"), 0o644))

	a, err := ReadFile(fs, "/store/1.emlx")
	require.NoError(t, err)
	assert.Equal(t, "A: b\n\nc", string(a.Message))

	_, err = ReadFile(fs, "/store/2.emlx")
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "/store/2.emlx", fe.Path)
	assert.Contains(t, err.Error(), "/store/2.emlx")

	_, err = ReadFile(fs, "/store/missing.emlx")
	assert.Error(t, err)
}
