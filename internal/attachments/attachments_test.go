package attachments

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailreader/internal/emlx"
	"github.com/teemow/mailreader/internal/logging"
)

const (
	messagesDir = "/store/ACC/INBOX.mbox/UUID/Data/Messages"
	attachDir   = "/store/ACC/INBOX.mbox/UUID/Data/Attachments"
	baseDir     = "/tmp/mail-mcp-attachments"
)

// bigPayload is long enough to be taken from the archive itself.
var bigPayload = strings.Repeat("A", 150)

func part(headers, body string) string {
	return "--b\r\n" + headers + "\r\n\r\n" + body + "\r\n"
}

func archive(parts ...string) []byte {
	msg := "Message-Id: <m@x>\r\nContent-Type: multipart/mixed; boundary=b\r\n\r\n" +
		part("Content-Type: text/plain", "body") +
		strings.Join(parts, "") + "--b--\r\n"
	return []byte("100\n" + msg + "<?xml version=\"1.0\"?>\n<plist version=\"1.0\"><dict></dict></plist>\n")
}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	return &Extractor{
		Fs:            afero.NewMemMapFs(),
		BaseDir:       baseDir,
		MinInlineSize: DefaultMinInlineSize,
		Logger:        logging.Discard(),
	}
}

func writeFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"a/b.pdf", "a_b.pdf"},
		{`a\b.pdf`, "a_b.pdf"},
		{"12:30 notes.txt", "12_30 notes.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeFilename(tt.in))
		})
	}
}

func TestMessageDirName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<abc@example.com>", "abc@example.com"},
		{"abc@example.com", "abc@example.com"},
		{"<<odd>>", "odd"},
		{"<../../etc>", ".._.._etc"},
		{"<..>", "_"},
		{"<>", "_"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MessageDirName(tt.in))
		})
	}
}

func TestFallbackNames(t *testing.T) {
	assert.Equal(t, []string{"report.pdf"}, fallbackNames("report.pdf"))
	assert.Equal(t, []string{"a/b.pdf", "a_b.pdf"}, fallbackNames("a/b.pdf"))

	names := fallbackNames("résumé.pdf")
	require.Len(t, names, 2)
	assert.Equal(t, "résumé.pdf", names[0])
	assert.NotEqual(t, names[0], names[1])
}

func TestExtract_Inline(t *testing.T) {
	x := newTestExtractor(t)
	src := messagesDir + "/42.emlx"
	writeFile(t, x.Fs, src, archive(
		part("Content-Type: application/pdf\r\nContent-Disposition: attachment; filename=\"report.pdf\"", bigPayload),
		part("Content-Type: image/png; name=\"logo.png\"", bigPayload),
	))

	res, err := x.Extract(context.Background(), src, "<m@x>", []string{"report.pdf", "missing.doc"}, "")
	require.NoError(t, err)

	assert.Equal(t, baseDir, res.BaseDir)
	assert.Equal(t, baseDir+"/m@x", res.MessageDir)
	require.Len(t, res.Extracted, 1)
	got := res.Extracted[0]
	assert.Equal(t, "report.pdf", got.Filename)
	assert.Equal(t, "report.pdf", got.SafeFilename)
	assert.Equal(t, baseDir+"/m@x/report.pdf", got.Path)
	assert.Equal(t, "application/pdf", got.MIMEType)
	assert.Equal(t, 150, got.SizeBytes)
	assert.Equal(t, SourceInline, got.Source)
	assert.Equal(t, []string{"missing.doc"}, res.NotFound)

	data, err := afero.ReadFile(x.Fs, got.Path)
	require.NoError(t, err)
	assert.Equal(t, bigPayload, string(data))

	exists, _ := afero.Exists(x.Fs, baseDir+"/m@x/logo.png")
	assert.False(t, exists, "attachments that were not requested must not be written")
}

func TestExtract_FallbackToAttachmentsDir(t *testing.T) {
	x := newTestExtractor(t)
	src := messagesDir + "/42.partial.emlx"
	writeFile(t, x.Fs, src, archive(
		part("Content-Type: application/pdf\r\nContent-Disposition: attachment; filename=\"big.pdf\"", "stub"),
		part("Content-Type: application/pdf\r\nContent-Disposition: attachment; filename=\"Q1/Q2.pdf\"", ""),
		part("Content-Type: application/pdf\r\nContent-Disposition: attachment; filename=\"small.pdf\"", "tiny"),
	))
	writeFile(t, x.Fs, attachDir+"/42/2/big.pdf", []byte("full big payload"))
	writeFile(t, x.Fs, attachDir+"/42/3/Q1_Q2.pdf", []byte("quarterly"))

	res, err := x.Extract(context.Background(), src, "<m@x>", []string{"big.pdf", "Q1/Q2.pdf", "small.pdf"}, "/out")
	require.NoError(t, err)

	assert.Equal(t, "/out", res.BaseDir)
	require.Len(t, res.Extracted, 3)

	assert.Equal(t, "big.pdf", res.Extracted[0].Filename)
	assert.Equal(t, SourceAttachments, res.Extracted[0].Source)
	assert.Equal(t, len("full big payload"), res.Extracted[0].SizeBytes)

	assert.Equal(t, "Q1/Q2.pdf", res.Extracted[1].Filename)
	assert.Equal(t, "Q1_Q2.pdf", res.Extracted[1].SafeFilename)
	assert.Equal(t, "/out/m@x/Q1_Q2.pdf", res.Extracted[1].Path)

	// A short stub with no externalized copy is still saved.
	assert.Equal(t, "small.pdf", res.Extracted[2].Filename)
	assert.Equal(t, SourceInline, res.Extracted[2].Source)
	assert.Equal(t, 4, res.Extracted[2].SizeBytes)

	assert.Empty(t, res.NotFound)
}

func TestExtract_ZeroMinInlineSizeKeepsStub(t *testing.T) {
	x := newTestExtractor(t)
	x.MinInlineSize = 0
	src := messagesDir + "/42.partial.emlx"
	writeFile(t, x.Fs, src, archive(
		part("Content-Type: application/pdf\r\nContent-Disposition: attachment; filename=\"big.pdf\"", "stub"),
	))
	writeFile(t, x.Fs, attachDir+"/42/2/big.pdf", []byte("full big payload"))

	res, err := x.Extract(context.Background(), src, "<m@x>", []string{"big.pdf"}, "")
	require.NoError(t, err)
	require.Len(t, res.Extracted, 1)
	assert.Equal(t, SourceInline, res.Extracted[0].Source)
	assert.Equal(t, 4, res.Extracted[0].SizeBytes)
}

func TestExtract_ForwardedMessageAttachment(t *testing.T) {
	x := newTestExtractor(t)
	src := messagesDir + "/9.emlx"
	forwarded := "Message-Id: <inner@x>\r\nContent-Type: multipart/mixed; boundary=in\r\n\r\n" +
		"--in\r\nContent-Type: text/plain\r\n\r\ninner body\r\n" +
		"--in\r\nContent-Type: application/pdf\r\nContent-Disposition: attachment; filename=\"inner.pdf\"\r\n\r\n" +
		bigPayload + "\r\n--in--"
	writeFile(t, x.Fs, src, archive(
		part("Content-Type: message/rfc822\r\nContent-Disposition: attachment; filename=\"fwd.eml\"", forwarded),
	))

	res, err := x.Extract(context.Background(), src, "<m@x>", []string{"inner.pdf"}, "")
	require.NoError(t, err)
	require.Len(t, res.Extracted, 1)
	got := res.Extracted[0]
	assert.Equal(t, "inner.pdf", got.Filename)
	assert.Equal(t, "application/pdf", got.MIMEType)
	assert.Equal(t, SourceInline, got.Source)
	assert.Equal(t, 150, got.SizeBytes)
	assert.Empty(t, res.NotFound)

	data, err := afero.ReadFile(x.Fs, got.Path)
	require.NoError(t, err)
	assert.Equal(t, bigPayload, string(data))
}

func TestExtract_DuplicateNameRetried(t *testing.T) {
	x := newTestExtractor(t)
	src := messagesDir + "/7.emlx"
	writeFile(t, x.Fs, src, archive(
		part("Content-Type: image/png; name=\"a.png\"", ""),
		part("Content-Type: image/png; name=\"a.png\"", bigPayload),
		part("Content-Type: image/png; name=\"a.png\"", strings.Repeat("B", 200)),
	))

	res, err := x.Extract(context.Background(), src, "<m@x>", []string{"a.png"}, "")
	require.NoError(t, err)
	require.Len(t, res.Extracted, 1)
	assert.Equal(t, 150, res.Extracted[0].SizeBytes)
	assert.Empty(t, res.NotFound)
}

func TestExtract_EmptyPayloadIsNotFound(t *testing.T) {
	x := newTestExtractor(t)
	src := messagesDir + "/8.emlx"
	writeFile(t, x.Fs, src, archive(
		part("Content-Type: application/zip\r\nContent-Disposition: attachment; filename=\"gone.zip\"", ""),
	))

	res, err := x.Extract(context.Background(), src, "<m@x>", []string{"gone.zip"}, "")
	require.NoError(t, err)
	assert.Empty(t, res.Extracted)
	assert.Equal(t, []string{"gone.zip"}, res.NotFound)

	exists, _ := afero.DirExists(x.Fs, baseDir+"/m@x")
	assert.True(t, exists, "message directory is created even when nothing is extracted")
}

func TestExtract_Errors(t *testing.T) {
	x := newTestExtractor(t)
	writeFile(t, x.Fs, messagesDir+"/1.emlx", archive())
	writeFile(t, x.Fs, messagesDir+"/2.emlx", []byte("12\n"))

	_, err := x.Extract(context.Background(), messagesDir+"/missing.emlx", "<m@x>", []string{"a"}, "")
	assert.True(t, errors.Is(err, ErrArchiveNotFound))

	_, err = x.Extract(context.Background(), messagesDir+"/1.emlx", "<m@x>", nil, "")
	assert.True(t, errors.Is(err, ErrNoFilenames))

	_, err = x.Extract(context.Background(), messagesDir+"/2.emlx", "<m@x>", []string{"a"}, "")
	var fe *emlx.FormatError
	assert.True(t, errors.As(err, &fe))
}

func TestExtract_WriteFailure(t *testing.T) {
	x := newTestExtractor(t)
	src := messagesDir + "/42.emlx"
	writeFile(t, x.Fs, src, archive(
		part("Content-Type: application/pdf; name=\"a.pdf\"", bigPayload),
	))
	x.Fs = afero.NewReadOnlyFs(x.Fs)

	_, err := x.Extract(context.Background(), src, "<m@x>", []string{"a.pdf"}, "")
	assert.Error(t, err)
}

func TestCleanup(t *testing.T) {
	x := newTestExtractor(t)
	writeFile(t, x.Fs, baseDir+"/one@x/a.pdf", []byte("12345"))
	writeFile(t, x.Fs, baseDir+"/one@x/nested/b.txt", []byte("123"))
	writeFile(t, x.Fs, baseDir+"/two@x/c.png", []byte("1"))

	res, err := x.Cleanup(context.Background(), []string{"<one@x>", "<missing@x>", "two@x"}, "")
	require.NoError(t, err)

	assert.Equal(t, baseDir, res.BaseDir)
	assert.Equal(t, []Cleaned{
		{MessageID: "<one@x>", Path: baseDir + "/one@x", FilesRemoved: 2, SizeFreed: 8},
		{MessageID: "two@x", Path: baseDir + "/two@x", FilesRemoved: 1, SizeFreed: 1},
	}, res.Cleaned)
	assert.Equal(t, []string{"<missing@x>"}, res.NotFound)
	assert.Empty(t, res.Note)
	assert.Equal(t, 3, res.TotalFiles())
	assert.Equal(t, int64(9), res.TotalBytes())

	exists, _ := afero.DirExists(x.Fs, baseDir+"/one@x")
	assert.False(t, exists)
	exists, _ = afero.DirExists(x.Fs, baseDir)
	assert.True(t, exists, "base directory itself is kept")
}

func TestCleanup_MissingBaseDir(t *testing.T) {
	x := newTestExtractor(t)

	res, err := x.Cleanup(context.Background(), []string{"<a@x>", "<b@x>"}, "/nowhere")
	require.NoError(t, err)
	assert.Equal(t, "/nowhere", res.BaseDir)
	assert.Empty(t, res.Cleaned)
	assert.Equal(t, []string{"<a@x>", "<b@x>"}, res.NotFound)
	assert.Equal(t, NoteBaseDirMissing, res.Note)
}

func TestCleanup_RemoveFailure(t *testing.T) {
	x := newTestExtractor(t)
	writeFile(t, x.Fs, baseDir+"/one@x/a.pdf", []byte("1"))
	x.Fs = afero.NewReadOnlyFs(x.Fs)

	_, err := x.Cleanup(context.Background(), []string{"<one@x>"}, "")
	assert.Error(t, err)
}
