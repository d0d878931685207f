package envelope

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailreader/internal/logging"
)

const storeRoot = "/store"

func newTestResolver(t *testing.T, ix *Index, files ...string) *Resolver {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte("1\nA: b\n"), 0o644))
	}
	return &Resolver{
		Index:         ix,
		Fs:            fs,
		StoreRoot:     storeRoot,
		Schemes:       DefaultSchemes,
		SearchTimeout: time.Second,
		Logger:        logging.Discard(),
	}
}

func TestResolver_ResolvePath(t *testing.T) {
	ix := newTestIndex(t,
		map[int64]string{
			1: "imap://ACC/INBOX",
			2: "imap://ACC/%5BGmail%5D/All%20Mail",
			3: "local://Mailboxes/Archive",
			4: "imap://ACC/Empty",
		},
		[]fixtureMessage{
			{RowID: 42, MessageID: "<inbox@x>", Mailbox: 1},
			{RowID: 7, MessageID: "<gmail@x>", Mailbox: 2},
			{RowID: 8, MessageID: "<local@x>", Mailbox: 3},
			{RowID: 9, MessageID: "<nofile@x>", Mailbox: 4},
			{RowID: 10, MessageID: "<nomailbox@x>", Mailbox: 99},
		})
	r := newTestResolver(t, ix,
		"/store/ACC/INBOX.mbox/UUID/Data/4/Messages/42.emlx",
		"/store/ACC/[Gmail].mbox/All Mail.mbox/UUID/Data/Messages/7.partial.emlx",
		"/store/ACC/Empty.mbox/UUID/Data/Messages/90.emlx",
	)
	ctx := context.Background()

	tests := []struct {
		name string
		id   string
		want string
	}{
		{"inbox", "<inbox@x>", "/store/ACC/INBOX.mbox/UUID/Data/4/Messages/42.emlx"},
		{"unbracketed id", "inbox@x", "/store/ACC/INBOX.mbox/UUID/Data/4/Messages/42.emlx"},
		{"nested partial archive", "<gmail@x>", "/store/ACC/[Gmail].mbox/All Mail.mbox/UUID/Data/Messages/7.partial.emlx"},
		{"unsupported scheme", "<local@x>", ""},
		{"no matching file", "<nofile@x>", ""},
		{"mailbox row missing", "<nomailbox@x>", ""},
		{"unknown id", "<unknown@x>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolvePath(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_MissingIndex(t *testing.T) {
	r := newTestResolver(t, NewIndex("/does/not/exist"))
	_, err := r.ResolvePath(context.Background(), "<a@b>")
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestResolver_FindArchive(t *testing.T) {
	r := newTestResolver(t, nil,
		"/store/A/INBOX.mbox/Messages/12.emlx",
		"/store/A/INBOX.mbox/Messages/123.emlx",
		"/store/A/INBOX.mbox/Messages/123.emlxpart",
		"/store/A/INBOX.mbox/Attachments/123/2/123.pdf",
	)
	ctx := context.Background()

	assert.Equal(t, "/store/A/INBOX.mbox/Messages/123.emlx", r.FindArchive(ctx, "/store/A/INBOX.mbox", 123))
	assert.Equal(t, "/store/A/INBOX.mbox/Messages/12.emlx", r.FindArchive(ctx, "/store/A/INBOX.mbox", 12))
	assert.Equal(t, "", r.FindArchive(ctx, "/store/A/INBOX.mbox", 5))
	assert.Equal(t, "", r.FindArchive(ctx, "/store/A/Missing.mbox", 123))
}

func TestResolver_FindArchive_Timeout(t *testing.T) {
	r := newTestResolver(t, nil, "/store/A/INBOX.mbox/Messages/1.emlx")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, "", r.FindArchive(ctx, "/store/A/INBOX.mbox", 1))
}

func TestResolver_FindArchive_SkipsDirectories(t *testing.T) {
	r := newTestResolver(t, nil, "/store/A/INBOX.mbox/z/5.emlx")
	require.NoError(t, r.Fs.MkdirAll("/store/A/INBOX.mbox/5.emlx", os.ModePerm))

	assert.Equal(t, "/store/A/INBOX.mbox/z/5.emlx", r.FindArchive(context.Background(), "/store/A/INBOX.mbox", 5))
}
