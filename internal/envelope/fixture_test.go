package envelope

import (
	"path/filepath"
	"testing"

	"github.com/teemow/mailreader/internal/storetest"
)

type fixtureMessage = storetest.Message

// newTestIndex writes an Envelope Index with the given mailboxes and messages
// into a temporary directory.
func newTestIndex(t *testing.T, mailboxes map[int64]string, msgs []fixtureMessage) *Index {
	t.Helper()

	path := filepath.Join(t.TempDir(), "Envelope Index")
	storetest.WriteIndex(t, path, mailboxes, msgs)
	return NewIndex(path)
}
