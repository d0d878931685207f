// Package storetest builds synthetic mail stores for tests: an Envelope
// Index database and .emlx archives laid out the way the mail client
// writes them.
package storetest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE mailboxes (ROWID INTEGER PRIMARY KEY, url TEXT);
CREATE TABLE message_global_data (ROWID INTEGER PRIMARY KEY, message_id_header TEXT);
CREATE TABLE messages (
	ROWID INTEGER PRIMARY KEY,
	global_message_id INTEGER,
	mailbox INTEGER,
	conversation_id INTEGER,
	date_sent INTEGER
);`

// Message is one row of the messages table.
type Message struct {
	RowID        int64
	MessageID    string // empty inserts NULL
	Mailbox      int64
	Conversation int64 // zero inserts NULL
	DateSent     int64
}

// WriteIndex creates an Envelope Index at path holding the given mailboxes
// (ROWID to URL) and messages.
func WriteIndex(t testing.TB, path string, mailboxes map[int64]string, msgs []Message) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating index directory: %v", err)
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		t.Fatalf("creating test index: %v", err)
	}
	defer db.Close()

	db.MustExec(schema)
	for id, url := range mailboxes {
		db.MustExec(`INSERT INTO mailboxes (ROWID, url) VALUES (?, ?)`, id, url)
	}
	for _, m := range msgs {
		db.MustExec(`INSERT INTO message_global_data (ROWID, message_id_header) VALUES (?, ?)`,
			m.RowID, nullString(m.MessageID))
		db.MustExec(`INSERT INTO messages (ROWID, global_message_id, mailbox, conversation_id, date_sent) VALUES (?, ?, ?, ?, ?)`,
			m.RowID, m.RowID, m.Mailbox, nullInt(m.Conversation), m.DateSent)
	}
}

// Frame wraps a raw RFC 5322 message in .emlx framing: a byte count line,
// the message, and a property list trailer.
func Frame(raw string) []byte {
	return []byte(fmt.Sprintf("%d\n%s\n%s", len(raw), raw, trailer))
}

const trailer = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>flags</key>
	<integer>1</integer>
</dict>
</plist>
`

// Store is a mail store rooted in a temporary directory.
type Store struct {
	Root  string
	Index string
}

// NewStore writes an index under <tmp>/V10/MailData and returns the store.
func NewStore(t testing.TB, mailboxes map[int64]string, msgs []Message) *Store {
	t.Helper()

	root := filepath.Join(t.TempDir(), "V10")
	s := &Store{
		Root:  root,
		Index: filepath.Join(root, "MailData", "Envelope Index"),
	}
	WriteIndex(t, s.Index, mailboxes, msgs)
	return s
}

// WriteArchive frames raw and writes it at rel below the store root,
// returning the absolute path.
func (s *Store) WriteArchive(t testing.TB, rel, raw string) string {
	t.Helper()
	return s.WriteFile(t, rel, Frame(raw))
}

// WriteFile writes data at rel below the store root and returns the absolute path.
func (s *Store) WriteFile(t testing.TB, rel string, data []byte) string {
	t.Helper()

	path := filepath.Join(s.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}
