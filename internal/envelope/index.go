package envelope

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrIndexNotFound is returned when the Envelope Index database file is missing.
// No query is attempted in that case.
var ErrIndexNotFound = errors.New("envelope index not found")

const (
	lookupQuery = `
SELECT m.ROWID AS rowid, mb.url AS url
FROM messages m
LEFT JOIN message_global_data mgd ON m.global_message_id = mgd.ROWID
LEFT JOIN mailboxes mb ON m.mailbox = mb.ROWID
WHERE mgd.message_id_header = ?
LIMIT 1`

	conversationQuery = `
SELECT m.conversation_id
FROM messages m
LEFT JOIN message_global_data mgd ON m.global_message_id = mgd.ROWID
WHERE mgd.message_id_header = ?
LIMIT 1`

	conversationMembersQuery = `
SELECT mgd.message_id_header
FROM messages m
LEFT JOIN message_global_data mgd ON m.global_message_id = mgd.ROWID
WHERE m.conversation_id = ?
ORDER BY m.date_sent ASC`
)

// Location is the index row of one message.
type Location struct {
	RowID      int64          `db:"rowid"`
	MailboxURL sql.NullString `db:"url"`
}

// Index queries the client's Envelope Index. A fresh read-only connection is
// opened for every query and closed before the query method returns.
type Index struct {
	Path string
}

// NewIndex returns an Index for the database file at path.
func NewIndex(path string) *Index {
	return &Index{Path: path}
}

// Lookup returns the row of the message with the given id, or nil when the
// index has no such message.
func (ix *Index) Lookup(ctx context.Context, messageID string) (*Location, error) {
	db, err := ix.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var loc Location
	err = db.GetContext(ctx, &loc, lookupQuery, NormalizeMessageID(messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up message: %w", err)
	}
	return &loc, nil
}

// ConversationID returns the conversation of the message with the given id.
// ok is false when the message is unknown or has no conversation.
func (ix *Index) ConversationID(ctx context.Context, messageID string) (id int64, ok bool, err error) {
	db, err := ix.open(ctx)
	if err != nil {
		return 0, false, err
	}
	defer db.Close()

	var conv sql.NullInt64
	err = db.GetContext(ctx, &conv, conversationQuery, NormalizeMessageID(messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up conversation: %w", err)
	}
	if !conv.Valid || conv.Int64 == 0 {
		return 0, false, nil
	}
	return conv.Int64, true, nil
}

// ConversationMessageIDs returns the Message-IDs of a conversation, oldest
// first. Rows without a Message-ID are skipped.
func (ix *Index) ConversationMessageIDs(ctx context.Context, conversationID int64) ([]string, error) {
	db, err := ix.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var rows []sql.NullString
	if err := db.SelectContext(ctx, &rows, conversationMembersQuery, conversationID); err != nil {
		return nil, fmt.Errorf("listing conversation members: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Valid && r.String != "" {
			ids = append(ids, r.String)
		}
	}
	return ids, nil
}

// Exists reports whether the index file is present.
func (ix *Index) Exists() bool {
	_, err := os.Stat(ix.Path)
	return err == nil
}

func (ix *Index) open(ctx context.Context) (*sqlx.DB, error) {
	if _, err := os.Stat(ix.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s: check that the mail store version matches and that this process has Full Disk Access", ErrIndexNotFound, ix.Path)
		}
		return nil, fmt.Errorf("checking envelope index: %w", err)
	}

	db, err := sqlx.Open("sqlite", readOnlyDSN(ix.Path))
	if err != nil {
		return nil, fmt.Errorf("opening envelope index: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening envelope index: %w", err)
	}
	return db, nil
}

// readOnlyDSN builds a SQLite URI filename that opens path without write access.
func readOnlyDSN(path string) string {
	r := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")
	return "file:" + r.Replace(path) + "?mode=ro"
}

// NormalizeMessageID returns id in its angle-bracketed form.
func NormalizeMessageID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, "<") {
		return id
	}
	return "<" + strings.TrimSuffix(id, ">") + ">"
}

// StripBrackets returns id without its surrounding angle brackets.
func StripBrackets(id string) string {
	return strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(id), "<"), ">")
}
