package envelope

import (
	"context"

	"github.com/teemow/mailreader/internal/logging"
)

// ThreadEntry is one message of a conversation. Path is empty when no archive
// file could be found for the message.
type ThreadEntry struct {
	MessageID string `json:"message_id"`
	Path      string `json:"path,omitempty"`
}

// Found reports whether the entry has an archive file.
func (e ThreadEntry) Found() bool {
	return e.Path != ""
}

// Threads assembles conversations from the index.
type Threads struct {
	Index    *Index
	Resolver *Resolver
}

// NewThreads returns a thread assembler backed by the resolver's index.
func NewThreads(resolver *Resolver) *Threads {
	return &Threads{Index: resolver.Index, Resolver: resolver}
}

// Entries returns every message of the conversation that contains seedID,
// ordered by send date, oldest first. Messages without an archive file are
// kept as entries with an empty Path only when includeMissing is set. An
// unknown seed yields an empty slice.
func (t *Threads) Entries(ctx context.Context, seedID string, includeMissing bool) ([]ThreadEntry, error) {
	conversationID, ok, err := t.Index.ConversationID(ctx, seedID)
	if err != nil {
		return nil, err
	}
	entries := []ThreadEntry{}
	if !ok {
		return entries, nil
	}

	ids, err := t.Index.ConversationMessageIDs(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		path, err := t.Resolver.ResolvePath(ctx, id)
		if err != nil {
			return nil, err
		}
		if path == "" && !includeMissing {
			continue
		}
		entries = append(entries, ThreadEntry{MessageID: id, Path: path})
	}

	t.Resolver.logger().Debug("thread assembled",
		logging.MessageID(seedID),
		logging.Count(len(entries)),
		"conversation_members", len(ids))
	return entries, nil
}

// Paths returns the archive paths of the conversation that contains seedID.
// With includeMissing, messages without a file appear as "".
func (t *Threads) Paths(ctx context.Context, seedID string, includeMissing bool) ([]string, error) {
	entries, err := t.Entries(ctx, seedID, includeMissing)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return paths, nil
}
