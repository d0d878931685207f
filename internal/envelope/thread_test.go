package envelope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThreadFixture(t *testing.T) *Threads {
	t.Helper()
	ix := newTestIndex(t,
		map[int64]string{1: "imap://ACC/INBOX", 2: "imap://ACC/Sent%20Messages"},
		[]fixtureMessage{
			{RowID: 30, MessageID: "<reply2@x>", Mailbox: 1, Conversation: 5, DateSent: 300},
			{RowID: 10, MessageID: "<root@x>", Mailbox: 1, Conversation: 5, DateSent: 100},
			{RowID: 20, MessageID: "<reply1@x>", Mailbox: 2, Conversation: 5, DateSent: 200},
			{RowID: 40, MessageID: "<alone@x>", Mailbox: 1},
		})
	r := newTestResolver(t, ix,
		"/store/ACC/INBOX.mbox/Messages/10.emlx",
		"/store/ACC/INBOX.mbox/Messages/30.emlx",
	)
	return NewThreads(r)
}

func TestThreads_Entries(t *testing.T) {
	threads := newThreadFixture(t)
	ctx := context.Background()

	entries, err := threads.Entries(ctx, "<reply2@x>", true)
	require.NoError(t, err)
	assert.Equal(t, []ThreadEntry{
		{MessageID: "<root@x>", Path: "/store/ACC/INBOX.mbox/Messages/10.emlx"},
		{MessageID: "<reply1@x>"},
		{MessageID: "<reply2@x>", Path: "/store/ACC/INBOX.mbox/Messages/30.emlx"},
	}, entries)
	assert.False(t, entries[1].Found())

	entries, err = threads.Entries(ctx, "reply2@x", false)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "<root@x>", entries[0].MessageID)
	assert.Equal(t, "<reply2@x>", entries[1].MessageID)
}

func TestThreads_UnknownSeed(t *testing.T) {
	threads := newThreadFixture(t)
	ctx := context.Background()

	for _, seed := range []string{"<unknown@x>", "<alone@x>"} {
		entries, err := threads.Entries(ctx, seed, true)
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	}
}

func TestThreads_Paths(t *testing.T) {
	threads := newThreadFixture(t)

	paths, err := threads.Paths(context.Background(), "<root@x>", true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/store/ACC/INBOX.mbox/Messages/10.emlx",
		"",
		"/store/ACC/INBOX.mbox/Messages/30.emlx",
	}, paths)

	paths, err = threads.Paths(context.Background(), "<root@x>", false)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}
