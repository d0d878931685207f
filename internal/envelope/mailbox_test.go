package envelope

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMailboxURL(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantAccount string
		wantPath    []string
		wantErr     bool
	}{
		{
			name:        "inbox",
			url:         "imap://ACCOUNT-UUID/INBOX",
			wantAccount: "ACCOUNT-UUID",
			wantPath:    []string{"INBOX"},
		},
		{
			name:        "nested percent-encoded path",
			url:         "imap://ACCOUNT-UUID/%5BGmail%5D/All%20Mail",
			wantAccount: "ACCOUNT-UUID",
			wantPath:    []string{"[Gmail]", "All Mail"},
		},
		{
			name:        "empty segments are dropped",
			url:         "imap://A//Archive/",
			wantAccount: "A",
			wantPath:    []string{"Archive"},
		},
		{
			name:        "account only",
			url:         "imap://A",
			wantAccount: "A",
		},
		{
			name:        "invalid escape keeps the raw path",
			url:         "imap://A/100%",
			wantAccount: "A",
			wantPath:    []string{"100%"},
		},
		{
			name:    "local mailbox scheme",
			url:     "local://Mailboxes/Archive",
			wantErr: true,
		},
		{
			name:    "ews scheme",
			url:     "ews://A/Inbox",
			wantErr: true,
		},
		{
			name:    "no scheme",
			url:     "INBOX",
			wantErr: true,
		},
		{
			name:    "no account",
			url:     "imap:///INBOX",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseMailboxURL(tt.url, DefaultSchemes)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "imap", loc.Scheme)
			assert.Equal(t, tt.wantAccount, loc.AccountID)
			assert.Equal(t, tt.wantPath, loc.Path)
		})
	}
}

func TestParseMailboxURL_ExtraSchemes(t *testing.T) {
	loc, err := ParseMailboxURL("ews://A/Inbox", []string{"imap", "ews"})
	require.NoError(t, err)
	assert.Equal(t, "ews", loc.Scheme)
}

func TestMailboxLocation_Dir(t *testing.T) {
	loc := &MailboxLocation{AccountID: "A", Path: []string{"[Gmail]", "All Mail"}}
	assert.Equal(t, filepath.Join("/store", "A", "[Gmail].mbox", "All Mail.mbox"), loc.Dir("/store"))

	loc = &MailboxLocation{AccountID: "A"}
	assert.Equal(t, filepath.Join("/store", "A"), loc.Dir("/store"))
}
