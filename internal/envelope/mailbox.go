package envelope

import (
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultSchemes are the mailbox URL schemes whose mailboxes are laid out
// under the store root as <account>/<segment>.mbox/...
var DefaultSchemes = []string{"imap"}

// MailboxLocation is a parsed mailbox URL of the form scheme://account/path.
type MailboxLocation struct {
	Scheme    string
	AccountID string
	// Path holds the percent-decoded mailbox path segments, empty ones removed.
	Path []string
}

// ParseMailboxURL splits a mailbox URL into its account id and path segments.
// Only schemes listed in schemes are accepted.
func ParseMailboxURL(raw string, schemes []string) (*MailboxLocation, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return nil, fmt.Errorf("mailbox url %q has no scheme", raw)
	}
	if !slices.Contains(schemes, scheme) {
		return nil, fmt.Errorf("mailbox url scheme %q is not supported", scheme)
	}

	account, mailboxPath, _ := strings.Cut(rest, "/")
	if account == "" {
		return nil, fmt.Errorf("mailbox url %q has no account", raw)
	}
	if decoded, err := url.PathUnescape(mailboxPath); err == nil {
		mailboxPath = decoded
	}

	loc := &MailboxLocation{Scheme: scheme, AccountID: account}
	for _, segment := range strings.Split(mailboxPath, "/") {
		if segment != "" {
			loc.Path = append(loc.Path, segment)
		}
	}
	return loc, nil
}

// Dir returns the mailbox directory below root.
func (l *MailboxLocation) Dir(root string) string {
	parts := make([]string, 0, len(l.Path)+2)
	parts = append(parts, root, l.AccountID)
	for _, segment := range l.Path {
		parts = append(parts, segment+".mbox")
	}
	return filepath.Join(parts...)
}
