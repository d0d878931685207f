package envelope

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/teemow/mailreader/internal/logging"
)

// DefaultSearchTimeout bounds the archive search below one mailbox directory.
const DefaultSearchTimeout = 10 * time.Second

const archiveSuffix = ".emlx"

var errFound = errors.New("archive found")

// Resolver maps Message-IDs to archive files in the store.
type Resolver struct {
	Index         *Index
	Fs            afero.Fs
	StoreRoot     string
	Schemes       []string
	SearchTimeout time.Duration
	Logger        logging.Logger
}

// NewResolver returns a Resolver over the OS filesystem with default
// schemes and search timeout.
func NewResolver(index *Index, storeRoot string) *Resolver {
	return &Resolver{
		Index:         index,
		Fs:            afero.NewOsFs(),
		StoreRoot:     storeRoot,
		Schemes:       DefaultSchemes,
		SearchTimeout: DefaultSearchTimeout,
		Logger:        logging.DefaultLogger(),
	}
}

// ResolvePath returns the archive file of the message, or "" when the message
// is unknown, its mailbox cannot be mapped to a directory, or no file matches.
func (r *Resolver) ResolvePath(ctx context.Context, messageID string) (string, error) {
	loc, err := r.Index.Lookup(ctx, messageID)
	if err != nil {
		return "", err
	}
	if loc == nil || loc.RowID == 0 || !loc.MailboxURL.Valid || loc.MailboxURL.String == "" {
		r.logger().Debug("message not in index", logging.MessageID(messageID))
		return "", nil
	}

	mailbox, err := ParseMailboxURL(loc.MailboxURL.String, r.schemes())
	if err != nil {
		r.logger().Debug("mailbox not resolvable", logging.MessageID(messageID), logging.Err(err))
		return "", nil
	}

	return r.FindArchive(ctx, mailbox.Dir(r.StoreRoot), loc.RowID), nil
}

// FindArchive searches dir recursively for a file named <rowID>*.emlx and
// returns the first match in lexical walk order. A missing directory, an
// exhausted search timeout or no match all yield "".
func (r *Resolver) FindArchive(ctx context.Context, dir string, rowID int64) string {
	if ok, _ := afero.DirExists(r.Fs, dir); !ok {
		return ""
	}

	timeout := r.SearchTimeout
	if timeout <= 0 {
		timeout = DefaultSearchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prefix := strconv.FormatInt(rowID, 10)
	var match string
	err := afero.Walk(r.Fs, dir, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Unreadable subtrees are skipped.
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		name := info.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, archiveSuffix) {
			match = path
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		r.logger().Warn("archive search aborted", logging.Path(dir), logging.Err(err))
		return ""
	}
	return match
}

func (r *Resolver) schemes() []string {
	if len(r.Schemes) == 0 {
		return DefaultSchemes
	}
	return r.Schemes
}

func (r *Resolver) logger() logging.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}
