package attachments

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/teemow/mailreader/internal/emlx"
	"github.com/teemow/mailreader/internal/logging"
	"github.com/teemow/mailreader/internal/message"
)

// DefaultMinInlineSize is the payload size below which an inline attachment is
// assumed to be a stub left behind after the client externalized the file.
const DefaultMinInlineSize = 100

// Sources of an extracted payload.
const (
	SourceInline      = "inline"
	SourceAttachments = "attachments-dir"
)

var (
	// ErrNoFilenames is returned when Extract is called without filenames.
	ErrNoFilenames = errors.New("no filenames specified for extraction")
	// ErrArchiveNotFound is returned when the archive file does not exist.
	ErrArchiveNotFound = errors.New("file not found")
)

// Extracted describes one attachment written to the working directory.
type Extracted struct {
	Filename     string `json:"filename"`
	SafeFilename string `json:"safe_filename"`
	Path         string `json:"path"`
	MIMEType     string `json:"mime_type"`
	SizeBytes    int    `json:"size_bytes"`
	Source       string `json:"source"`
}

// Extraction is the outcome of one Extract call.
type Extraction struct {
	BaseDir    string      `json:"base_dir"`
	MessageDir string      `json:"message_dir"`
	Extracted  []Extracted `json:"extracted"`
	NotFound   []string    `json:"not_found"`
}

// Extractor writes attachment payloads into per-message working directories
// below BaseDir and removes them again.
type Extractor struct {
	Fs      afero.Fs
	BaseDir string
	// MinInlineSize is the payload length below which the Attachments
	// directory is searched for a full copy. Zero disables the search.
	MinInlineSize int
	Logger        logging.Logger
}

// NewExtractor returns an Extractor on the OS filesystem.
func NewExtractor(baseDir string) *Extractor {
	return &Extractor{
		Fs:            afero.NewOsFs(),
		BaseDir:       baseDir,
		MinInlineSize: DefaultMinInlineSize,
		Logger:        logging.DefaultLogger(),
	}
}

// Extract saves the attachments of the archive at archivePath whose decoded
// filenames are listed in filenames. baseDir overrides the configured base
// directory when not empty.
//
// Parts are matched by exact filename in tree order. A name is satisfied by
// the first part that yields a payload; a later part with the same name is
// only tried when the earlier ones produced nothing. Names that no part
// satisfied are returned in NotFound. Files already written stay on disk when
// a later write fails.
func (x *Extractor) Extract(ctx context.Context, archivePath, messageID string, filenames []string, baseDir string) (*Extraction, error) {
	if ok, _ := afero.Exists(x.Fs, archivePath); !ok {
		return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, archivePath)
	}
	if len(filenames) == 0 {
		return nil, ErrNoFilenames
	}

	archive, err := emlx.ReadFile(x.Fs, archivePath)
	if err != nil {
		return nil, err
	}

	if baseDir == "" {
		baseDir = x.BaseDir
	}
	messageDir := filepath.Join(baseDir, MessageDirName(messageID))
	if err := x.Fs.MkdirAll(messageDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating message directory: %w", err)
	}

	pending := make(map[string]bool, len(filenames))
	for _, name := range filenames {
		pending[name] = true
	}

	result := &Extraction{
		BaseDir:    baseDir,
		MessageDir: messageDir,
		Extracted:  []Extracted{},
		NotFound:   []string{},
	}

	err = message.Walk(archive.Message, func(p *message.Part) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !p.Attachment || p.Filename == "" || !pending[p.Filename] {
			return nil
		}

		payload, source := p.Payload, SourceInline
		if len(payload) < x.MinInlineSize {
			if data, ok := x.fallbackPayload(archivePath, p.Filename); ok {
				payload, source = data, SourceAttachments
			}
		}
		if len(payload) == 0 {
			return nil
		}

		safe := SafeFilename(p.Filename)
		out := filepath.Join(messageDir, safe)
		if err := afero.WriteFile(x.Fs, out, payload, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", safe, err)
		}
		result.Extracted = append(result.Extracted, Extracted{
			Filename:     p.Filename,
			SafeFilename: safe,
			Path:         out,
			MIMEType:     p.MIMEType,
			SizeBytes:    len(payload),
			Source:       source,
		})
		delete(pending, p.Filename)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extracting attachments: %w", err)
	}

	for _, name := range filenames {
		if pending[name] {
			result.NotFound = append(result.NotFound, name)
			delete(pending, name)
		}
	}

	x.logger().Info("attachments extracted",
		logging.MessageID(messageID),
		logging.Count(len(result.Extracted)),
		"not_found", len(result.NotFound))
	return result, nil
}

// fallbackPayload looks for an externalized attachment next to the archive:
// <archive dir>/../Attachments/<row id>/<part dir>/<name>.
func (x *Extractor) fallbackPayload(archivePath, filename string) ([]byte, bool) {
	stem := strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))
	stem = strings.ReplaceAll(stem, ".partial", "")
	root := filepath.Join(filepath.Dir(filepath.Dir(archivePath)), "Attachments", stem)

	entries, err := afero.ReadDir(x.Fs, root)
	if err != nil {
		return nil, false
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, sub := range entries {
		if !sub.IsDir() {
			continue
		}
		for _, candidate := range fallbackNames(filename) {
			path := filepath.Join(root, sub.Name(), candidate)
			info, err := x.Fs.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			data, err := afero.ReadFile(x.Fs, path)
			if err != nil {
				x.logger().Warn("reading externalized attachment failed",
					logging.Path(path), logging.Err(err))
				continue
			}
			x.logger().Debug("attachment found in attachments directory",
				"file", logging.SanitizeFilename(filename))
			return data, true
		}
	}
	return nil, false
}

func (x *Extractor) logger() logging.Logger {
	if x.Logger == nil {
		return logging.Discard()
	}
	return x.Logger
}
