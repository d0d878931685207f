package attachments

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/teemow/mailreader/internal/logging"
)

// NoteBaseDirMissing is reported when there is nothing to clean up at all.
const NoteBaseDirMissing = "Base directory does not exist"

// Cleaned describes one removed working directory.
type Cleaned struct {
	MessageID    string `json:"message_id"`
	Path         string `json:"path"`
	FilesRemoved int    `json:"files_removed"`
	SizeFreed    int64  `json:"size_freed"`
}

// CleanupResult is the outcome of one Cleanup call.
type CleanupResult struct {
	BaseDir  string    `json:"base_dir"`
	Cleaned  []Cleaned `json:"cleaned"`
	NotFound []string  `json:"not_found"`
	Note     string    `json:"note,omitempty"`
}

// TotalFiles returns the number of files removed across all directories.
func (r *CleanupResult) TotalFiles() int {
	n := 0
	for _, c := range r.Cleaned {
		n += c.FilesRemoved
	}
	return n
}

// TotalBytes returns the number of bytes freed across all directories.
func (r *CleanupResult) TotalBytes() int64 {
	var n int64
	for _, c := range r.Cleaned {
		n += c.SizeFreed
	}
	return n
}

// Cleanup removes the working directories of the given messages. baseDir
// overrides the configured base directory when not empty. The first removal
// failure aborts the call; directories removed before it stay removed.
func (x *Extractor) Cleanup(ctx context.Context, messageIDs []string, baseDir string) (*CleanupResult, error) {
	if baseDir == "" {
		baseDir = x.BaseDir
	}
	result := &CleanupResult{
		BaseDir:  baseDir,
		Cleaned:  []Cleaned{},
		NotFound: []string{},
	}

	if ok, _ := afero.DirExists(x.Fs, baseDir); !ok {
		result.NotFound = append(result.NotFound, messageIDs...)
		result.Note = NoteBaseDirMissing
		return result, nil
	}

	for _, id := range messageIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := filepath.Join(baseDir, MessageDirName(id))
		if ok, _ := afero.DirExists(x.Fs, dir); !ok {
			result.NotFound = append(result.NotFound, id)
			continue
		}

		files, size, err := x.usage(dir)
		if err != nil {
			return nil, fmt.Errorf("measuring %s: %w", dir, err)
		}
		if err := x.Fs.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", dir, err)
		}
		result.Cleaned = append(result.Cleaned, Cleaned{
			MessageID:    id,
			Path:         dir,
			FilesRemoved: files,
			SizeFreed:    size,
		})
	}

	x.logger().Info("attachment directories cleaned",
		logging.Count(len(result.Cleaned)),
		"not_found", len(result.NotFound),
		"bytes_freed", result.TotalBytes())
	return result, nil
}

// usage counts the regular files below dir and their total size.
func (x *Extractor) usage(dir string) (int, int64, error) {
	var files int
	var size int64
	err := afero.Walk(x.Fs, dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			files++
			size += info.Size()
		}
		return nil
	})
	return files, size, err
}
