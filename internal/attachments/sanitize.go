package attachments

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DirName is the fixed subdirectory below the configured base path that holds
// every per-message working directory.
const DirName = "mail-mcp-attachments"

var (
	safeNameReplacer  = strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	separatorReplacer = strings.NewReplacer("/", "_", "\\", "_")
)

// SafeFilename returns the name an extracted attachment is saved under.
func SafeFilename(name string) string {
	return safeNameReplacer.Replace(name)
}

// MessageDirName returns the working directory name for a Message-ID: the id
// without its angle brackets. Path separators are replaced and the special
// names "." and ".." are rejected so the directory stays inside the base.
func MessageDirName(messageID string) string {
	name := strings.Trim(strings.TrimSpace(messageID), "<>")
	name = separatorReplacer.Replace(name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}

// fallbackNames lists the names under which the client may have stored an
// externalized attachment: the decoded name, the name with path separators
// replaced, and the decomposed (NFD) form of both, as written by macOS.
func fallbackNames(filename string) []string {
	candidates := []string{
		filename,
		separatorReplacer.Replace(filename),
	}
	for _, c := range candidates[:2] {
		candidates = append(candidates, norm.NFD.String(c))
	}

	seen := make(map[string]bool, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
