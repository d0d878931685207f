package common

import "strings"

// MessageIDsFromArgs collects the Message-IDs a tool call targets from the
// "message_id" and "message_ids" arguments. "message_ids" may be a single
// string or an array; non-string entries are ignored.
func MessageIDsFromArgs(args map[string]any) []string {
	var ids []string
	if id, ok := args["message_id"].(string); ok && strings.TrimSpace(id) != "" {
		ids = append(ids, id)
	}
	switch v := args["message_ids"].(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			ids = append(ids, v)
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				ids = append(ids, s)
			}
		}
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				ids = append(ids, s)
			}
		}
	}
	return ids
}

// PathsFromArgs returns the filesystem paths named by "file_path",
// "output_dir" and "base_dir".
func PathsFromArgs(args map[string]any) []string {
	var paths []string
	for _, key := range []string{"file_path", "output_dir", "base_dir"} {
		if p, ok := args[key].(string); ok && p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
