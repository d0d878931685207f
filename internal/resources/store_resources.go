package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailreader/internal/server"
)

const (
	ConfigURI = "mail://store/config"
	StatusURI = "mail://store/status"
)

// StoreConfig is the content of mail://store/config.
type StoreConfig struct {
	StoreRoot     string   `json:"store_root"`
	IndexPath     string   `json:"index_path"`
	Schemes       []string `json:"schemes"`
	SearchTimeout string   `json:"search_timeout"`
	AttachmentDir string   `json:"attachment_dir"`
	MinInlineSize int      `json:"min_inline_size"`
}

// StoreStatus is the content of mail://store/status.
type StoreStatus struct {
	IndexAvailable bool        `json:"index_available"`
	AttachmentDir  string      `json:"attachment_dir"`
	Workspaces     []Workspace `json:"workspaces"`
	TotalSize      string      `json:"total_size"`
}

// Workspace is one per-message working directory below the attachment dir.
type Workspace struct {
	Name      string `json:"name"`
	Files     int    `json:"files"`
	SizeBytes int64  `json:"size_bytes"`
}

// RegisterStoreResources registers the store resources on s.
func RegisterStoreResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil || sc.Client() == nil {
		return fmt.Errorf("store resources need a mail client")
	}

	configResource := mcp.NewResource(
		ConfigURI,
		"Mail Store Configuration",
		mcp.WithResourceDescription("Resolved locations of the mail store, its Envelope Index and the attachment working directory"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(configResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(request.Params.URI, storeConfig(sc))
	})

	statusResource := mcp.NewResource(
		StatusURI,
		"Mail Store Status",
		mcp.WithResourceDescription("Envelope Index availability and the attachment working directories awaiting cleanup"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(statusResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		status, err := storeStatus(sc)
		if err != nil {
			return nil, err
		}
		return jsonContents(request.Params.URI, status)
	})

	return nil
}

func storeConfig(sc *server.ServerContext) StoreConfig {
	client := sc.Client()
	cfg := client.Config()
	return StoreConfig{
		StoreRoot:     cfg.Store.Root,
		IndexPath:     cfg.Store.Index,
		Schemes:       cfg.Store.Schemes,
		SearchTimeout: cfg.Store.SearchTimeout.String(),
		AttachmentDir: client.AttachmentDir(),
		MinInlineSize: cfg.Attachments.MinInlineSize,
	}
}

func storeStatus(sc *server.ServerContext) (*StoreStatus, error) {
	client := sc.Client()
	status := &StoreStatus{
		IndexAvailable: client.IndexAvailable(),
		AttachmentDir:  client.AttachmentDir(),
		Workspaces:     []Workspace{},
	}

	entries, err := os.ReadDir(status.AttachmentDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to list attachment directory: %w", err)
	}

	var total int64
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ws := Workspace{Name: e.Name()}
		err := filepath.WalkDir(filepath.Join(status.AttachmentDir, e.Name()), func(_ string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			ws.Files++
			ws.SizeBytes += info.Size()
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to measure %s: %w", e.Name(), err)
		}
		total += ws.SizeBytes
		status.Workspaces = append(status.Workspaces, ws)
	}
	status.TotalSize = humanize.Bytes(uint64(total))
	return status, nil
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
