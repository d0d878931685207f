package applemail

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/mailreader/internal/attachments"
	"github.com/teemow/mailreader/internal/config"
	"github.com/teemow/mailreader/internal/emlx"
	"github.com/teemow/mailreader/internal/envelope"
	"github.com/teemow/mailreader/internal/instrumentation"
	"github.com/teemow/mailreader/internal/logging"
	"github.com/teemow/mailreader/internal/message"
)

// Client reads one mail store. It holds no per-call state and is safe for
// concurrent use; every call opens its own index connection.
type Client struct {
	cfg       *config.Config
	fs        afero.Fs
	index     *envelope.Index
	resolver  *envelope.Resolver
	threads   *envelope.Threads
	extractor *attachments.Extractor
	metrics   *instrumentation.Metrics
	logger    logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithFs replaces the filesystem used for archives and attachments.
// The index is always opened from the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(c *Client) { c.fs = fs }
}

// WithMetrics records store operations on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger passed down to the resolver and extractor.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client for the store described by cfg.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		logger: logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.index = envelope.NewIndex(cfg.Store.Index)

	c.resolver = envelope.NewResolver(c.index, cfg.Store.Root)
	c.resolver.Fs = c.fs
	c.resolver.Schemes = cfg.Store.Schemes
	c.resolver.SearchTimeout = cfg.Store.SearchTimeout
	c.resolver.Logger = c.logger

	c.threads = envelope.NewThreads(c.resolver)

	c.extractor = attachments.NewExtractor(cfg.AttachmentDir())
	c.extractor.Fs = c.fs
	c.extractor.MinInlineSize = cfg.Attachments.MinInlineSize
	c.extractor.Logger = c.logger

	return c
}

// Config returns the configuration the client was built from.
func (c *Client) Config() *config.Config {
	return c.cfg
}

// AttachmentDir is the default base directory for extracted attachments.
func (c *Client) AttachmentDir() string {
	return c.cfg.AttachmentDir()
}

// IndexAvailable reports whether the Envelope Index file is present.
func (c *Client) IndexAvailable() bool {
	return c.index.Exists()
}

// ResolvePath returns the archive file of the message, or "" when it cannot
// be found. A missing index is returned as envelope.ErrIndexNotFound.
func (c *Client) ResolvePath(ctx context.Context, messageID string) (string, error) {
	ctx, done := c.track(ctx, instrumentation.ComponentIndex, instrumentation.OperationResolvePath, messageIDAttrs(messageID)...)

	path, err := c.resolver.ResolvePath(ctx, messageID)
	done(found(path != ""), err)
	return path, err
}

// ResolveThreadPaths returns the conversation of the message in send order.
// With includeMissing, messages without an archive file are kept as entries
// with an empty path.
func (c *Client) ResolveThreadPaths(ctx context.Context, messageID string, includeMissing bool) ([]envelope.ThreadEntry, error) {
	ctx, done := c.track(ctx, instrumentation.ComponentIndex, instrumentation.OperationThread, messageIDAttrs(messageID)...)

	entries, err := c.threads.Entries(ctx, messageID, includeMissing)
	done(found(len(entries) > 0), err)
	return entries, err
}

// ReadMessage resolves and parses a message. The result is nil when the
// message cannot be found; parse failures are reported inside the result.
func (c *Client) ReadMessage(ctx context.Context, messageID string) (*MessageResult, error) {
	path, err := c.ResolvePath(ctx, messageID)
	if err != nil || path == "" {
		return nil, err
	}
	return c.ReadFile(ctx, path), nil
}

// ReadThread parses every message of the conversation that has an archive
// file, in send order. Each entry carries either a message or its failure.
func (c *Client) ReadThread(ctx context.Context, messageID string) (*ThreadResult, error) {
	entries, err := c.ResolveThreadPaths(ctx, messageID, false)
	if err != nil {
		return nil, err
	}

	ctx, done := c.track(ctx, instrumentation.ComponentArchive, instrumentation.OperationReadThread,
		instrumentation.NewSpanAttributeBuilder().WithCount(len(entries)).Build()...)

	result := &ThreadResult{
		MessageID: envelope.NormalizeMessageID(messageID),
		Messages:  make([]*MessageResult, 0, len(entries)),
	}
	for _, e := range entries {
		result.Messages = append(result.Messages, c.ReadFile(ctx, e.Path))
	}

	done(found(len(entries) > 0), nil)
	return result, nil
}

// ReadFile parses the archive at path. It never fails: a missing file,
// broken framing or an unparsable message is reported in the result.
func (c *Client) ReadFile(ctx context.Context, path string) *MessageResult {
	_, done := c.track(ctx, instrumentation.ComponentArchive, instrumentation.OperationReadMessage)

	result := c.readFile(path)
	status := instrumentation.StatusSuccess
	if !result.Success {
		status = instrumentation.StatusError
		c.logger.Warn("failed to read archive", logging.Path(path), logging.KeyError, result.Error)
	}
	done(status, nil)
	return result
}

func (c *Client) readFile(path string) *MessageResult {
	if ok, _ := afero.Exists(c.fs, path); !ok {
		return failed(path, fmt.Sprintf("file not found: %s", path))
	}

	archive, err := emlx.ReadFile(c.fs, path)
	if err != nil {
		return failed(path, err.Error())
	}

	parsed, err := message.Parse(archive.Message)
	if err != nil {
		return failed(path, fmt.Sprintf("parsing message: %v", err))
	}

	return &MessageResult{
		Success:  true,
		Parsed:   parsed,
		FilePath: path,
		Metadata: archive.Metadata,
	}
}

// ExtractAttachments writes the named attachments of the archive at path
// into the working directory of messageID below baseDir, or below
// AttachmentDir when baseDir is empty.
func (c *Client) ExtractAttachments(ctx context.Context, path, messageID string, filenames []string, baseDir string) (*attachments.Extraction, error) {
	ctx, done := c.track(ctx, instrumentation.ComponentAttachments, instrumentation.OperationExtract,
		instrumentation.NewSpanAttributeBuilder().
			WithMessageID(logging.AnonymizeMessageID(messageID)).
			WithCount(len(filenames)).
			Build()...)

	result, err := c.extractor.Extract(ctx, path, messageID, filenames, baseDir)
	if err != nil {
		done(instrumentation.StatusError, err)
		return nil, err
	}

	for _, x := range result.Extracted {
		c.metrics.RecordAttachmentExtracted(ctx, x.Source, x.MIMEType, int64(x.SizeBytes))
	}
	done(found(len(result.Extracted) > 0), nil)
	return result, nil
}

// CleanupAttachments removes the working directories of the given messages
// below baseDir, or below AttachmentDir when baseDir is empty.
func (c *Client) CleanupAttachments(ctx context.Context, messageIDs []string, baseDir string) (*attachments.CleanupResult, error) {
	ctx, done := c.track(ctx, instrumentation.ComponentAttachments, instrumentation.OperationCleanup,
		instrumentation.NewSpanAttributeBuilder().WithCount(len(messageIDs)).Build()...)

	result, err := c.extractor.Cleanup(ctx, messageIDs, baseDir)
	if err != nil {
		done(instrumentation.StatusError, err)
		return nil, err
	}
	done(found(len(result.Cleaned) > 0), nil)
	return result, nil
}

// track starts a store span. The returned func ends it and records the
// operation metric; a non-nil error forces StatusError.
func (c *Client) track(ctx context.Context, component, operation string, attrs ...attribute.KeyValue) (context.Context, func(status string, err error)) {
	start := time.Now()
	ctx, span := instrumentation.StartStoreSpan(ctx, component, operation, attrs...)

	return ctx, func(status string, err error) {
		if err != nil {
			status = instrumentation.StatusError
		}
		instrumentation.SetSpanStatus(span, status, err)
		span.End()
		c.metrics.RecordStoreOperation(ctx, component, operation, status, time.Since(start))
	}
}

func found(ok bool) string {
	if ok {
		return instrumentation.StatusSuccess
	}
	return instrumentation.StatusNotFound
}

func messageIDAttrs(id string) []attribute.KeyValue {
	return instrumentation.NewSpanAttributeBuilder().
		WithMessageID(logging.AnonymizeMessageID(envelope.NormalizeMessageID(id))).
		Build()
}
