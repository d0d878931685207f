// Package applemail is the entry point to an Apple Mail store.
//
// A Client combines the Envelope Index resolver, the thread assembler, the
// archive and MIME parsers and the attachment extractor behind the
// operations the CLI and the MCP tools expose:
//
//	client := applemail.New(cfg, applemail.WithMetrics(provider.Metrics()))
//	path, err := client.ResolvePath(ctx, "<abc@example.com>")
//	msg, err := client.ReadMessage(ctx, "<abc@example.com>")
//
// Not-found is never an error: ResolvePath returns "", ReadMessage returns
// nil and thread operations return empty slices. Archive and parse failures
// are carried inside MessageResult so a single broken file never fails a
// thread read. Only a missing index (envelope.ErrIndexNotFound), index query
// failures and attachment filesystem errors are returned as errors.
package applemail
