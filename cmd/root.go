package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/mailreader/internal/applemail"
	"github.com/teemow/mailreader/internal/config"
	"github.com/teemow/mailreader/internal/envelope"
	"github.com/teemow/mailreader/internal/logging"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI and the MCP server.
func SetVersion(v string) {
	version = v
}

// newRootCmd builds the command tree. Each call returns an independent tree
// so tests can execute commands with their own flags.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mailreader",
		Short: "Read the Apple Mail store by Message-ID",
		Long: `mailreader resolves RFC Message-IDs to the .emlx files of the local Apple Mail
store through Mail's Envelope Index, parses them and extracts attachments.

It can run as:
  - A CLI for single lookups (path, thread, read, read-thread, extract, cleanup)
  - An MCP (Model Context Protocol) server for AI assistants (serve)

The process needs read access to ~/Library/Mail (Full Disk Access on macOS).`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			debug, _ := cmd.Flags().GetBool("debug")
			setupLogging(debug)
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "mailreader version %s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.String(config.FlagConfig, "", "Config file (default: ~/.config/mailreader/config.yaml)")
	flags.String(config.FlagStoreRoot, "", "Mail store root, e.g. ~/Library/Mail/V10. Can also use MAIL_STORE_ROOT env var.")
	flags.String(config.FlagIndexPath, "", "Envelope Index path (default: <store-root>/MailData/Envelope Index). Can also use MAIL_INDEX_PATH env var.")
	flags.String(config.FlagAttachmentPath, "", "Parent directory of the attachment working directory (default: /tmp). Can also use MAIL_ATTACHMENT_PATH env var.")
	flags.Duration(config.FlagSearchTimeout, envelope.DefaultSearchTimeout, "Upper bound for the archive file search. Can also use MAIL_SEARCH_TIMEOUT env var.")
	flags.Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPathCmd())
	rootCmd.AddCommand(newThreadCmd())
	rootCmd.AddCommand(newReadCmd())
	rootCmd.AddCommand(newReadThreadCmd())
	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute is the main entry point for the CLI application
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging routes slog to stderr; stdout belongs to command output and
// the stdio transport.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig merges the config file, environment and the command's flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(config.FlagConfig)
	return config.Load(path, cmd.Flags())
}

// newClient builds a mail store client from the command's configuration.
func newClient(cmd *cobra.Command, opts ...applemail.Option) (*applemail.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts = append([]applemail.Option{applemail.WithLogger(logging.DefaultLogger())}, opts...)
	return applemail.New(cfg, opts...), nil
}
