package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCleanupCmd() *cobra.Command {
	var baseDir string

	cmd := &cobra.Command{
		Use:   "cleanup <message-id>...",
		Short: "Remove extracted attachments",
		Long: `Remove the working directories that extract created for the given messages.
Message-IDs without a working directory are reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}

			result, err := client.CleanupAttachments(cmd.Context(), args, baseDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Base directory: %s\n", result.BaseDir)
			for _, c := range result.Cleaned {
				fmt.Fprintf(out, "  removed %s (%d files, %s)\n",
					c.Path, c.FilesRemoved, humanize.Bytes(uint64(c.SizeFreed)))
			}
			for _, id := range result.NotFound {
				fmt.Fprintf(out, "  not found %s\n", id)
			}
			if result.Note != "" {
				fmt.Fprintln(out, result.Note)
			}
			fmt.Fprintf(out, "Freed %s in %d files\n",
				humanize.Bytes(uint64(result.TotalBytes())), result.TotalFiles())
			return nil
		},
	}

	cmd.Flags().StringVar(&baseDir, "base-dir", "", "Base directory override")
	return cmd
}
