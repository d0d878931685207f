package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	var (
		messageID string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "extract <emlx-file> <filename>...",
		Short: "Extract named attachments of an email file",
		Long: `Extract the named attachments of an .emlx file into
<attachment-path>/mail-mcp-attachments/<message-id>/.

Attachments that Mail keeps outside the .emlx file are read from the
mailbox's Attachments folder.`,
		Example: `  mailreader extract ~/Library/Mail/V10/.../Messages/1234.emlx report.pdf --message-id '<abc@example.com>'`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}

			result, err := client.ExtractAttachments(cmd.Context(), args[0], messageID, args[1:], outputDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Message directory: %s\n", result.MessageDir)
			for _, x := range result.Extracted {
				fmt.Fprintf(out, "  extracted %s (%s, %s, %s)\n",
					x.Path, x.MIMEType, humanize.Bytes(uint64(x.SizeBytes)), x.Source)
			}
			for _, name := range result.NotFound {
				fmt.Fprintf(out, "  not found %s\n", name)
			}
			if len(result.Extracted) == 0 {
				return fmt.Errorf("none of the requested attachments were found")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&messageID, "message-id", "", "RFC Message-ID of the email, names the working directory")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Base directory override")
	_ = cmd.MarkFlagRequired("message-id")
	return cmd
}
