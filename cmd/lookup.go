package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "path <message-id>",
		Short:   "Print the .emlx file of a message",
		Example: `  mailreader path '<abc123@example.com>'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			path, err := client.ResolvePath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if path == "" {
				return fmt.Errorf("no email file found for %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newThreadCmd() *cobra.Command {
	var includeMissing bool

	cmd := &cobra.Command{
		Use:   "thread <message-id>",
		Short: "Print the .emlx files of a conversation, oldest first",
		Long: `Print the .emlx files of every message in the conversation of the given
message, ordered by send date. With --include-missing, messages without a file
are listed as "<message-id>\t-".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			entries, err := client.ResolveThreadPaths(cmd.Context(), args[0], includeMissing)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("no thread found for %s", args[0])
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				switch {
				case !includeMissing:
					fmt.Fprintln(out, e.Path)
				case e.Found():
					fmt.Fprintf(out, "%s\t%s\n", e.MessageID, e.Path)
				default:
					fmt.Fprintf(out, "%s\t-\n", e.MessageID)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeMissing, "include-missing", false, "Also list messages without an email file")
	return cmd
}

func newReadCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "read [message-id]",
		Short: "Print a parsed message as JSON",
		Example: `  mailreader read '<abc123@example.com>'
  mailreader read --file ~/Library/Mail/V10/.../Messages/1234.emlx`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (file == "") == (len(args) == 0) {
				return fmt.Errorf("pass either a message-id or --file")
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}

			if file != "" {
				result := client.ReadFile(cmd.Context(), file)
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if !result.Success {
					return fmt.Errorf("%s", result.Error)
				}
				return nil
			}

			result, err := client.ReadMessage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if result == nil {
				return fmt.Errorf("no email file found for %s", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Parse this .emlx file instead of resolving a Message-ID")
	return cmd
}

func newReadThreadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-thread <message-id>",
		Short: "Print every parsed message of a conversation as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			thread, err := client.ReadThread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if thread.Size() == 0 {
				return fmt.Errorf("no thread found for %s", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), thread)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
