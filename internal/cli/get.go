package cli

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <id>",
		Short: "Show one catalog record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, id := args[0], args[1]

			resp, err := client.Get("/api/v1/" + url.PathEscape(kind) + "/" + url.PathEscape(id))
			if err != nil {
				return fmt.Errorf("get %s %s: %w", kind, id, err)
			}

			var buf bytes.Buffer
			if err := json.Indent(&buf, resp.Data, "", "  "); err != nil {
				return fmt.Errorf("format response: %w", err)
			}
			buf.WriteByte('\n')
			_, err = buf.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}
