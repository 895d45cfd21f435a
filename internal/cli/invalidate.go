package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInvalidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <tag>",
		Short: "Drop cached lists for a tag (admin)",
		Long:  "Drop cached lists for a tag on every instance. Tags are kind names plus \"reviews\".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := args[0]
			if _, err := client.Post("/api/v1/admin/cache/invalidate", map[string]string{"tag": tag}); err != nil {
				return fmt.Errorf("invalidate %s: %w", tag, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invalidated cache tag %q.\n", tag)
			return nil
		},
	}
}
