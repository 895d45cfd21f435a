package cli

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// labelFields are tried in order to name a record in listings.
var labelFields = []string{"title", "fullname", "name", "user_name"}

func recordLabel(rec map[string]any) string {
	for _, f := range labelFields {
		if s, ok := rec[f].(string); ok && s != "" {
			return s
		}
	}
	return "-"
}

func newListCmd() *cobra.Command {
	var opts ListOptions

	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List one page of a catalog kind",
		Long: "List movies, series, seasons, episodes, actors, crew, genres or users.\n" +
			"--sort takes a field of the kind (for example title or releaseYear).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			resp, err := client.List(kind, opts)
			if err != nil {
				return fmt.Errorf("list %s: %w", kind, err)
			}

			var data []map[string]any
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(data) == 0 {
				fmt.Fprintf(out, "No %s found.\n", kind)
			} else {
				fmt.Fprintf(out, "%-44s  %-40s  %s\n", "ID", "NAME", "CREATED")
				fmt.Fprintf(out, "%-44s  %-40s  %s\n", "--", "----", "-------")
				for _, rec := range data {
					id, _ := rec["id"].(string)
					createdAt, _ := rec["created_at"].(string)
					fmt.Fprintf(out, "%-44s  %-40s  %s\n", id, recordLabel(rec), createdAt)
				}
			}

			if pg := resp.Pagination; pg != nil {
				fmt.Fprintf(out, "\nPage %d of %d (%d total)\n", pg.Page, pg.PageCount, pg.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 0, "Page number (1-based)")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "Rows per page (server default if omitted)")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "Sort field")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "Sort descending")
	cmd.Flags().StringVar(&opts.Search, "search", "", "Case-insensitive substring filter on the kind's search field")
	return cmd
}
