package cmd

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Lists companies matching a free-text query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if utf8.RuneCountInString(query) < 2 {
				return &registry.ValidationError{Field: "query", Value: query, Reason: "must be at least 2 characters"}
			}

			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}
			app, err := newApp(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer app.Close()

			results, err := app.Service().Search(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("search %q: %w", query, err)
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no companies found")
				return nil
			}
			renderResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
}

func renderResults(w io.Writer, results []registry.SearchResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Tax ID", "Name", "Registration", "Status", "CEO", "Address"})
	for _, r := range results {
		t.AppendRow(table.Row{r.TaxID, r.Name, r.RegistrationNumber, r.Status, r.CEOName, r.Address})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(results)})
	t.Render()
}
