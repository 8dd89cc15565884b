package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

func newLookupCmd() *cobra.Command {
	var (
		taxID  string
		number string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Resolves one company and prints its record as JSON",
		Example: `  registry-scraper lookup --inn 7707083893
  registry-scraper lookup --ogrn 1027700132195 --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				id  registry.Identifier
				err error
			)
			if taxID != "" {
				id, err = registry.ValidateTaxID(taxID)
			} else {
				id, err = registry.ValidateRegistrationNumber(number)
			}
			if err != nil {
				return err
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

			rec, err := app.Service().Company(cmd.Context(), id, force)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", id.Value, err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&taxID, "inn", "", "taxpayer identifier (10 or 12 digits)")
	cmd.Flags().StringVar(&number, "ogrn", "", "state registration number (13 or 15 digits)")
	cmd.Flags().BoolVar(&force, "force", false, "skip the cache read and refresh from upstream")
	cmd.MarkFlagsMutuallyExclusive("inn", "ogrn")
	cmd.MarkFlagsOneRequired("inn", "ogrn")
	return cmd
}
