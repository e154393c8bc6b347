package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/windcost/internal/model"
	"github.com/sells-group/windcost/internal/refdata"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Inspect the country reference tables",
}

var tablesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report which reference lookups succeed for a country",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("tables"); err != nil {
			return err
		}
		code, _ := cmd.Flags().GetString("country")
		country, err := model.ParseCountry(code)
		if err != nil {
			return err
		}

		httpF, ftpF := newFetchers(cfg)
		tables, err := loadTables(ctx, cfg, refdata.Opener{HTTP: httpF, FTP: ftpF})
		if err != nil {
			return err
		}

		missing := formatCoverage(os.Stdout, tables.Coverage(country))
		if missing > 0 {
			fmt.Fprintf(os.Stderr, "%d lookup(s) for %s will fall back or fail.\n", missing, country)
		}
		return nil
	},
}

func init() {
	tablesCheckCmd.Flags().String("country", "USA", "ISO 3166-1 alpha-3 country code")
	tablesCmd.AddCommand(tablesCheckCmd)
	rootCmd.AddCommand(tablesCmd)
}

// formatCoverage writes one line per table and returns the number of
// unavailable lookups.
func formatCoverage(out io.Writer, lines []refdata.CoverageLine) int {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TABLE\tKEY\tSTATUS\tDETAIL")
	_, _ = fmt.Fprintln(w, "-----\t---\t------\t------")

	missing := 0
	for _, l := range lines {
		status := "ok"
		if !l.Available {
			status = "missing"
			missing++
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.Table, l.Key, status, l.Detail)
	}
	_ = w.Flush()
	return missing
}
