package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/election-toolkit/internal/mapbind"
)

var normalizeLevel string

var normalizeCmd = &cobra.Command{
	Use:   "normalize NAME...",
	Short: "Print the canonical map identifier for geographic names",
	Example: `  tpp normalize --level county "St. Mary's County" "Doña Ana County"
  tpp normalize --level district "PA 7" "Alaska-AL"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, ok := mapbind.ParseLevel(normalizeLevel)
		if !ok {
			return eris.Errorf("normalize: unknown level %q", normalizeLevel)
		}
		for _, name := range args {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, mapbind.Key(level, name)); err != nil {
				return eris.Wrap(err, "normalize: write")
			}
		}
		return nil
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeLevel, "level", "county", "identifier level: state, district, county")
	rootCmd.AddCommand(normalizeCmd)
}
