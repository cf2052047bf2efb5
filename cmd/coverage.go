package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/election-toolkit/internal/mapbind"
)

var (
	coverageFile   string
	coverageKind   string
	coverageState  string
	coverageShapes string
	coverageStrict bool
)

var coverageCmd = &cobra.Command{
	Use:     "coverage",
	Short:   "Check result identifiers against map shapes",
	Long:    "Lists result identifiers with no matching shape (with the nearest shape ID as a suggestion) and shapes that received no color.",
	Example: `  tpp coverage --file results.json --kind president --state PA --shapes tl_2024_us_county.shp`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("report"); err != nil {
			return err
		}
		view, err := buildMapView(cmd, coverageFile, coverageKind, coverageState, coverageShapes)
		if err != nil {
			return err
		}
		if view.Coverage == nil {
			return eris.Errorf("coverage: no shapes configured for the %s level", view.ColorMap.Level)
		}

		if err := writeCoverage(os.Stdout, view.ColorMap.Level, *view.Coverage); err != nil {
			return err
		}
		if coverageStrict && !view.Coverage.Complete() {
			return eris.Errorf("coverage: %d unmatched, %d uncolored", len(view.Coverage.Unmatched), len(view.Coverage.Uncolored))
		}
		return nil
	},
}

func writeCoverage(w io.Writer, level mapbind.Level, cov mapbind.Coverage) error {
	lines := []string{
		fmt.Sprintf("level:     %s", level),
		fmt.Sprintf("matched:   %d", cov.Matched),
		fmt.Sprintf("unmatched: %d", len(cov.Unmatched)),
	}
	for _, m := range cov.Unmatched {
		if m.Suggestion != "" {
			lines = append(lines, fmt.Sprintf("  %-30s did you mean %q? (distance %d)", m.ID, m.Suggestion, m.Distance))
		} else {
			lines = append(lines, "  "+m.ID)
		}
	}
	lines = append(lines, fmt.Sprintf("uncolored: %d", len(cov.Uncolored)))
	for _, id := range cov.Uncolored {
		lines = append(lines, "  "+id)
	}

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return eris.Wrap(err, "coverage: write")
		}
	}
	return nil
}

func init() {
	coverageCmd.Flags().StringVar(&coverageFile, "file", "", "results savefile (JSON)")
	coverageCmd.Flags().StringVar(&coverageKind, "kind", "", "election kind (required when the savefile has several)")
	coverageCmd.Flags().StringVar(&coverageState, "state", "", "check the counties of one state")
	coverageCmd.Flags().StringVar(&coverageShapes, "shapes", "", "shapefile for the map level (overrides config)")
	coverageCmd.Flags().BoolVar(&coverageStrict, "strict", false, "exit with an error unless coverage is complete")
	_ = coverageCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(coverageCmd)
}
