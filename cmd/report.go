package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/election-toolkit/internal/export"
	"github.com/sells-group/election-toolkit/internal/loader"
	"github.com/sells-group/election-toolkit/internal/report"
)

var (
	reportFile     string
	reportKind     string
	reportFormat   string
	reportTable    string
	reportOutput   string
	reportCounties bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build totals, ratings and color maps from a results savefile",
	Example: `  tpp report --file results.json
  tpp report --file results.json --kind house --format csv --table totals --output house.csv
  tpp report --file results.json --format xlsx --output results.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("report"); err != nil {
			return err
		}

		format, err := export.ParseFormat(firstNonEmpty(reportFormat, cfg.Export.Format))
		if err != nil {
			return err
		}
		table, err := export.ParseTable(firstNonEmpty(reportTable, cfg.Export.Table))
		if err != nil {
			return err
		}
		if format == export.FormatXLSX && reportOutput == "" {
			return eris.New("report: --output is required for xlsx")
		}

		sf, err := loader.LoadFile(reportFile)
		if err != nil {
			return err
		}
		sf, err = selectKind(sf, strings.ToLower(reportKind))
		if err != nil {
			return eris.Wrap(err, "report")
		}

		layers, err := loadShapes(cmd.Context(), cfg.Shapes, cfg.Store)
		if err != nil {
			return err
		}
		opts, err := reportOptions(cfg, layers)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("counties") {
			opts.Counties = reportCounties
		}

		reports, err := report.BuildAll(cmd.Context(), sf, opts)
		if err != nil {
			return err
		}

		w, closeFn, err := openOutput(reportOutput)
		if err != nil {
			return eris.Wrap(err, "report")
		}
		defer closeFn()

		if err := export.Write(w, format, table, reports); err != nil {
			return err
		}

		zap.L().Info("report complete",
			zap.String("file", reportFile),
			zap.Int("reports", len(reports)),
			zap.String("format", string(format)),
		)
		return nil
	},
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	reportCmd.Flags().StringVar(&reportFile, "file", "", "results savefile (JSON)")
	reportCmd.Flags().StringVar(&reportKind, "kind", "", "election kind to report (default all)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "", "output format: table, csv, json, xlsx (default from config)")
	reportCmd.Flags().StringVar(&reportTable, "table", "", "table for table/csv output: ratings, totals, colors (default from config)")
	reportCmd.Flags().StringVar(&reportOutput, "output", "", "output file path (default stdout)")
	reportCmd.Flags().BoolVar(&reportCounties, "counties", true, "include county drill-downs")
	_ = reportCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(reportCmd)
}
