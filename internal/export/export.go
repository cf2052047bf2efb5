// Package export writes reports as text tables, CSV, JSON or XLSX workbooks.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/election-toolkit/internal/rating"
	"github.com/sells-group/election-toolkit/internal/report"
)

// Format is an output format.
type Format string

// Output formats.
const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat resolves a format name; the empty string means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	}
	return "", eris.Errorf("export: unsupported format %q", s)
}

// Table selects which report table a flat format writes.
type Table string

// Report tables.
const (
	TableRatings Table = "ratings"
	TableTotals  Table = "totals"
	TableColors  Table = "colors"
)

// ParseTable resolves a table name; the empty string means ratings.
func ParseTable(s string) (Table, error) {
	switch t := Table(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TableRatings, nil
	case TableRatings, TableTotals, TableColors:
		return t, nil
	}
	return "", eris.Errorf("export: unsupported table %q", s)
}

// Write writes reports to w in the given format. Table is ignored by the JSON
// and XLSX formats, which always carry every table.
func Write(w io.Writer, format Format, table Table, reports []*report.Report) error {
	switch format {
	case FormatTable:
		return WriteTable(w, table, reports)
	case FormatCSV:
		return WriteCSV(w, table, reports)
	case FormatJSON:
		return WriteJSON(w, reports)
	case FormatXLSX:
		return WriteXLSX(w, reports)
	}
	return eris.Errorf("export: unsupported format %q", format)
}

// WriteJSON writes reports as an indented JSON array.
func WriteJSON(w io.Writer, reports []*report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return eris.Wrap(err, "export: encode JSON")
	}
	return nil
}

var (
	ratingsHeader = []string{"kind", "geo_key", "name", "winner", "tier", "label", "margin", "margin_pct", "total_vote", "seats"}
	totalsHeader  = []string{"kind", "geo_key", "party", "candidate", "votes", "pct"}
	colorsHeader  = []string{"kind", "level", "geo_id", "color"}
)

func header(table Table) []string {
	switch table {
	case TableTotals:
		return totalsHeader
	case TableColors:
		return colorsHeader
	}
	return ratingsHeader
}

// records flattens one table of a report into string rows.
func records(table Table, r *report.Report) [][]string {
	kind := string(r.Kind)
	var out [][]string
	switch table {
	case TableTotals:
		for _, row := range r.Rows {
			out = append(out, []string{kind, row.GeoKey, row.Party, row.Candidate,
				formatVotes(row.Votes), formatPct(row.Pct)})
		}
	case TableColors:
		for _, id := range sortedKeys(r.ColorMap.Colors) {
			out = append(out, []string{kind, string(r.ColorMap.Level), id, r.ColorMap.Colors[id]})
		}
	default:
		for _, res := range r.Ratings {
			out = append(out, ratingRecord(kind, res, ""))
		}
		out = append(out, ratingRecord(kind, r.Totals.Result, formatSeats(r.Totals.Seats)))
	}
	return out
}

func ratingRecord(kind string, res rating.Result, seats string) []string {
	return []string{kind, res.GeoKey, res.Name, res.Winner, string(res.Tier), res.Label(),
		formatVotes(res.Margin), formatPct(res.MarginPct), formatVotes(res.TotalVote), seats}
}

// formatSeats renders per-party seats as "D=3 R=2" in party order.
func formatSeats(seats map[string]int) string {
	parties := sortedKeys(seats)
	sort.SliceStable(parties, func(i, j int) bool {
		return partyLess(parties[i], parties[j])
	})
	parts := make([]string, 0, len(parties))
	for _, p := range parties {
		parts = append(parts, fmt.Sprintf("%s=%d", p, seats[p]))
	}
	return strings.Join(parts, " ")
}

func formatVotes(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
