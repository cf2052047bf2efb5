package export

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/election-toolkit/internal/rating"
	"github.com/sells-group/election-toolkit/internal/report"
)

// maxSheetName is the longest sheet name Excel accepts.
const maxSheetName = 31

// WriteXLSX writes a workbook with totals, ratings and colors sheets for every
// report, plus a counties sheet when the report has a county drill-down.
func WriteXLSX(w io.Writer, reports []*report.Report) error {
	f, err := BuildWorkbook(reports)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write workbook")
	}
	return nil
}

// BuildWorkbook assembles the workbook written by WriteXLSX.
func BuildWorkbook(reports []*report.Report) (*xlsx.File, error) {
	f := xlsx.NewFile()
	for _, r := range reports {
		if err := addTotalsSheet(f, r); err != nil {
			return nil, err
		}
		if err := addRatingsSheet(f, r); err != nil {
			return nil, err
		}
		if err := addColorsSheet(f, r); err != nil {
			return nil, err
		}
		if len(r.Counties) > 0 {
			if err := addCountiesSheet(f, r); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func addSheet(f *xlsx.File, r *report.Report, table string, hdr []string) (*xlsx.Sheet, error) {
	name := fmt.Sprintf("%s %s", r.Kind, table)
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	sheet, err := f.AddSheet(name)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: add sheet %q", name)
	}
	row := sheet.AddRow()
	for _, h := range hdr {
		row.AddCell().SetString(h)
	}
	return sheet, nil
}

func addTotalsSheet(f *xlsx.File, r *report.Report) error {
	sheet, err := addSheet(f, r, "totals", totalsHeader[1:])
	if err != nil {
		return err
	}
	for _, t := range r.Rows {
		row := sheet.AddRow()
		row.AddCell().SetString(t.GeoKey)
		row.AddCell().SetString(t.Party)
		row.AddCell().SetString(t.Candidate)
		row.AddCell().SetFloat(t.Votes)
		row.AddCell().SetFloat(t.Pct)
	}
	return nil
}

func addRatingsSheet(f *xlsx.File, r *report.Report) error {
	sheet, err := addSheet(f, r, "ratings", ratingsHeader[1:])
	if err != nil {
		return err
	}
	for _, res := range r.Ratings {
		addRatingRow(sheet, "", res, "")
	}
	addRatingRow(sheet, "", r.Totals.Result, formatSeats(r.Totals.Seats))
	return nil
}

func addCountiesSheet(f *xlsx.File, r *report.Report) error {
	sheet, err := addSheet(f, r, "counties", append([]string{"state"}, ratingsHeader[1:]...))
	if err != nil {
		return err
	}
	for _, c := range r.Counties {
		for _, res := range c.Ratings {
			addRatingRow(sheet, c.State, res, "")
		}
		addRatingRow(sheet, c.State, c.Totals.Result, formatSeats(c.Totals.Seats))
	}
	return nil
}

func addRatingRow(sheet *xlsx.Sheet, state string, res rating.Result, seats string) {
	row := sheet.AddRow()
	if state != "" {
		row.AddCell().SetString(state)
	}
	row.AddCell().SetString(res.GeoKey)
	row.AddCell().SetString(res.Name)
	row.AddCell().SetString(res.Winner)
	row.AddCell().SetString(string(res.Tier))
	row.AddCell().SetString(res.Label())
	row.AddCell().SetFloat(res.Margin)
	row.AddCell().SetFloat(res.MarginPct)
	row.AddCell().SetFloat(res.TotalVote)
	row.AddCell().SetString(seats)
}

func addColorsSheet(f *xlsx.File, r *report.Report) error {
	sheet, err := addSheet(f, r, "colors", colorsHeader[1:])
	if err != nil {
		return err
	}
	for _, id := range sortedKeys(r.ColorMap.Colors) {
		row := sheet.AddRow()
		row.AddCell().SetString(string(r.ColorMap.Level))
		row.AddCell().SetString(id)
		row.AddCell().SetString(r.ColorMap.Colors[id])
	}
	for _, id := range r.ColorMap.Unmatched {
		row := sheet.AddRow()
		row.AddCell().SetString(string(r.ColorMap.Level))
		row.AddCell().SetString(id)
		row.AddCell().SetString("unmatched")
	}
	return nil
}
