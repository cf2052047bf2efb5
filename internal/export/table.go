package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/election-toolkit/internal/report"
)

// WriteTable writes one table of every report as aligned text, one block per
// report.
func WriteTable(w io.Writer, table Table, reports []*report.Report) error {
	for i, r := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return eris.Wrap(err, "export: write table")
			}
		}
		if err := writeBlock(w, table, r); err != nil {
			return err
		}
	}
	return nil
}

func writeBlock(w io.Writer, table Table, r *report.Report) error {
	hdr := header(table)[1:]
	rows := records(table, r)

	widths := make([]int, len(hdr))
	for j, h := range hdr {
		widths[j] = len(h)
	}
	for _, rec := range rows {
		for j, cell := range rec[1:] {
			widths[j] = max(widths[j], len(cell))
		}
	}

	if _, err := fmt.Fprintf(w, "== %s (%s) ==\n", r.Kind, table); err != nil {
		return eris.Wrap(err, "export: write table title")
	}
	if err := writeLine(w, hdr, widths); err != nil {
		return err
	}
	total := 2 * (len(widths) - 1)
	for _, wd := range widths {
		total += wd
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", total)); err != nil {
		return eris.Wrap(err, "export: write table separator")
	}
	for _, rec := range rows {
		if err := writeLine(w, rec[1:], widths); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w io.Writer, cells []string, widths []int) error {
	parts := make([]string, len(cells))
	for j, c := range cells {
		parts[j] = fmt.Sprintf("%-*s", widths[j], c)
	}
	if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " ")); err != nil {
		return eris.Wrap(err, "export: write table row")
	}
	return nil
}
