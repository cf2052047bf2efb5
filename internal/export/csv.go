package export

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/election-toolkit/internal/model"
	"github.com/sells-group/election-toolkit/internal/report"
)

// WriteCSV writes one table of every report as CSV with a single header row.
func WriteCSV(w io.Writer, table Table, reports []*report.Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header(table)); err != nil {
		return eris.Wrap(err, "export: write CSV header")
	}
	for _, r := range reports {
		for _, rec := range records(table, r) {
			if err := cw.Write(rec); err != nil {
				return eris.Wrap(err, "export: write CSV row")
			}
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush CSV")
}

func partyLess(a, b string) bool {
	ra, rb := model.PartyRank(a), model.PartyRank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}
