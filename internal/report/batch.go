package report

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/election-toolkit/internal/model"
)

// BuildAll builds one report per election kind in the savefile, concurrently.
// Each pass owns its accumulators; only the read-only Options are shared.
// Reports come back in Savefile.Kinds order.
func BuildAll(ctx context.Context, sf *model.Savefile, opts Options) ([]*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, eris.Wrap(err, "report: invalid options")
	}

	kinds := sf.Kinds()
	reports := make([]*Report, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "report: cancelled")
			}
			rep, err := Build(kind, sf.Elections[kind], opts)
			if err != nil {
				return err
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Select returns the report for an election kind.
func Select(reports []*Report, kind model.ElectionKind) (*Report, bool) {
	for _, r := range reports {
		if r.Kind == kind {
			return r, true
		}
	}
	return nil, false
}
