package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/election-toolkit/internal/shapes"
	"github.com/sells-group/election-toolkit/internal/store"
)

var (
	shapesListLimit  int
	shapesListOffset int
	shapesOlderThan  time.Duration
)

var shapesCmd = &cobra.Command{
	Use:   "shapes",
	Short: "Manage the shape download cache",
	Long:  "Lists, pre-fetches and prunes the remote shapefile archives cached under shapes.cache_dir.",
}

var shapesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached shape downloads, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		catalog, err := openCatalog(ctx, cfg.Shapes, cfg.Store)
		if err != nil {
			return err
		}
		defer catalog.Close() //nolint:errcheck

		downloads, err := catalog.ListDownloads(ctx, store.ListFilter{Limit: shapesListLimit, Offset: shapesListOffset})
		if err != nil {
			return err
		}
		return writeDownloads(cmd.OutOrStdout(), downloads, time.Now())
	},
}

var shapesFetchCmd = &cobra.Command{
	Use:   "fetch [URL...]",
	Short: "Download shape archives into the cache",
	Long:  "Downloads each URL (or every remote source in the shapes config) unless a fresh copy is already cached, and prints the extracted .shp path.",
	Example: `  tpp shapes fetch
  tpp shapes fetch https://www2.census.gov/geo/tiger/TIGER2024/COUNTY/tl_2024_us_county.zip`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sources := args
		if len(sources) == 0 {
			for _, s := range []string{cfg.Shapes.State, cfg.Shapes.District, cfg.Shapes.County} {
				if anyRemote(s) {
					sources = append(sources, s)
				}
			}
		}
		if len(sources) == 0 {
			return eris.New("shapes fetch: no URLs given and no remote sources configured")
		}

		ctx := cmd.Context()
		catalog, err := openCatalog(ctx, cfg.Shapes, cfg.Store)
		if err != nil {
			return err
		}
		defer catalog.Close() //nolint:errcheck

		f := newShapeFetcher(cfg.Shapes)
		opts := shapes.ResolveOptions{CacheDir: cfg.Shapes.CacheDir, Catalog: catalog, MaxAge: cfg.Shapes.MaxAge}
		for _, source := range sources {
			if !anyRemote(source) {
				return eris.Errorf("shapes fetch: %s is not an http(s) URL", source)
			}
			path, err := shapes.Resolve(ctx, f, source, opts)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", source, path); err != nil {
				return eris.Wrap(err, "shapes fetch: write")
			}
		}
		return nil
	},
}

var shapesPruneCmd = &cobra.Command{
	Use:     "prune",
	Short:   "Delete cached downloads older than a cutoff",
	Example: `  tpp shapes prune --older-than 720h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		age := shapesOlderThan
		if age <= 0 {
			age = cfg.Shapes.MaxAge
		}
		if age <= 0 {
			return eris.New("shapes prune: set --older-than or shapes.max_age")
		}

		ctx := cmd.Context()
		catalog, err := openCatalog(ctx, cfg.Shapes, cfg.Store)
		if err != nil {
			return err
		}
		defer catalog.Close() //nolint:errcheck

		stale, err := catalog.StaleDownloads(ctx, time.Now().Add(-age))
		if err != nil {
			return err
		}

		var freed int64
		for _, d := range stale {
			if err := shapes.Evict(d); err != nil {
				return err
			}
			if err := catalog.DeleteDownload(ctx, d.Source); err != nil {
				return err
			}
			freed += d.Bytes
			zap.L().Info("shapes: pruned download",
				zap.String("source", d.Source),
				zap.Time("fetched_at", d.FetchedAt),
			)
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "pruned %d downloads (%s)\n", len(stale), humanize.Bytes(uint64(max(freed, 0))))
		return eris.Wrap(err, "shapes prune: write")
	},
}

func writeDownloads(w io.Writer, downloads []store.Download, now time.Time) error {
	if len(downloads) == 0 {
		_, err := fmt.Fprintln(w, "no cached downloads")
		return eris.Wrap(err, "shapes list: write")
	}
	for _, d := range downloads {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			d.Source,
			humanize.Bytes(uint64(max(d.Bytes, 0))),
			humanize.RelTime(d.FetchedAt, now, "ago", "from now"),
			d.Path,
		)
		if err != nil {
			return eris.Wrap(err, "shapes list: write")
		}
	}
	return nil
}

func init() {
	shapesListCmd.Flags().IntVar(&shapesListLimit, "limit", 0, "maximum entries to list (default 100)")
	shapesListCmd.Flags().IntVar(&shapesListOffset, "offset", 0, "entries to skip")
	shapesPruneCmd.Flags().DurationVar(&shapesOlderThan, "older-than", 0, "prune downloads fetched longer ago (default shapes.max_age)")

	shapesCmd.AddCommand(shapesListCmd, shapesFetchCmd, shapesPruneCmd)
	rootCmd.AddCommand(shapesCmd)
}
