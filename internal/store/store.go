// Package store keeps the catalog of downloaded shape archives: which remote
// source was fetched, where it lives in the cache and when it was fetched.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Download is one cached copy of a remote shape archive.
type Download struct {
	Source    string    `json:"source"`
	Path      string    `json:"path"`
	Bytes     int64     `json:"bytes"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Age returns how long ago the archive was fetched.
func (d Download) Age(now time.Time) time.Duration {
	return now.Sub(d.FetchedAt)
}

// ListFilter pages through the catalog.
type ListFilter struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Store defines the persistence interface for the download catalog.
type Store interface {
	// RecordDownload inserts or replaces the entry for d.Source.
	RecordDownload(ctx context.Context, d Download) error
	// GetDownload returns nil, nil when the source was never recorded.
	GetDownload(ctx context.Context, source string) (*Download, error)
	ListDownloads(ctx context.Context, filter ListFilter) ([]Download, error)
	// StaleDownloads lists entries fetched before the cutoff, oldest first.
	StaleDownloads(ctx context.Context, before time.Time) ([]Download, error)
	DeleteDownload(ctx context.Context, source string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the catalog named by dsn: postgres:// and postgresql://
// URLs use Postgres, anything else is a SQLite file path.
func Open(ctx context.Context, dsn string, poolCfg *PoolConfig) (Store, error) {
	if dsn == "" {
		return nil, eris.New("store: empty dsn")
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return NewPostgres(ctx, dsn, poolCfg)
	}
	return NewSQLite(dsn)
}

const defaultListLimit = 100

func listLimit(f ListFilter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

func checkDownload(d Download) error {
	if d.Source == "" || d.Path == "" {
		return eris.New("store: download needs a source and a path")
	}
	return nil
}
