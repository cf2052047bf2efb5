package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool. It lets several servers that
// share one cache volume share the catalog too.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS shape_downloads (
	source     TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	bytes      BIGINT NOT NULL DEFAULT 0,
	fetched_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_shape_downloads_fetched_at ON shape_downloads(fetched_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) RecordDownload(ctx context.Context, d Download) error {
	if err := checkDownload(d); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO shape_downloads (source, path, bytes, fetched_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (source) DO UPDATE SET path = EXCLUDED.path, bytes = EXCLUDED.bytes, fetched_at = EXCLUDED.fetched_at`,
		d.Source, d.Path, d.Bytes, d.FetchedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: record download %s", d.Source)
}

func (s *PostgresStore) GetDownload(ctx context.Context, source string) (*Download, error) {
	var d Download
	err := s.pool.QueryRow(ctx,
		`SELECT source, path, bytes, fetched_at FROM shape_downloads WHERE source = $1`,
		source,
	).Scan(&d.Source, &d.Path, &d.Bytes, &d.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get download %s", source)
	}
	return &d, nil
}

func (s *PostgresStore) ListDownloads(ctx context.Context, filter ListFilter) ([]Download, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT source, path, bytes, fetched_at FROM shape_downloads
		 ORDER BY fetched_at DESC, source LIMIT $1 OFFSET $2`,
		listLimit(filter), max(filter.Offset, 0),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list downloads")
	}
	return collectDownloads(rows)
}

func (s *PostgresStore) StaleDownloads(ctx context.Context, before time.Time) ([]Download, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT source, path, bytes, fetched_at FROM shape_downloads
		 WHERE fetched_at < $1 ORDER BY fetched_at, source`,
		before.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stale downloads")
	}
	return collectDownloads(rows)
}

func (s *PostgresStore) DeleteDownload(ctx context.Context, source string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM shape_downloads WHERE source = $1`, source)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete download %s", source)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("download not found: %s", source)
	}
	return nil
}

func collectDownloads(rows pgx.Rows) ([]Download, error) {
	defer rows.Close()

	var out []Download
	for rows.Next() {
		var d Download
		if err := rows.Scan(&d.Source, &d.Path, &d.Bytes, &d.FetchedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan download")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate downloads")
}
