package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS shape_downloads (
	source     TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	bytes      INTEGER NOT NULL DEFAULT 0,
	fetched_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_shape_downloads_fetched_at ON shape_downloads(fetched_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordDownload(ctx context.Context, d Download) error {
	if err := checkDownload(d); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shape_downloads (source, path, bytes, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(source) DO UPDATE SET path = excluded.path, bytes = excluded.bytes, fetched_at = excluded.fetched_at`,
		d.Source, d.Path, d.Bytes, d.FetchedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: record download %s", d.Source)
}

func (s *SQLiteStore) GetDownload(ctx context.Context, source string) (*Download, error) {
	var d Download
	err := s.db.QueryRowContext(ctx,
		`SELECT source, path, bytes, fetched_at FROM shape_downloads WHERE source = ?`,
		source,
	).Scan(&d.Source, &d.Path, &d.Bytes, &d.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get download %s", source)
	}
	return &d, nil
}

func (s *SQLiteStore) ListDownloads(ctx context.Context, filter ListFilter) ([]Download, error) {
	query := `SELECT source, path, bytes, fetched_at FROM shape_downloads ORDER BY fetched_at DESC, source LIMIT ?`
	args := []any{listLimit(filter)}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list downloads")
	}
	return scanDownloads(rows)
}

func (s *SQLiteStore) StaleDownloads(ctx context.Context, before time.Time) ([]Download, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, path, bytes, fetched_at FROM shape_downloads WHERE fetched_at < ? ORDER BY fetched_at, source`,
		before.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stale downloads")
	}
	return scanDownloads(rows)
}

func (s *SQLiteStore) DeleteDownload(ctx context.Context, source string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shape_downloads WHERE source = ?`, source)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete download %s", source)
	}
	return checkRowsAffected(res, "download", source)
}

func scanDownloads(rows *sql.Rows) ([]Download, error) {
	defer rows.Close() //nolint:errcheck

	var out []Download
	for rows.Next() {
		var d Download
		if err := rows.Scan(&d.Source, &d.Path, &d.Bytes, &d.FetchedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan download")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate downloads")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
