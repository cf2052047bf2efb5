package shapes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/election-toolkit/internal/fetcher"
	"github.com/sells-group/election-toolkit/internal/store"
)

// Catalog records when each remote source was fetched. store.Store satisfies it.
type Catalog interface {
	GetDownload(ctx context.Context, source string) (*store.Download, error)
	RecordDownload(ctx context.Context, d store.Download) error
}

// ResolveOptions configures Resolve.
type ResolveOptions struct {
	// CacheDir receives remote downloads and their extracted layers.
	CacheDir string
	// Catalog, when set, tracks fetch times so MaxAge can expire downloads.
	Catalog Catalog
	// MaxAge re-downloads cataloged sources older than this. Zero keeps them forever.
	MaxAge time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o ResolveOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Resolve turns a shape source into a local .shp path. Sources may be a .shp
// file, a .zip archive holding one, or an http(s) URL to either. Remote files
// are cached in opts.CacheDir and reused on later calls while fresh.
func Resolve(ctx context.Context, f fetcher.Fetcher, source string, opts ResolveOptions) (string, error) {
	log := zap.L().With(
		zap.String("component", "shapes.resolve"),
		zap.String("source", source),
	)

	local := source
	if isRemote(source) {
		var err error
		local, err = CachePath(source, opts.CacheDir)
		if err != nil {
			return "", err
		}
		if f == nil {
			return "", eris.Errorf("shapes: no fetcher for remote source %s", source)
		}
		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return "", eris.Wrap(err, "shapes: create cache dir")
		}

		if opts.fresh(ctx, log, source, local) {
			log.Debug("shapes: cached download found", zap.String("path", local))
		} else {
			log.Info("shapes: downloading")
			n, err := f.DownloadToFile(ctx, source, local)
			if err != nil {
				return "", eris.Wrapf(err, "shapes: download %s", source)
			}
			if opts.Catalog != nil {
				d := store.Download{Source: source, Path: local, Bytes: n, FetchedAt: opts.now().UTC()}
				if err := opts.Catalog.RecordDownload(ctx, d); err != nil {
					log.Warn("shapes: catalog record failed", zap.Error(err))
				}
			}
		}
	}

	switch strings.ToLower(filepath.Ext(local)) {
	case ".shp":
		if _, err := os.Stat(local); err != nil {
			return "", eris.Wrapf(err, "shapes: stat %s", local)
		}
		return local, nil
	case ".zip":
		dest := extractDir(local)
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return "", eris.Wrap(err, "shapes: create extract dir")
		}
		shp, err := fetcher.ExtractShapefile(local, dest)
		if err != nil {
			return "", eris.Wrapf(err, "shapes: extract %s", local)
		}
		log.Debug("shapes: extracted", zap.String("shp", shp))
		return shp, nil
	}
	return "", eris.Errorf("shapes: unsupported source %s (want .shp or .zip)", source)
}

// fresh reports whether the cached copy of source at local can be reused.
// Without a catalog any non-empty file counts; with one, the entry must point
// at local and be younger than MaxAge. Catalog read errors keep the cache.
func (o ResolveOptions) fresh(ctx context.Context, log *zap.Logger, source, local string) bool {
	info, err := os.Stat(local)
	if err != nil || info.Size() == 0 {
		return false
	}
	if o.Catalog == nil {
		return true
	}

	d, err := o.Catalog.GetDownload(ctx, source)
	if err != nil {
		log.Warn("shapes: catalog lookup failed", zap.Error(err))
		return true
	}
	if d == nil || d.Path != local {
		return false
	}
	if o.MaxAge > 0 && d.Age(o.now()) > o.MaxAge {
		log.Info("shapes: cached download expired",
			zap.Time("fetched_at", d.FetchedAt),
			zap.Duration("max_age", o.MaxAge),
		)
		return false
	}
	return true
}

// CachePath returns where a remote source is stored inside cacheDir. Each URL
// gets its own subdirectory so equal file names from different hosts or paths
// do not collide.
func CachePath(source, cacheDir string) (string, error) {
	name, err := remoteName(source)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(source))
	return filepath.Join(cacheDir, hex.EncodeToString(sum[:6]), name), nil
}

// Evict removes a cached download and, for archives, its extracted layer.
// Files that are already gone are not an error.
func Evict(d store.Download) error {
	if err := os.Remove(d.Path); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "shapes: remove %s", d.Path)
	}
	if strings.EqualFold(filepath.Ext(d.Path), ".zip") {
		if err := os.RemoveAll(extractDir(d.Path)); err != nil {
			return eris.Wrapf(err, "shapes: remove %s", extractDir(d.Path))
		}
	}
	// drops the per-URL directory once it is empty
	_ = os.Remove(filepath.Dir(d.Path))
	return nil
}

func extractDir(zipPath string) string {
	return strings.TrimSuffix(zipPath, filepath.Ext(zipPath))
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func remoteName(source string) (string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", eris.Wrapf(err, "shapes: parse url %s", source)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", eris.Errorf("shapes: no file name in %s", source)
	}
	return name, nil
}
