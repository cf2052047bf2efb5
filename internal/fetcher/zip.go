package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// layerParts are the archive members that make up a shapefile layer.
var layerParts = map[string]bool{
	".shp": true,
	".shx": true,
	".dbf": true,
	".prj": true,
	".cpg": true,
}

// ExtractShapefile unpacks the layer files of a shapefile archive (.shp with
// its .shx/.dbf/.prj/.cpg sidecars) into destDir and returns the .shp path.
// Other members, such as TIGER's .xml metadata, are skipped. Archives with
// several layers yield the first by name.
func ExtractShapefile(zipPath, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var layers []string
	for _, f := range r.File {
		ext := strings.ToLower(path.Ext(f.Name))
		if f.FileInfo().IsDir() || !layerParts[ext] {
			continue
		}
		dst, err := entryPath(destDir, f.Name)
		if err != nil {
			return "", err
		}
		if err := writeEntry(f, dst); err != nil {
			return "", err
		}
		if ext == ".shp" {
			layers = append(layers, dst)
		}
	}

	if len(layers) == 0 {
		return "", eris.Errorf("zip: no .shp file in %s", zipPath)
	}
	sort.Strings(layers)
	return layers[0], nil
}

// entryPath maps an archive member to a path under destDir, rejecting names
// that would land outside it.
func entryPath(destDir, name string) (string, error) {
	dst := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, dst)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", eris.Errorf("zip: entry %q escapes %s", name, destDir)
	}
	return dst, nil
}

func writeEntry(f *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return eris.Wrapf(err, "zip: open entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(dst)
	if err != nil {
		return eris.Wrap(err, "zip: create file")
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return eris.Wrapf(err, "zip: write %s", dst)
	}
	return eris.Wrap(out.Close(), "zip: close file")
}
