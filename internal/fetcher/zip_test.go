package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeZIP builds an archive from name → content pairs; names ending in "/"
// become directory entries.
func writeZIP(t *testing.T, entries map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "layer.zip")
	out, err := os.Create(zipPath)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(out)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(entries[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
	return zipPath
}

func TestExtractShapefile(t *testing.T) {
	tests := []struct {
		name    string
		entries map[string]string
		want    string
		skipped []string
	}{
		{
			name: "tiger county layer",
			entries: map[string]string{
				"tl_2024_us_county.shp":         "shp",
				"tl_2024_us_county.shx":         "shx",
				"tl_2024_us_county.dbf":         "dbf",
				"tl_2024_us_county.prj":         "prj",
				"tl_2024_us_county.shp.iso.xml": "<metadata/>",
			},
			want:    "tl_2024_us_county.shp",
			skipped: []string{"tl_2024_us_county.shp.iso.xml"},
		},
		{
			name: "upper-case extension",
			entries: map[string]string{
				"tl_2024_us_cd119.SHP": "shp",
				"tl_2024_us_cd119.dbf": "dbf",
			},
			want: "tl_2024_us_cd119.SHP",
		},
		{
			name: "nested directory",
			entries: map[string]string{
				"cb_2023_us_state_20m/":                         "",
				"cb_2023_us_state_20m/cb_2023_us_state_20m.shp": "shp",
				"cb_2023_us_state_20m/cb_2023_us_state_20m.dbf": "dbf",
			},
			want: filepath.Join("cb_2023_us_state_20m", "cb_2023_us_state_20m.shp"),
		},
		{
			name: "first layer by name",
			entries: map[string]string{
				"b_layer.shp": "b",
				"a_layer.shp": "a",
			},
			want: "a_layer.shp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := t.TempDir()
			got, err := ExtractShapefile(writeZIP(t, tt.entries), dest)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dest, tt.want), got)
			assert.FileExists(t, got)
			for _, name := range tt.skipped {
				assert.NoFileExists(t, filepath.Join(dest, name))
			}
		})
	}
}

func TestExtractShapefile_SidecarContents(t *testing.T) {
	dest := t.TempDir()
	_, err := ExtractShapefile(writeZIP(t, map[string]string{
		"tl_2024_us_state.shp": "shp",
		"tl_2024_us_state.dbf": "attribute table",
	}), dest)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dest, "tl_2024_us_state.dbf"))
	require.NoError(t, err)
	assert.Equal(t, "attribute table", string(data))
}

func TestExtractShapefile_Errors(t *testing.T) {
	_, err := ExtractShapefile(writeZIP(t, map[string]string{"readme.txt": "no shapes here"}), t.TempDir())
	assert.ErrorContains(t, err, "no .shp file")

	dest := filepath.Join(t.TempDir(), "a", "b")
	_, err = ExtractShapefile(writeZIP(t, map[string]string{"../../evil.shp": "x"}), dest)
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dest, "..", "..", "evil.shp"))

	notZip := filepath.Join(t.TempDir(), "notazip.zip")
	require.NoError(t, os.WriteFile(notZip, []byte("this is not a zip"), 0o644))
	_, err = ExtractShapefile(notZip, t.TempDir())
	assert.ErrorContains(t, err, "open archive")
}
