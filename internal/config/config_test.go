package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/election-toolkit/internal/mapbind"
	"github.com/sells-group/election-toolkit/internal/rating"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 10.0, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 20, cfg.Server.RateBurst)
	assert.Equal(t, int64(32<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, rating.DefaultThresholds(), cfg.Rating)
	assert.True(t, cfg.Report.Counties)
	assert.Equal(t, "table", cfg.Export.Format)
	assert.Equal(t, "ratings", cfg.Export.Table)
	assert.Equal(t, "NAME", cfg.Shapes.NameField)
	assert.Equal(t, 10*time.Minute, cfg.Shapes.FetchTimeout)
	assert.Equal(t, 3, cfg.Shapes.FetchRetries)
	assert.Equal(t, "tpp/1.0", cfg.Shapes.UserAgent)
	assert.NotEmpty(t, cfg.Shapes.CacheDir)
	assert.Zero(t, cfg.Shapes.MaxAge)
	assert.Empty(t, cfg.Store.DSN)
	assert.Equal(t, int32(4), cfg.Store.MaxConns)
	assert.Equal(t, int32(1), cfg.Store.MinConns)

	scheme, err := cfg.ColorScheme()
	require.NoError(t, err)
	assert.Equal(t, mapbind.DefaultColorScheme(), scheme)
	assert.NoError(t, cfg.Validate("report"))
	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
rating:
  tilt_max: 2
  lean_max: 5
  likely_max: 10
colors:
  D:
    safe: "#000080"
shapes:
  county: /data/tl_2024_us_county.shp
  max_age: 720h
store:
  dsn: postgres://tpp@localhost/tpp
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, rating.Thresholds{TiltMax: 2, LeanMax: 5, LikelyMax: 10}, cfg.Rating)
	assert.Equal(t, "/data/tl_2024_us_county.shp", cfg.Shapes.County)
	assert.Equal(t, 30*24*time.Hour, cfg.Shapes.MaxAge)
	assert.Equal(t, "postgres://tpp@localhost/tpp", cfg.Store.DSN)
	// Defaults still apply for unset values
	assert.Equal(t, 20, cfg.Server.RateBurst)

	scheme, err := cfg.ColorScheme()
	require.NoError(t, err)
	assert.Equal(t, "#000080", scheme["D"][rating.Safe])
	assert.Equal(t, "#577CCC", scheme["D"][rating.Likely])
	assert.Equal(t, "#BF1D29", scheme["R"][rating.Safe])
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
rating:
  likely_max: 15
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("TPP_LOG_LEVEL", "warn")
	t.Setenv("TPP_RATING_LIKELY_MAX", "20")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.InDelta(t, 20.0, cfg.Rating.LikelyMax, 0.001)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("TPP_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestColorScheme_Preset(t *testing.T) {
	dir := t.TempDir()
	preset := filepath.Join(dir, "preset.yaml")
	require.NoError(t, os.WriteFile(preset, []byte("r:\n  tilt: \"#FFEEEE\"\n"), 0o644))

	cfg := validDefaults()
	cfg.Colors = map[string]map[string]string{"r": {"tilt": "#FFDDDD", "lean": "#FFCCCC"}}
	cfg.ColorPreset = preset

	scheme, err := cfg.ColorScheme()
	require.NoError(t, err)
	assert.Equal(t, "#FFEEEE", scheme["R"][rating.Tilt])
	assert.Equal(t, "#FFCCCC", scheme["R"][rating.Lean])

	cfg.ColorPreset = filepath.Join(dir, "missing.yaml")
	_, err = cfg.ColorScheme()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: color preset")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Rating = rating.DefaultThresholds()
	cfg.Export.Format = "table"
	cfg.Export.Table = "ratings"
	cfg.Server.Port = 8080
	cfg.Server.RateLimit = 10
	cfg.Server.RateBurst = 20
	cfg.Server.MaxBodyBytes = 1 << 20
	return cfg
}

func TestValidate_Thresholds(t *testing.T) {
	cfg := validDefaults()
	cfg.Rating = rating.Thresholds{TiltMax: 7, LeanMax: 3, LikelyMax: 12}

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
	assert.Contains(t, err.Error(), "rating:")
}

func TestValidate_BadColor(t *testing.T) {
	cfg := validDefaults()
	cfg.Colors = map[string]map[string]string{"d": {"safe": "navy"}}

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: colors")
}

func TestValidate_UnknownTier(t *testing.T) {
	cfg := validDefaults()
	cfg.Colors = map[string]map[string]string{"d": {"solid": "#000000"}}

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tier")
}

func TestValidateReport_Export(t *testing.T) {
	cfg := validDefaults()
	cfg.Export.Format = "pdf"

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export.format is invalid (oneof)")

	// serve mode ignores export settings
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port is invalid (gt)")

	cfg.Server.Port = 70000
	err = cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port is invalid (lte)")
}

func TestValidateServe_RateLimit(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.RateLimit = 0
	cfg.Server.RateBurst = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.rate_limit is invalid")
	assert.Contains(t, err.Error(), "server.rate_burst is invalid")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
