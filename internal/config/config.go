package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/election-toolkit/internal/mapbind"
	"github.com/sells-group/election-toolkit/internal/rating"
)

// Config holds the full application configuration.
type Config struct {
	Rating rating.Thresholds `yaml:"rating" mapstructure:"rating"`
	// Colors maps party code → tier name → hex color.
	Colors      map[string]map[string]string `yaml:"colors" mapstructure:"colors"`
	ColorPreset string                       `yaml:"color_preset" mapstructure:"color_preset"`
	Shapes      ShapesConfig                 `yaml:"shapes" mapstructure:"shapes"`
	Report      ReportConfig                 `yaml:"report" mapstructure:"report"`
	Export      ExportConfig                 `yaml:"export" mapstructure:"export"`
	Server      ServerConfig                 `yaml:"server" mapstructure:"server"`
	Store       StoreConfig                  `yaml:"store" mapstructure:"store"`
	Log         LogConfig                    `yaml:"log" mapstructure:"log"`
}

// ShapesConfig points at the shapefiles that define the map identifiers for
// each level. A source is a .shp path, a .zip archive, or an http(s) URL to
// either; empty sources disable shape checks for that level.
type ShapesConfig struct {
	State     string `yaml:"state" mapstructure:"state"`
	District  string `yaml:"district" mapstructure:"district"`
	County    string `yaml:"county" mapstructure:"county"`
	NameField string `yaml:"name_field" mapstructure:"name_field"`
	// CacheDir receives downloaded archives and their extracted layers.
	CacheDir     string        `yaml:"cache_dir" mapstructure:"cache_dir"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
	FetchRetries int           `yaml:"fetch_retries" mapstructure:"fetch_retries"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	// MaxAge re-downloads remote sources fetched longer ago; zero never expires.
	MaxAge time.Duration `yaml:"max_age" mapstructure:"max_age"`
}

// ReportConfig configures report passes.
type ReportConfig struct {
	Counties bool `yaml:"counties" mapstructure:"counties"`
}

// ExportConfig sets the default output of the report command.
type ExportConfig struct {
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=table csv json xlsx"`
	Table  string `yaml:"table" mapstructure:"table" validate:"oneof=ratings totals colors"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port         int      `yaml:"port" mapstructure:"port" validate:"gt=0,lte=65535"`
	RateLimit    float64  `yaml:"rate_limit" mapstructure:"rate_limit" validate:"gt=0"`
	RateBurst    int      `yaml:"rate_burst" mapstructure:"rate_burst" validate:"gt=0"`
	MaxBodyBytes int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gt=0"`
	CORSOrigins  []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// StoreConfig configures the shape download catalog. postgres:// URLs select
// Postgres, anything else is a SQLite file path; an empty DSN means
// catalog.db inside the shapes cache dir.
type StoreConfig struct {
	DSN      string `yaml:"dsn" mapstructure:"dsn"`
	MaxConns int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.max_body_bytes", 32<<20)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("rating.tilt_max", 3.0)
	v.SetDefault("rating.lean_max", 7.0)
	v.SetDefault("rating.likely_max", 12.0)
	v.SetDefault("report.counties", true)
	v.SetDefault("export.format", "table")
	v.SetDefault("export.table", "ratings")
	v.SetDefault("shapes.name_field", "NAME")
	v.SetDefault("shapes.cache_dir", filepath.Join(os.TempDir(), "tpp-shapes"))
	v.SetDefault("shapes.fetch_timeout", 10*time.Minute)
	v.SetDefault("shapes.fetch_retries", 3)
	v.SetDefault("shapes.user_agent", "tpp/1.0")
	v.SetDefault("shapes.max_age", time.Duration(0))
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	for party, tiers := range mapbind.DefaultColorScheme() {
		for tier, color := range tiers {
			v.SetDefault(fmt.Sprintf("colors.%s.%s", strings.ToLower(party), strings.ToLower(string(tier))), color)
		}
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// ColorScheme returns the configured colors layered over the defaults, with
// the preset file (if any) applied last.
func (c *Config) ColorScheme() (mapbind.ColorScheme, error) {
	scheme := mapbind.DefaultColorScheme()
	if len(c.Colors) > 0 {
		configured, err := mapbind.ParseColorScheme(c.Colors)
		if err != nil {
			return nil, eris.Wrap(err, "config: colors")
		}
		scheme = scheme.Merge(configured)
	}
	if c.ColorPreset != "" {
		preset, err := mapbind.LoadColorScheme(c.ColorPreset)
		if err != nil {
			return nil, eris.Wrap(err, "config: color preset")
		}
		scheme = scheme.Merge(preset)
	}
	return scheme, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks that the fields required by the given mode are present and
// in range. Modes: "report", "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	if err := c.Rating.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("rating: %v", err))
	}
	if _, err := c.ColorScheme(); err != nil {
		errs = append(errs, err.Error())
	}

	switch mode {
	case "report":
		if err := validate.Struct(c.Export); err != nil {
			errs = append(errs, fieldErrors("export", err)...)
		}
	case "serve":
		if err := validate.Struct(c.Server); err != nil {
			errs = append(errs, fieldErrors("server", err)...)
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// fieldErrors renders validator errors as "section.field is invalid (tag)"
// using the yaml key names.
func fieldErrors(section string, err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{fmt.Sprintf("%s: %v", section, err)}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Sprintf("%s.%s is invalid (%s)", section, fe.Field(), fe.Tag()))
	}
	return out
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
