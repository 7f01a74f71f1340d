// Package config loads crmdash settings. Sources are layered, lowest first:
// built-in defaults, the YAML config file, CRMDASH_ environment variables
// (after .env files are read), and explicitly set command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"crmdash/internal/refresh"
)

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore: CRMDASH_API__BASE_URL sets api.base_url.
const EnvPrefix = "CRMDASH_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Data sources.
const (
	SourceAPI      = "api"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config is the root configuration object.
type Config struct {
	Source  string        `koanf:"source" validate:"oneof=api sqlite postgres"`
	API     APIConfig     `koanf:"api"`
	DB      DBConfig      `koanf:"db"`
	UI      UIConfig      `koanf:"ui"`
	Log     LogConfig     `koanf:"log"`
	Export  ExportConfig  `koanf:"export"`
	Metrics MetricsConfig `koanf:"metrics"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// APIConfig points at the n8n webhook backend.
type APIConfig struct {
	BaseURL   string        `koanf:"base_url" validate:"omitempty,url"`
	Token     string        `koanf:"token"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
	Endpoints Endpoints     `koanf:"endpoints"`
}

// Endpoints are webhook paths relative to the base URL.
type Endpoints struct {
	Customers   string `koanf:"customers" validate:"required"`
	Leads       string `koanf:"leads" validate:"required"`
	Stats       string `koanf:"stats" validate:"required"`
	Escalations string `koanf:"escalations" validate:"required"`
	Campaigns   string `koanf:"campaigns" validate:"required"`
}

// DBConfig selects the database for the sqlite and postgres sources.
type DBConfig struct {
	Path string `koanf:"path"`
	URL  string `koanf:"url"`
}

// UIConfig holds dashboard presentation settings.
type UIConfig struct {
	PageSizes         []int  `koanf:"page_sizes" validate:"min=1,dive,gt=0"`
	RefreshIntervalMs int    `koanf:"refresh_interval_ms" validate:"gte=0"`
	Role              string `koanf:"role" validate:"oneof=admin customer_service marketing"`
	Locale            string `koanf:"locale" validate:"required"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
	File   string `koanf:"file"`
}

// ExportConfig selects where CSV exports go.
type ExportConfig struct {
	Dir string   `koanf:"dir" validate:"required"`
	S3  S3Config `koanf:"s3"`
}

// S3Config enables uploading exports to an S3 compatible bucket.
type S3Config struct {
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint" validate:"omitempty,url"`
	Prefix    string `koanf:"prefix"`
	PathStyle bool   `koanf:"path_style"`
}

// MetricsConfig controls the prometheus listener of the watch command.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// flagKeys maps command line flags onto config keys. Flags not listed here
// are not configuration.
var flagKeys = map[string]string{
	"source":       "source",
	"api-url":      "api.base_url",
	"api-token":    "api.token",
	"db":           "db.path",
	"db-url":       "db.url",
	"role":         "ui.role",
	"refresh-ms":   "ui.refresh_interval_ms",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"export-dir":   "export.dir",
	"metrics-addr": "metrics.addr",
}

// HomeDir returns the crmdash state directory, ~/.crmdash unless
// CRMDASH_HOME is set.
func HomeDir() (string, error) {
	if dir := os.Getenv("CRMDASH_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".crmdash"), nil
}

// DefaultFile returns the path of the per-user config file.
func DefaultFile() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func defaults(home string) map[string]any {
	return map[string]any{
		"source":                    SourceSQLite,
		"api.timeout":               "10s",
		"api.endpoints.customers":   "/webhook/crm/customers-list",
		"api.endpoints.leads":       "/webhook/crm/leads-list",
		"api.endpoints.stats":       "/webhook/crm/quick-stats",
		"api.endpoints.escalations": "/webhook/crm/escalations-list",
		"api.endpoints.campaigns":   "/webhook/crm/campaign-performance",
		"db.path":                   filepath.Join(home, "crmdash.db"),
		"ui.page_sizes":             []int{10, 25, 50},
		"ui.role":                   "admin",
		"ui.locale":                 "id",
		"log.level":                 "info",
		"log.format":                "console",
		"log.file":                  filepath.Join(home, "crmdash.log"),
		"export.dir":                ".",
	}
}

// findConfigFile picks the file to read.
// Priority: explicit path > ./crmdash.yaml > ~/.crmdash/config.yaml
func findConfigFile(explicit, home string) string {
	if explicit != "" {
		return explicit
	}
	for _, candidate := range []string{"crmdash.yaml", filepath.Join(home, "config.yaml")} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func loadDotEnv() error {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// envKey turns CRMDASH_API__BASE_URL into api.base_url.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Load reads the configuration. cfgFile may be empty; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	home, err := HomeDir()
	if err != nil {
		return nil, err
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(home), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile, home)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment, after .env files have been merged into it
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		if key == "CRMDASH_HOME" {
			return "", nil
		}
		key = envKey(key)
		if key == "ui.page_sizes" {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	if !k.Exists("ui.refresh_interval_ms") {
		cfg.UI.RefreshIntervalMs = refresh.DefaultInterval(cfg.UI.Role)
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		cfg := sl.Current().Interface().(Config)
		switch cfg.Source {
		case SourceAPI:
			if cfg.API.BaseURL == "" {
				sl.ReportError(cfg.API.BaseURL, "API.BaseURL", "base_url", "required_for_api", "")
			}
		case SourceSQLite:
			if cfg.DB.Path == "" {
				sl.ReportError(cfg.DB.Path, "DB.Path", "path", "required_for_sqlite", "")
			}
		case SourcePostgres:
			if cfg.DB.URL == "" {
				sl.ReportError(cfg.DB.URL, "DB.URL", "url", "required_for_postgres", "")
			}
		}
		if cfg.Export.S3.Bucket != "" && cfg.Export.S3.Region == "" {
			sl.ReportError(cfg.Export.S3.Region, "Export.S3.Region", "region", "required_with_bucket", "")
		}
	}, Config{})
	return v
}

// Validate checks field constraints and the per-source requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// SaveFile writes values, keyed by dotted config keys, as a YAML config file.
func SaveFile(path string, values map[string]any) error {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return fmt.Errorf("failed to load values: %w", err)
	}
	data, err := k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
