package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/zjrosen/textcore/internal/log"
)

// keyDelimiter lets dotted color tokens such as "syntax.keyword" live in
// theme.colors without viper treating them as nested paths.
const keyDelimiter = "::"

// ProjectConfigPath is the per-directory config file.
const ProjectConfigPath = ".textcore/config.yaml"

// UserConfigPath returns ~/.config/textcore/config.yaml, or empty string
// if home dir unavailable.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "textcore", "config.yaml")
}

// ResolvePath returns the config file to read.
// Lookup order:
//  1. explicit (the --config flag)
//  2. .textcore/config.yaml (current directory)
//  3. ~/.config/textcore/config.yaml (user config)
//
// It returns "" when no file exists and none was requested.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(ProjectConfigPath); err == nil {
		return ProjectConfigPath
	}
	if p := UserConfigPath(); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// NewViper returns a viper instance with every default registered.
func NewViper() *viper.Viper {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	d := Defaults()
	v.SetDefault("editor::tab_width", d.Editor.TabWidth)
	v.SetDefault("editor::use_spaces", d.Editor.UseSpaces)
	v.SetDefault("highlight::enabled", d.Highlight.Enabled)
	v.SetDefault("highlight::debounce", d.Highlight.Debounce)
	v.SetDefault("find::match_timeout", d.Find.MatchTimeout)
	v.SetDefault("find::cache_ttl", d.Find.CacheTTL)
	v.SetDefault("theme::preset", d.Theme.Preset)
	v.SetDefault("tracing::enabled", d.Tracing.Enabled)
	v.SetDefault("tracing::exporter", d.Tracing.Exporter)
	v.SetDefault("tracing::otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing::sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing::service_name", d.Tracing.ServiceName)
	return v
}

// Load reads the config file found by ResolvePath(explicit), applies
// defaults and validates the result. It returns the path read, or "" when
// only defaults were used.
func Load(explicit string) (Config, string, error) {
	path := ResolvePath(explicit)
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				return Config{}, path, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return Config{}, path, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg, err := Unmarshal(v)
	if err != nil {
		return Config{}, path, err
	}
	log.Debug(log.CatConfig, "Loaded config", "path", path, "languages", len(cfg.Languages))
	return cfg, path, nil
}

// Unmarshal decodes v into a Config and validates it.
func Unmarshal(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Tracing.Enabled && cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = DefaultTracesFilePath()
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
