// Package config provides configuration types and defaults for textcore.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/textcore/internal/log"
	"github.com/zjrosen/textcore/internal/tracing"
)

// Config holds all configuration options for textcore.
type Config struct {
	Editor    EditorConfig     `mapstructure:"editor"`
	Highlight HighlightConfig  `mapstructure:"highlight"`
	Find      FindConfig       `mapstructure:"find"`
	Theme     ThemeConfig      `mapstructure:"theme"`
	Languages []LanguageConfig `mapstructure:"languages"`
	Tracing   tracing.Config   `mapstructure:"tracing"`
}

// EditorConfig holds indentation settings.
type EditorConfig struct {
	TabWidth  int  `mapstructure:"tab_width"`
	UseSpaces bool `mapstructure:"use_spaces"` // Tab inserts TabWidth spaces instead of '\t'
}

// HighlightConfig controls background syntax highlighting.
type HighlightConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Debounce delays tokenization after an edit so fast typing only
	// tokenizes once. Zero tokenizes immediately.
	Debounce time.Duration `mapstructure:"debounce"`
}

// FindConfig controls search.
type FindConfig struct {
	MatchTimeout time.Duration `mapstructure:"match_timeout"` // upper bound for one search
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`     // lifetime of a compiled pattern
}

// LanguageConfig maps file extensions to a chroma lexer.
type LanguageConfig struct {
	Name       string   `mapstructure:"name"`
	Lexer      string   `mapstructure:"lexer"` // chroma lexer name, defaults to Name
	Extensions []string `mapstructure:"extensions"`
}

// DefaultLanguages returns the languages registered when none are configured.
func DefaultLanguages() []LanguageConfig {
	return []LanguageConfig{
		{Name: "python", Extensions: []string{".py", ".pyw", ".pyi"}},
		{Name: "lua", Extensions: []string{".lua"}},
		{Name: "typescript", Extensions: []string{".ts", ".tsx"}},
		{Name: "json", Extensions: []string{".json"}},
	}
}

// GetLanguages returns the configured languages, or DefaultLanguages() if
// none are configured.
func (c Config) GetLanguages() []LanguageConfig {
	if len(c.Languages) > 0 {
		return c.Languages
	}
	return DefaultLanguages()
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/textcore/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "textcore", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Editor: EditorConfig{
			TabWidth:  4,
			UseSpaces: false,
		},
		Highlight: HighlightConfig{
			Enabled:  true,
			Debounce: 0,
		},
		Find: FindConfig{
			MatchTimeout: 2 * time.Second,
			CacheTTL:     10 * time.Minute,
		},
		Theme: ThemeConfig{
			Preset: DefaultPreset,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Validate checks the whole configuration. Errors name the offending key.
func Validate(c Config) error {
	if err := ValidateEditor(c.Editor); err != nil {
		return err
	}
	if c.Highlight.Debounce < 0 {
		return fmt.Errorf("highlight.debounce must not be negative, got %s", c.Highlight.Debounce)
	}
	if err := ValidateFind(c.Find); err != nil {
		return err
	}
	if err := ValidateTheme(c.Theme); err != nil {
		return err
	}
	if err := ValidateLanguages(c.Languages); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateEditor checks indentation settings.
func ValidateEditor(e EditorConfig) error {
	if e.TabWidth < 1 || e.TabWidth > 16 {
		return fmt.Errorf("editor.tab_width must be between 1 and 16, got %d", e.TabWidth)
	}
	return nil
}

// ValidateFind checks search settings.
func ValidateFind(f FindConfig) error {
	if f.MatchTimeout <= 0 {
		return fmt.Errorf("find.match_timeout must be positive, got %s", f.MatchTimeout)
	}
	if f.CacheTTL <= 0 {
		return fmt.Errorf("find.cache_ttl must be positive, got %s", f.CacheTTL)
	}
	return nil
}

// ValidateLanguages checks language mappings.
// Returns nil if languages are valid or empty (will use defaults).
func ValidateLanguages(langs []LanguageConfig) error {
	for i, l := range langs {
		if l.Name == "" {
			return fmt.Errorf("languages[%d]: name is required", i)
		}
		if len(l.Extensions) == 0 {
			return fmt.Errorf("languages[%d] (%s): at least one extension is required", i, l.Name)
		}
		for _, ext := range l.Extensions {
			if strings.TrimPrefix(ext, ".") == "" || strings.ContainsAny(ext, `/\`) {
				return fmt.Errorf("languages[%d] (%s): invalid extension %q", i, l.Name, ext)
			}
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	if t.Exporter != "" {
		switch t.Exporter {
		case tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
		}
	}

	// path requirements only matter when tracing is on
	if t.Enabled {
		if t.Exporter == tracing.ExporterFile && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == tracing.ExporterOTLP && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# textcore configuration

# Indentation
editor:
  tab_width: 4       # Width of one indentation level (1-16)
  use_spaces: false  # Tab inserts spaces instead of a tab character

# Background syntax highlighting
highlight:
  enabled: true
  # debounce: 150ms  # Wait this long after an edit before tokenizing

# Find and replace
find:
  match_timeout: 2s  # Abort a search that runs longer than this
  cache_ttl: 10m     # Keep compiled patterns this long

# Color scheme
theme:
  # Use a preset (run 'textcore themes' to see available presets):
  preset: darcula
  #
  # Available presets:
  #   darcula          - Dark theme (default)
  #   monokai          - Dark theme with vivid syntax colors
  #   solarized-light  - Low contrast light theme
  #
  # Override specific colors (works with or without preset):
  # colors:
  #   syntax.keyword: "#CC7832"
  #   find.match: "#32593D"
  #   error: "#BC3F3C"

# Languages - map file extensions to a chroma lexer
# Without this section python, lua, typescript and json are registered.
# languages:
#   - name: python
#     extensions: [".py", ".pyw", ".pyi"]
#   - name: shell
#     lexer: bash
#     extensions: [".sh", ".bash"]

# Distributed tracing configuration
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/textcore/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
