package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/textcore/internal/tracing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults_AreValid(t *testing.T) {
	require.NoError(t, Validate(Defaults()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"tab width zero", func(c *Config) { c.Editor.TabWidth = 0 }, "editor.tab_width"},
		{"tab width too wide", func(c *Config) { c.Editor.TabWidth = 17 }, "editor.tab_width"},
		{"negative debounce", func(c *Config) { c.Highlight.Debounce = -time.Second }, "highlight.debounce"},
		{"zero match timeout", func(c *Config) { c.Find.MatchTimeout = 0 }, "find.match_timeout"},
		{"zero cache ttl", func(c *Config) { c.Find.CacheTTL = 0 }, "find.cache_ttl"},
		{"unknown preset", func(c *Config) { c.Theme.Preset = "neon" }, "theme.preset"},
		{"language without name", func(c *Config) {
			c.Languages = []LanguageConfig{{Extensions: []string{".go"}}}
		}, "languages[0]: name is required"},
		{"language without extensions", func(c *Config) {
			c.Languages = []LanguageConfig{{Name: "go"}}
		}, "at least one extension"},
		{"bad extension", func(c *Config) {
			c.Languages = []LanguageConfig{{Name: "go", Extensions: []string{"."}}}
		}, "invalid extension"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "tracing.sample_rate"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, "tracing.exporter"},
		{"file exporter without path", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = tracing.ExporterFile
			c.Tracing.FilePath = ""
		}, "tracing.file_path"},
		{"otlp without endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = tracing.ExporterOTLP
			c.Tracing.OTLPEndpoint = ""
		}, "tracing.otlp_endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateTracing_DisabledSkipsPathChecks(t *testing.T) {
	cfg := tracing.DefaultConfig()
	cfg.FilePath = ""
	require.NoError(t, ValidateTracing(cfg))
}

func TestGetLanguages_FallsBackToDefaults(t *testing.T) {
	require.Equal(t, DefaultLanguages(), Config{}.GetLanguages())

	custom := []LanguageConfig{{Name: "go", Extensions: []string{".go"}}}
	require.Equal(t, custom, Config{Languages: custom}.GetLanguages())
}

// ============================================================================
// Loading
// ============================================================================

func TestLoad_DefaultTemplateMatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	cfg, used, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, used)

	d := Defaults()
	require.Equal(t, d.Editor, cfg.Editor)
	require.Equal(t, d.Highlight, cfg.Highlight)
	require.Equal(t, d.Find, cfg.Find)
	require.Equal(t, d.Theme.Preset, cfg.Theme.Preset)
	require.Empty(t, cfg.Languages)
	require.Equal(t, d.Tracing, cfg.Tracing)
}

func TestLoad_Values(t *testing.T) {
	path := writeConfig(t, `
editor:
  tab_width: 2
  use_spaces: true
highlight:
  enabled: false
  debounce: 150ms
find:
  match_timeout: 500ms
languages:
  - name: shell
    lexer: bash
    extensions: [".sh"]
`)
	cfg, _, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, EditorConfig{TabWidth: 2, UseSpaces: true}, cfg.Editor)
	require.False(t, cfg.Highlight.Enabled)
	require.Equal(t, 150*time.Millisecond, cfg.Highlight.Debounce)
	require.Equal(t, 500*time.Millisecond, cfg.Find.MatchTimeout)
	require.Equal(t, 10*time.Minute, cfg.Find.CacheTTL, "unset keys keep defaults")
	require.Equal(t, []LanguageConfig{{Name: "shell", Lexer: "bash", Extensions: []string{".sh"}}}, cfg.Languages)
}

func TestLoad_InvalidValueNamesKey(t *testing.T) {
	path := writeConfig(t, "editor:\n  tab_width: 0\n")
	_, _, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "editor.tab_width")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "editor: [\n")
	_, _, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading config")
}

func TestLoad_TracingGetsDefaultFilePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeConfig(t, "tracing:\n  enabled: true\n")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "textcore", "traces", "traces.jsonl"), cfg.Tracing.FilePath)
}

func TestResolvePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	require.Equal(t, "explicit.yaml", ResolvePath("explicit.yaml"))
	require.Empty(t, ResolvePath(""))

	user := filepath.Join(home, ".config", "textcore", "config.yaml")
	require.NoError(t, WriteDefaultConfig(user))
	require.Equal(t, user, ResolvePath(""))

	require.NoError(t, WriteDefaultConfig(ProjectConfigPath))
	require.Equal(t, ProjectConfigPath, ResolvePath(""), "project config wins over user config")
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}
