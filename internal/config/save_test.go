package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/textcore/internal/span"
)

func TestSaveValue_PreservesOtherConfig(t *testing.T) {
	path := writeConfig(t, `# my settings
editor:
  tab_width: 4
  use_spaces: true
theme:
  preset: monokai # favourite
`)

	require.NoError(t, SaveValue(path, "editor.tab_width", "2"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, "# my settings")
	require.Contains(t, content, "tab_width: 2")
	require.Contains(t, content, "use_spaces: true")
	require.Contains(t, content, "preset: monokai # favourite")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Editor.TabWidth)
	require.True(t, cfg.Editor.UseSpaces)
}

func TestSaveValue_CreatesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dir", "config.yaml")

	require.NoError(t, SaveValue(path, "find.match_timeout", "500ms"))
	require.NoError(t, SaveValue(path, "highlight.enabled", "false"))
	require.NoError(t, SaveValue(path, "theme.colors.syntax.keyword", "#FF0000"))

	cfg, _, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, cfg.Find.MatchTimeout)
	require.False(t, cfg.Highlight.Enabled)

	s, err := cfg.Theme.Resolve()
	require.NoError(t, err)
	require.Equal(t, "#FF0000", s.SyntaxColor(span.StyleKeyword))
}

func TestSaveValue_ReplacesScalarSection(t *testing.T) {
	path := writeConfig(t, "highlight: on\n")
	require.NoError(t, SaveValue(path, "highlight.debounce", "100ms"))

	cfg, _, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 100*time.Millisecond, cfg.Highlight.Debounce)
}

func TestSaveValue_InvalidKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.Error(t, SaveValue(path, "editor..tab_width", "2"))
	require.Error(t, SaveValue(path, "", "2"))

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "nothing written for an invalid key")
}

func TestSaveValue_RejectsNonMappingFile(t *testing.T) {
	path := writeConfig(t, "- a\n- b\n")
	err := SaveValue(path, "editor.tab_width", "2")
	require.Error(t, err)
	require.Contains(t, err.Error(), "mapping")
}

func TestSaveLanguages_Roundtrip(t *testing.T) {
	path := writeConfig(t, "editor:\n  tab_width: 8\nlanguages:\n  - name: old\n    extensions: [\".old\"]\n")
	langs := []LanguageConfig{
		{Name: "python", Extensions: []string{".py", ".pyi"}},
		{Name: "shell", Lexer: "bash", Extensions: []string{".sh"}},
	}

	require.NoError(t, SaveLanguages(path, langs))

	cfg, _, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, langs, cfg.Languages)
	require.Equal(t, 8, cfg.Editor.TabWidth)
}
