package config

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/textcore/internal/span"
)

func TestResolve_DefaultPreset(t *testing.T) {
	s, err := ThemeConfig{}.Resolve()
	require.NoError(t, err)

	darcula, ok := Preset("darcula")
	require.True(t, ok)
	require.Equal(t, darcula, s)
	require.Equal(t, "#CC7832", s.SyntaxColor(span.StyleKeyword))
}

func TestResolve_Preset(t *testing.T) {
	s, err := ThemeConfig{Preset: "monokai"}.Resolve()
	require.NoError(t, err)
	require.Equal(t, "#272822", s.Background)
}

func TestResolve_UnknownPreset(t *testing.T) {
	_, err := ThemeConfig{Preset: "neon"}.Resolve()
	require.Error(t, err)
	require.Contains(t, err.Error(), "theme.preset")
	require.Contains(t, err.Error(), "solarized-light")
}

func TestResolve_FlatOverrides(t *testing.T) {
	s, err := ThemeConfig{Colors: map[string]any{
		"syntax.keyword": "#FF0000",
		"find.match":     "#00F",
		"background":     "#000000",
	}}.Resolve()
	require.NoError(t, err)

	require.Equal(t, "#FF0000", s.SyntaxColor(span.StyleKeyword))
	require.Equal(t, "#00F", s.FindMatch)
	require.Equal(t, "#000000", s.Background)
	require.Equal(t, "#6A8759", s.SyntaxColor(span.StyleString), "untouched colors keep the preset")
}

func TestResolve_NestedOverrides(t *testing.T) {
	s, err := ThemeConfig{Colors: map[string]any{
		"syntax": map[string]any{"comment": "#111111"},
		"find":   map[any]any{"current": "#222222"},
	}}.Resolve()
	require.NoError(t, err)

	require.Equal(t, "#111111", s.SyntaxColor(span.StyleComment))
	require.Equal(t, "#222222", s.FindCurrent)
}

func TestResolve_RejectsBadColors(t *testing.T) {
	tests := []struct {
		name    string
		colors  map[string]any
		wantErr string
	}{
		{"not hex", map[string]any{"text": "red"}, "theme.colors.text"},
		{"short", map[string]any{"text": "#12"}, "theme.colors.text"},
		{"bad digit", map[string]any{"text": "#12345G"}, "theme.colors.text"},
		{"unknown token", map[string]any{"gutter": "#123456"}, "unknown color token"},
		{"unknown style", map[string]any{"syntax.regex": "#123456"}, "unknown color token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTheme(ThemeConfig{Colors: tt.colors})
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPreset_ReturnsCopy(t *testing.T) {
	a, ok := Preset("darcula")
	require.True(t, ok)
	a.Syntax[span.StyleKeyword] = "#000000"

	b, _ := Preset("darcula")
	require.Equal(t, "#CC7832", b.Syntax[span.StyleKeyword])

	_, ok = Preset("missing")
	require.False(t, ok)
}

func TestPresets_ColorEveryStyle(t *testing.T) {
	names := PresetNames()
	require.True(t, sort.StringsAreSorted(names))
	require.Contains(t, names, DefaultPreset)

	for _, name := range names {
		s, _ := Preset(name)
		for _, style := range syntaxStyles {
			require.Contains(t, s.Syntax, style, "%s lacks %s", name, style)
		}
	}
}

func TestSyntaxColor_FallsBackToText(t *testing.T) {
	s, _ := Preset("darcula")
	require.Equal(t, s.Text, s.SyntaxColor(span.Style("label")))
}

func TestLoad_ThemeColors(t *testing.T) {
	path := writeConfig(t, `
theme:
  preset: solarized-light
  colors:
    "syntax.keyword": "#FF0000"
    find:
      match: "#00FF00"
`)
	cfg, _, err := Load(path)
	require.NoError(t, err)

	s, err := cfg.Theme.Resolve()
	require.NoError(t, err)
	require.Equal(t, "#FF0000", s.SyntaxColor(span.StyleKeyword))
	require.Equal(t, "#00FF00", s.FindMatch)
	require.Equal(t, "#FDF6E3", s.Background)
}
