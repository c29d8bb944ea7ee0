package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zjrosen/textcore/internal/span"
)

const DefaultPreset = "darcula"

// ThemeConfig holds all theme customization options.
type ThemeConfig struct {
	// Preset loads a built-in scheme as the base.
	// Valid values: "darcula", "monokai", "solarized-light"
	Preset string `mapstructure:"preset"`

	// Colors allows overriding individual color tokens.
	// Supports both nested YAML structure and dot notation.
	// Example YAML:
	//   colors:
	//     syntax:
	//       keyword: "#FF0000"
	// Or quoted dot notation:
	//   colors:
	//     "syntax.keyword": "#FF0000"
	Colors map[string]any `mapstructure:"colors"`
}

// FlattenedColors returns the Colors map flattened to dot-notation keys.
// This handles both nested YAML structures and already-flat keys.
func (t ThemeConfig) FlattenedColors() map[string]string {
	result := make(map[string]string)
	flattenColors("", t.Colors, result)
	return result
}

// flattenColors recursively flattens a nested map into dot-notation keys.
func flattenColors(prefix string, m map[string]any, result map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			result[key] = val
		case map[string]any:
			flattenColors(key, val, result)
		case map[any]any:
			// YAML sometimes produces map[any]any instead of map[string]any
			converted := make(map[string]any)
			for mk, mv := range val {
				if strKey, ok := mk.(string); ok {
					converted[strKey] = mv
				}
			}
			flattenColors(key, converted, result)
		}
	}
}

// Scheme is a resolved color scheme. Colors are hex strings.
type Scheme struct {
	Text        string
	Background  string
	FindMatch   string // background of a search match
	FindCurrent string // background of the selected match
	Error       string // underline/background of an error line
	Tab         string // tab marker foreground
	Syntax      map[span.Style]string
}

// Color token names accepted in theme.colors.
const (
	TokenText        = "text"
	TokenBackground  = "background"
	TokenFindMatch   = "find.match"
	TokenFindCurrent = "find.current"
	TokenError       = "error"
	TokenTab         = "tab"
	syntaxPrefix     = "syntax."
)

// syntaxStyles are the styles a scheme colors.
var syntaxStyles = []span.Style{
	span.StyleKeyword,
	span.StyleType,
	span.StyleFunction,
	span.StyleString,
	span.StyleNumber,
	span.StyleComment,
	span.StyleOperator,
	span.StyleBuiltin,
}

var presets = map[string]Scheme{
	"darcula": {
		Text:        "#A9B7C6",
		Background:  "#2B2B2B",
		FindMatch:   "#32593D",
		FindCurrent: "#155221",
		Error:       "#BC3F3C",
		Tab:         "#4C5052",
		Syntax: map[span.Style]string{
			span.StyleKeyword:  "#CC7832",
			span.StyleType:     "#B5B6E3",
			span.StyleFunction: "#FFC66D",
			span.StyleString:   "#6A8759",
			span.StyleNumber:   "#6897BB",
			span.StyleComment:  "#808080",
			span.StyleOperator: "#A9B7C6",
			span.StyleBuiltin:  "#8888C6",
		},
	},
	"monokai": {
		Text:        "#F8F8F2",
		Background:  "#272822",
		FindMatch:   "#5A5A3C",
		FindCurrent: "#8A7D2B",
		Error:       "#F92672",
		Tab:         "#49483E",
		Syntax: map[span.Style]string{
			span.StyleKeyword:  "#F92672",
			span.StyleType:     "#66D9EF",
			span.StyleFunction: "#A6E22E",
			span.StyleString:   "#E6DB74",
			span.StyleNumber:   "#AE81FF",
			span.StyleComment:  "#75715E",
			span.StyleOperator: "#F92672",
			span.StyleBuiltin:  "#66D9EF",
		},
	},
	"solarized-light": {
		Text:        "#657B83",
		Background:  "#FDF6E3",
		FindMatch:   "#EEE8D5",
		FindCurrent: "#B58900",
		Error:       "#DC322F",
		Tab:         "#93A1A1",
		Syntax: map[span.Style]string{
			span.StyleKeyword:  "#859900",
			span.StyleType:     "#B58900",
			span.StyleFunction: "#268BD2",
			span.StyleString:   "#2AA198",
			span.StyleNumber:   "#D33682",
			span.StyleComment:  "#93A1A1",
			span.StyleOperator: "#657B83",
			span.StyleBuiltin:  "#CB4B16",
		},
	},
}

// PresetNames returns the built-in scheme names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns a copy of a built-in scheme.
func Preset(name string) (Scheme, bool) {
	s, ok := presets[name]
	if !ok {
		return Scheme{}, false
	}
	s.Syntax = make(map[span.Style]string, len(s.Syntax))
	for style, color := range presets[name].Syntax {
		s.Syntax[style] = color
	}
	return s, true
}

// Resolve builds the scheme for t: the preset (darcula when empty) with
// color overrides applied.
func (t ThemeConfig) Resolve() (Scheme, error) {
	name := t.Preset
	if name == "" {
		name = DefaultPreset
	}
	s, ok := Preset(name)
	if !ok {
		return Scheme{}, fmt.Errorf("theme.preset must be one of %s, got %q", strings.Join(PresetNames(), ", "), t.Preset)
	}

	for token, color := range t.FlattenedColors() {
		if !isHexColor(color) {
			return Scheme{}, fmt.Errorf("theme.colors.%s must be a hex color like \"#RRGGBB\", got %q", token, color)
		}
		if err := s.set(token, color); err != nil {
			return Scheme{}, err
		}
	}
	return s, nil
}

func (s *Scheme) set(token, color string) error {
	switch token {
	case TokenText:
		s.Text = color
	case TokenBackground:
		s.Background = color
	case TokenFindMatch:
		s.FindMatch = color
	case TokenFindCurrent:
		s.FindCurrent = color
	case TokenError:
		s.Error = color
	case TokenTab:
		s.Tab = color
	default:
		style := span.Style(strings.TrimPrefix(token, syntaxPrefix))
		if !strings.HasPrefix(token, syntaxPrefix) || !knownStyle(style) {
			return fmt.Errorf("theme.colors: unknown color token %q", token)
		}
		s.Syntax[style] = color
	}
	return nil
}

// SyntaxColor returns the color for a highlight style, falling back to the
// text color.
func (s Scheme) SyntaxColor(style span.Style) string {
	if c, ok := s.Syntax[style]; ok {
		return c
	}
	return s.Text
}

// ValidateTheme checks the preset and every color override.
func ValidateTheme(t ThemeConfig) error {
	_, err := t.Resolve()
	return err
}

func knownStyle(style span.Style) bool {
	for _, s := range syntaxStyles {
		if s == style {
			return true
		}
	}
	return false
}

func isHexColor(c string) bool {
	if len(c) != 4 && len(c) != 7 || c[0] != '#' {
		return false
	}
	for _, r := range c[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
