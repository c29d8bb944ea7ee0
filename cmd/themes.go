package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/textcore/internal/config"
	"github.com/zjrosen/textcore/internal/span"
)

func newThemesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List the built-in color schemes",
		Long: `List the built-in color schemes. The active preset is marked with "*".

Select one with:
  textcore config set theme.preset monokai`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, name := range config.PresetNames() {
				scheme, _ := config.Preset(name)
				marker := " "
				if name == a.cfg.Theme.Preset {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-16s %s\n", marker, name, swatch(scheme))
			}
			return nil
		},
	}
}

// swatch renders a short sample of a scheme's syntax colors.
func swatch(s config.Scheme) string {
	bg := lipgloss.Color(s.Background)
	samples := []struct {
		style span.Style
		text  string
	}{
		{span.StyleKeyword, "def"},
		{span.StyleFunction, "main"},
		{span.StyleString, `"hi"`},
		{span.StyleNumber, "42"},
		{span.StyleComment, "# note"},
	}
	parts := make([]string, 0, len(samples))
	for _, sm := range samples {
		st := lipgloss.NewStyle().Background(bg).Foreground(lipgloss.Color(s.SyntaxColor(sm.style)))
		parts = append(parts, st.Render(sm.text))
	}
	return strings.Join(parts, " ")
}
