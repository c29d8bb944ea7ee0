package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/textcore/internal/find"
	"github.com/zjrosen/textcore/internal/log"
)

type viewOptions struct {
	line      int
	height    int
	query     string
	params    find.Params
	errorLine int
}

func newViewCmd(a *app) *cobra.Command {
	var opts viewOptions

	cmd := &cobra.Command{
		Use:   "view FILE",
		Short: "Print a highlighted viewport of a file",
		Long: `Print a window of a file with syntax highlighting, search matches and an
optional error marker.

Examples:
  # First 40 lines
  textcore view main.py

  # 20 lines starting at line 100, with matches of "def" overlaid
  textcore view main.py --line 100 --height 20 --find def

  # Mark line 12 as erroneous
  textcore view main.py --error-line 12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.params.Query = opts.query
			return a.runView(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.line, "line", "l", 1, "first line to show (1-based)")
	cmd.Flags().IntVarP(&opts.height, "height", "H", 40, "number of lines to show")
	cmd.Flags().StringVarP(&opts.query, "find", "f", "", "overlay matches of this query")
	addFindFlags(cmd, &opts.params)
	cmd.Flags().IntVar(&opts.errorLine, "error-line", 0, "mark this line (1-based) as an error")
	return cmd
}

// addFindFlags registers the search option flags shared by view and find.
func addFindFlags(cmd *cobra.Command, p *find.Params) {
	cmd.Flags().BoolVarP(&p.Regex, "regex", "r", false, "treat the query as a regular expression")
	cmd.Flags().BoolVarP(&p.MatchCase, "match-case", "m", false, "match case")
	cmd.Flags().BoolVarP(&p.WordsOnly, "words", "w", false, "only match whole words surrounded by whitespace")
}

func (a *app) runView(cmd *cobra.Command, path string, opts viewOptions) error {
	if opts.height < 1 {
		return fmt.Errorf("--height must be at least 1, got %d", opts.height)
	}

	text, err := readDocument(path)
	if err != nil {
		return err
	}
	s, err := a.openSession(path, text)
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.params.Query != "" {
		if _, err := s.Find(cmd.Context(), opts.params); err != nil {
			return fmt.Errorf("find %s: %w", opts.params, err)
		}
	}
	if opts.errorLine > 0 {
		if err := s.SetErrorLine(opts.errorLine); err != nil {
			return err
		}
	}
	s.WaitHighlight()

	idx := s.Lines()
	top := min(max(opts.line-1, 0), idx.LineCount()-1)
	bottom := min(top+opts.height-1, idx.LineCount()-1)
	start, end, err := idx.ViewportRange(top, bottom)
	if err != nil {
		return err
	}

	p := newPainter(a.scheme, s.TabWidth())
	f := s.Render(p, start, end)
	log.Debug(log.CatCLI, "Rendered viewport",
		"path", path, "start", start, "end", end,
		"highlights", len(f.Highlights), "finds", len(f.Finds), "errors", len(f.Errors))

	fmt.Fprintln(cmd.OutOrStdout(), p.paint(s.Text(), f, top))
	return nil
}
