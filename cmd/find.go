package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/textcore/internal/find"
	"github.com/zjrosen/textcore/internal/lines"
	"github.com/zjrosen/textcore/internal/log"
	"github.com/zjrosen/textcore/internal/session"
)

type findOptions struct {
	params  find.Params
	replace string
	all     bool
	index   int
	write   bool
}

func newFindCmd(a *app) *cobra.Command {
	var opts findOptions

	cmd := &cobra.Command{
		Use:   "find FILE QUERY",
		Short: "List or replace matches in a file",
		Long: `List the matches of QUERY in FILE as "line:col start-end text", one per
line. Lines and columns are 1-based; start and end are byte offsets.

With --replace the selected match (--index, default the first) or every
match (--all) is replaced. The result is printed, or written back to FILE
with --write.

Examples:
  # Literal, case-insensitive search
  textcore find main.py todo

  # Regular expression, case-sensitive
  textcore find main.py 'def \w+' --regex --match-case

  # Rename a symbol in place
  textcore find main.py old_name --words --replace ' new_name ' --all --write`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.params.Query = args[1]
			return a.runFind(cmd, args[0], opts)
		},
	}

	addFindFlags(cmd, &opts.params)
	cmd.Flags().StringVar(&opts.replace, "replace", "", "replace matches with this text")
	cmd.Flags().BoolVar(&opts.all, "all", false, "with --replace, replace every match")
	cmd.Flags().IntVar(&opts.index, "index", 0, "with --replace, the match to replace (0-based)")
	cmd.Flags().BoolVar(&opts.write, "write", false, "with --replace, write the result back to FILE")
	return cmd
}

func (a *app) runFind(cmd *cobra.Command, path string, opts findOptions) error {
	replacing := cmd.Flags().Changed("replace")
	if !replacing && (opts.all || opts.write || cmd.Flags().Changed("index")) {
		return fmt.Errorf("--all, --index and --write require --replace")
	}

	text, err := readDocument(path)
	if err != nil {
		return err
	}
	// highlighting is not needed to search
	a.cfg.Highlight.Enabled = false
	s, err := a.openSession(path, text)
	if err != nil {
		return err
	}
	defer s.Close()

	matches, err := s.Find(cmd.Context(), opts.params)
	if err != nil {
		return fmt.Errorf("find %s: %w", opts.params, err)
	}

	if !replacing {
		out := cmd.OutOrStdout()
		for _, m := range matches {
			fmt.Fprintln(out, formatMatch(s, m.Start, m.End))
		}
		log.Debug(log.CatCLI, "Listed matches", "path", path, "params", opts.params, "count", len(matches))
		return nil
	}

	n, err := replaceMatches(s, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "replaced %d of %d matches\n", n, len(matches))

	if opts.write {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if err := os.WriteFile(path, []byte(s.Text()), info.Mode().Perm()); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), s.Text())
	return nil
}

func replaceMatches(s *session.Session, opts findOptions) (int, error) {
	if opts.all {
		return s.ReplaceAll(opts.replace)
	}
	count := len(s.Matches())
	if count == 0 {
		return 0, nil
	}
	if opts.index < 0 || opts.index >= count {
		return 0, fmt.Errorf("--index %d out of range (have %d matches)", opts.index, count)
	}
	for i := 0; i < opts.index; i++ {
		s.FindNext()
	}
	ok, err := s.ReplaceOne(opts.replace)
	if err != nil || !ok {
		return 0, err
	}
	return 1, nil
}

// formatMatch renders "line:col start-end text" with a 1-based line and
// grapheme column. Newlines inside a match are shown escaped.
func formatMatch(s *session.Session, start, end int) string {
	line, col := s.Lines().Position(start)
	lineStart, _ := s.Lines().StartOfLine(line)
	lineEnd, _ := s.Lines().EndOfLine(line)
	column := lines.GraphemeColumn(s.Text()[lineStart:lineEnd], col)

	matched := strings.ReplaceAll(s.Text()[start:end], "\n", `\n`)
	return fmt.Sprintf("%d:%d %d-%d %s", line+1, column+1, start, end, matched)
}
