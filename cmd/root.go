// Package cmd implements the textcore command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/textcore/internal/config"
	"github.com/zjrosen/textcore/internal/find"
	"github.com/zjrosen/textcore/internal/lexer"
	"github.com/zjrosen/textcore/internal/log"
	"github.com/zjrosen/textcore/internal/session"
	"github.com/zjrosen/textcore/internal/tracing"
)

// DebugLogPath is where --debug writes its log.
const DebugLogPath = "textcore-debug.log"

var version = "dev"

// app is the state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	debug   bool

	cfg      config.Config
	cfgPath  string // file the config was read from, "" for defaults
	scheme   config.Scheme
	provider *tracing.Provider
	patterns find.PatternCache
	closeLog func()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "textcore",
		Short: "Incremental highlighting, search and replace for text documents",
		Long: `textcore keeps syntax highlighting, search matches and error markers in
step with a document as it is edited.

It renders highlighted viewports, lists and replaces matches, and watches
files for changes. Existing spans shift with each edit while the whole
document is re-tokenized in the background.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: .textcore/config.yaml, then ~/.config/textcore/config.yaml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false,
		"write a debug log to "+DebugLogPath+" (also enabled by "+log.EnvDebug+")")

	root.AddCommand(
		newViewCmd(a),
		newFindCmd(a),
		newWatchCmd(a),
		newThemesCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.debug || log.DebugRequested() {
		closeLog, err := log.InitWithTeaLog(DebugLogPath, "textcore")
		if err != nil {
			return fmt.Errorf("initializing debug log: %w", err)
		}
		a.closeLog = closeLog
	}

	cfg, path, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	scheme, err := cfg.Theme.Resolve()
	if err != nil {
		return err
	}
	a.cfg, a.cfgPath, a.scheme = cfg, path, scheme
	log.Debug(log.CatCLI, "Starting", "command", cmd.Name(), "config", path)

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	a.provider = provider
	a.patterns = find.NewPatternCache(cfg.Find.CacheTTL)
	return nil
}

func (a *app) teardown() error {
	var err error
	if a.provider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := a.provider.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("flushing traces: %w", shutdownErr)
		}
	}
	if a.closeLog != nil {
		log.Close()
		a.closeLog = nil
	}
	return err
}

func (a *app) tracer() trace.Tracer {
	if a.provider == nil {
		return tracing.Noop()
	}
	return a.provider.Tracer()
}

// registry builds the language registry from configuration.
func (a *app) registry() *lexer.Registry {
	langs := a.cfg.GetLanguages()
	out := make([]lexer.Language, 0, len(langs))
	for _, l := range langs {
		out = append(out, lexer.Language{Name: l.Name, Lexer: l.Lexer, Extensions: l.Extensions})
	}
	return lexer.NewRegistry(out...)
}

// openSession creates a session over text with the language picked from
// path. Files without a known language are shown without highlighting.
func (a *app) openSession(path, text string) (*session.Session, error) {
	s := session.New(text,
		session.WithTabWidth(a.cfg.Editor.TabWidth),
		session.WithSpaces(a.cfg.Editor.UseSpaces),
		session.WithHighlighting(a.cfg.Highlight.Enabled),
		session.WithDebounce(a.cfg.Highlight.Debounce),
		session.WithMatchTimeout(a.cfg.Find.MatchTimeout),
		session.WithPatternCache(a.patterns, a.cfg.Find.CacheTTL),
		session.WithTracer(a.tracer()),
		session.WithRegistry(a.registry()),
	)
	if err := s.SetLanguageFor(path); err != nil {
		if !errors.Is(err, lexer.ErrUnknownLanguage) {
			s.Close()
			return nil, err
		}
		log.Debug(log.CatCLI, "No language for file", "path", path)
	}
	return s, nil
}

// readDocument reads a file to edit.
func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-supplied document path
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
