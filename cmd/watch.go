package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/textcore/internal/config"
	"github.com/zjrosen/textcore/internal/highlight"
	"github.com/zjrosen/textcore/internal/log"
	"github.com/zjrosen/textcore/internal/pubsub"
	"github.com/zjrosen/textcore/internal/session"
	"github.com/zjrosen/textcore/internal/span"
	"github.com/zjrosen/textcore/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Follow a file and rehighlight it as it changes",
		Long: `Watch FILE and apply every change on disk as a minimal edit, so only the
changed regions lose their highlighting until the next run completes.

By default a full-screen view shows the top of the file and live span
counts. With --plain one status line is printed per completed highlight
run until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd, args[0], plain)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print status lines instead of the full-screen view")
	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, path string, plain bool) error {
	text, err := readDocument(path)
	if err != nil {
		return err
	}
	s, err := a.openSession(path, text)
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if plain {
		reloads := w.Subscribe(ctx)
		highlights := s.Subscribe(ctx)
		if err := w.Start(); err != nil {
			return err
		}
		return watchPlain(ctx, cmd, s, reloads, highlights)
	}

	m := newWatchModel(ctx, path, s, w, a.scheme)
	if err := w.Start(); err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// watchPlain prints a status line after each highlight install until ctx
// is done.
func watchPlain(ctx context.Context, cmd *cobra.Command, s *session.Session,
	reloads <-chan pubsub.Event[watcher.Document], highlights <-chan pubsub.Event[highlight.Result]) error {
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-reloads:
			if !ok {
				return nil
			}
			n, err := s.SyncText(ev.Payload.Text)
			if err != nil {
				return err
			}
			log.Debug(log.CatCLI, "Applied reload", "changes", n)
		case ev, ok := <-highlights:
			if !ok {
				return nil
			}
			fmt.Fprintln(out, statusLine(s, ev.Payload))
		}
	}
}

// statusLine summarizes the spans of a session.
func statusLine(s *session.Session, res highlight.Result) string {
	store := s.Spans()
	return fmt.Sprintf("gen %d %s  lines %d  highlight %d  find %d  error %d  (%s)",
		res.Generation, res.Outcome, s.Lines().LineCount(),
		store.Count(span.Highlight), store.Count(span.Find), store.Count(span.Error),
		res.Elapsed.Round(100_000))
}

// ============================================================================
// Full-screen view
// ============================================================================

type watchKeys struct {
	Quit key.Binding
	Down key.Binding
	Up   key.Binding
}

var defaultWatchKeys = watchKeys{
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Down: key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "scroll down")),
	Up:   key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "scroll up")),
}

type watchModel struct {
	path   string
	s      *session.Session
	scheme config.Scheme
	keys   watchKeys

	highlights *pubsub.Listener[highlight.Result]
	reloads    *pubsub.Listener[watcher.Document]
	logs       *log.Listener

	width, height int
	scrollY       int
	last          highlight.Result
	reloaded      int
	lastLog       string
	err           error
}

func newWatchModel(ctx context.Context, path string, s *session.Session, w *watcher.Watcher, scheme config.Scheme) watchModel {
	return watchModel{
		path:       path,
		s:          s,
		scheme:     scheme,
		keys:       defaultWatchKeys,
		highlights: pubsub.NewListener[highlight.Result](ctx, s.Broker()),
		reloads:    pubsub.NewListener[watcher.Document](ctx, w),
		logs:       log.NewListener(ctx),
		height:     24,
	}
}

func (m watchModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.highlights.Listen(), m.reloads.Listen()}
	if m.logs != nil {
		cmds = append(cmds, m.logs.Listen())
	}
	return tea.Batch(cmds...)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pubsub.Event[highlight.Result]:
		m.last = msg.Payload
		return m, m.highlights.Listen()

	case pubsub.Event[watcher.Document]:
		if _, err := m.s.SyncText(msg.Payload.Text); err != nil {
			m.err = err
		}
		m.reloaded++
		m.scrollY = min(m.scrollY, m.s.Lines().LineCount()-1)
		return m, m.reloads.Listen()

	case pubsub.Event[string]:
		m.lastLog = strings.TrimSpace(msg.Payload)
		return m, m.logs.Listen()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Down):
			m.scrollY = min(m.scrollY+1, m.s.Lines().LineCount()-1)
		case key.Matches(msg, m.keys.Up):
			m.scrollY = max(m.scrollY-1, 0)
		}
	}
	return m, nil
}

// bodyHeight is the number of document lines that fit between the header
// and the footer.
func (m watchModel) bodyHeight() int {
	return max(m.height-3, 1)
}

func (m watchModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Render(m.path) + "  " + statusLine(m.s, m.last)

	// Viewport includes a line of overscan; drop it so the footer stays put
	start, _ := m.s.Viewport(m.scrollY, m.bodyHeight()-1, 1)
	top := m.s.Lines().LineForOffset(start)
	bottom := min(top+m.bodyHeight()-1, m.s.Lines().LineCount()-1)
	start, end, err := m.s.Lines().ViewportRange(top, bottom)
	body := ""
	if err == nil {
		p := newPainter(m.scheme, m.s.TabWidth())
		f := m.s.Render(p, start, end)
		body = p.paint(m.s.Text(), f, top)
	}

	footer := fmt.Sprintf("reloads %d  %s  %s  %s",
		m.reloaded, m.keys.Down.Help().Key+" "+m.keys.Down.Help().Desc,
		m.keys.Up.Help().Key+" "+m.keys.Up.Help().Desc,
		m.keys.Quit.Help().Key+" "+m.keys.Quit.Help().Desc)
	if m.err != nil {
		footer += "  error: " + m.err.Error()
	} else if m.lastLog != "" {
		footer += "  " + m.lastLog
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
