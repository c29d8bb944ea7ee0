package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/textcore/internal/config"
	"github.com/zjrosen/textcore/internal/lines"
	"github.com/zjrosen/textcore/internal/session"
	"github.com/zjrosen/textcore/internal/span"
)

// painter is a session.Surface that renders a frame as styled terminal
// text with a line number gutter.
type painter struct {
	scheme   config.Scheme
	tabWidth int
	spans    map[span.Kind][]span.Span
}

var _ session.Surface = (*painter)(nil)

func newPainter(scheme config.Scheme, tabWidth int) *painter {
	return &painter{
		scheme:   scheme,
		tabWidth: tabWidth,
		spans:    make(map[span.Kind][]span.Span),
	}
}

func (p *painter) Draw(kind span.Kind, spans []span.Span) {
	p.spans[kind] = spans
}

// cell is the decoration of one byte.
type cell struct {
	style   span.Style
	styled  bool
	find    bool
	current bool
	err     bool
}

// paint renders text[f.Start:f.End]. firstLine is the 0-based number of the
// line containing f.Start.
func (p *painter) paint(text string, f session.Frame, firstLine int) string {
	n := f.End - f.Start
	cells := make([]cell, n)

	mark := func(spans []span.Span, fn func(c *cell, i int)) {
		for i, sp := range spans {
			for off := sp.Start; off < sp.End; off++ {
				fn(&cells[off-f.Start], i)
			}
		}
	}
	mark(p.spans[span.Highlight], func(c *cell, i int) {
		c.style, c.styled = p.spans[span.Highlight][i].Style, true
	})
	mark(p.spans[span.Find], func(c *cell, i int) {
		c.find = true
		c.current = i == f.Current
	})
	mark(p.spans[span.Error], func(c *cell, _ int) {
		c.err = true
	})
	tabs := make(map[int]bool, len(p.spans[span.Tab]))
	for _, sp := range p.spans[span.Tab] {
		tabs[sp.Start] = true
	}

	var b strings.Builder
	line := firstLine
	lineStart := f.Start
	gutter := lipgloss.NewStyle().Foreground(lipgloss.Color(p.scheme.Tab))
	b.WriteString(gutter.Render(fmt.Sprintf("%4d │ ", line+1)))

	runStart := 0
	flush := func(end int) {
		if end > runStart {
			b.WriteString(p.style(cells[runStart]).Render(text[f.Start+runStart : f.Start+end]))
		}
		runStart = end
	}

	for i := 0; i < n; i++ {
		ch := text[f.Start+i]
		switch {
		case ch == '\n':
			flush(i)
			b.WriteByte('\n')
			line++
			lineStart = f.Start + i + 1
			b.WriteString(gutter.Render(fmt.Sprintf("%4d │ ", line+1)))
			runStart = i + 1
		case ch == '\t' && tabs[f.Start+i]:
			flush(i)
			marker := "→" + strings.Repeat(" ", p.tabStop(text[lineStart:f.Start+i])-1)
			b.WriteString(p.style(cells[i]).Foreground(lipgloss.Color(p.scheme.Tab)).Render(marker))
			runStart = i + 1
		case i > runStart && cells[i] != cells[runStart]:
			flush(i)
		}
	}
	flush(n)
	return b.String()
}

// tabStop returns the width of a tab drawn after prefix.
func (p *painter) tabStop(prefix string) int {
	width := max(p.tabWidth, 1)
	return width - lines.DisplayColumn(prefix, len(prefix), width)%width
}

// style maps a cell to its lipgloss style.
func (p *painter) style(c cell) lipgloss.Style {
	st := lipgloss.NewStyle().Foreground(lipgloss.Color(p.scheme.Text))
	if c.styled {
		st = st.Foreground(lipgloss.Color(p.scheme.SyntaxColor(c.style)))
	}
	if c.find {
		bg := p.scheme.FindMatch
		if c.current {
			bg = p.scheme.FindCurrent
		}
		st = st.Background(lipgloss.Color(bg))
	}
	if c.err {
		st = st.Underline(true).UnderlineSpaces(true).Foreground(lipgloss.Color(p.scheme.Error))
	}
	return st
}
