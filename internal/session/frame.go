package session

import (
	"github.com/zjrosen/textcore/internal/span"
)

// Surface draws the decorations of one frame. Spans arrive clipped to the
// viewport and sorted by Start.
type Surface interface {
	Draw(kind span.Kind, spans []span.Span)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(kind span.Kind, spans []span.Span)

func (f SurfaceFunc) Draw(kind span.Kind, spans []span.Span) {
	f(kind, spans)
}

// Frame is everything a surface needs to paint a viewport.
type Frame struct {
	Start, End int // viewport offsets

	Highlights []span.Span
	Finds      []span.Span
	Errors     []span.Span
	Tabs       []span.Span

	// Current is the index into Finds of the selected match, or -1.
	Current int
}

// Spans returns the frame's spans of a kind.
func (f Frame) Spans(kind span.Kind) []span.Span {
	switch kind {
	case span.Highlight:
		return f.Highlights
	case span.Find:
		return f.Finds
	case span.Error:
		return f.Errors
	case span.Tab:
		return f.Tabs
	}
	return nil
}

// drawOrder paints find and error markers over syntax colors.
var drawOrder = []span.Kind{span.Highlight, span.Tab, span.Find, span.Error}

// Frame collects the decorations visible in [vpStart, vpEnd]. The range
// is clamped into the document.
func (s *Session) Frame(vpStart, vpEnd int) Frame {
	vpStart, vpEnd = clampRange(vpStart, vpEnd, len(s.text))
	f := Frame{
		Start:      vpStart,
		End:        vpEnd,
		Highlights: s.spans.VisibleSlice(vpStart, vpEnd, span.Highlight),
		Finds:      s.spans.VisibleSlice(vpStart, vpEnd, span.Find),
		Errors:     s.spans.VisibleSlice(vpStart, vpEnd, span.Error),
		Tabs:       s.tabSpans(vpStart, vpEnd),
		Current:    -1,
	}
	if cur, ok := s.finder.Current(); ok {
		for i, m := range f.Finds {
			if m.Start >= cur.Start && m.End <= cur.End && m.Start < m.End {
				f.Current = i
				break
			}
		}
	}
	return f
}

// Render draws the frame for [vpStart, vpEnd] onto surface.
func (s *Session) Render(surface Surface, vpStart, vpEnd int) Frame {
	f := s.Frame(vpStart, vpEnd)
	for _, kind := range drawOrder {
		surface.Draw(kind, f.Spans(kind))
	}
	return f
}

// tabSpans marks tab characters when indentation uses tabs. Tab markers
// are derived from the text on demand and never stored.
func (s *Session) tabSpans(vpStart, vpEnd int) []span.Span {
	if s.useSpaces {
		return nil
	}
	var tabs []span.Span
	for i := vpStart; i < vpEnd; i++ {
		if s.text[i] == '\t' {
			tabs = append(tabs, span.Span{Start: i, End: i + 1, Kind: span.Tab})
		}
	}
	return tabs
}

func clampRange(lo, hi, length int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > length {
		hi = length
	}
	if hi < 0 {
		hi = 0
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}
