// Package span holds the typed byte ranges that decorate a document.
//
// Spans are immutable values. Every mutation of a Store publishes a new
// snapshot, so readers such as the renderer never observe a collection that
// is half way through an edit or a highlight install.
package span

import (
	"fmt"

	"github.com/zjrosen/textcore/internal/edit"
)

// Kind identifies which collection a span belongs to.
type Kind int

const (
	Highlight Kind = iota // syntax highlight ranges from a tokenizer run
	Find                  // search matches
	Error                 // error line markers
	Tab                   // tab width markers, computed per viewport and never stored
)

// storedKinds is the number of kinds kept in a Store.
const storedKinds = 3

func (k Kind) String() string {
	switch k {
	case Highlight:
		return "highlight"
	case Find:
		return "find"
	case Error:
		return "error"
	case Tab:
		return "tab"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Style names the visual treatment of a span, e.g. "keyword" or "comment".
// Find, error and tab spans usually leave it empty and are styled by kind.
type Style string

// Common highlight styles produced by tokenizers.
const (
	StyleKeyword  Style = "keyword"
	StyleType     Style = "type"
	StyleFunction Style = "function"
	StyleString   Style = "string"
	StyleNumber   Style = "number"
	StyleComment  Style = "comment"
	StyleOperator Style = "operator"
	StyleBuiltin  Style = "builtin"
)

// Span is a byte range [Start, End] of the document.
type Span struct {
	Start int
	End   int
	Kind  Kind
	Style Style
}

// Len returns End - Start.
func (s Span) Len() int {
	return s.End - s.Start
}

// Valid reports whether the span can be rendered against a document of
// the given length.
func (s Span) Valid(length int) bool {
	return s.Start >= 0 && s.End <= length && s.Start <= s.End
}

// Overlaps reports whether the span touches the closed range [lo, hi].
func (s Span) Overlaps(lo, hi int) bool {
	return s.Start <= hi && s.End >= lo
}

// Contains reports whether offset lies inside the closed range [Start, End].
func (s Span) Contains(offset int) bool {
	return s.Start <= offset && offset <= s.End
}

// Clip returns the span clamped to [lo, hi].
func (s Span) Clip(lo, hi int) Span {
	if s.Start < lo {
		s.Start = lo
	}
	if s.End > hi {
		s.End = hi
	}
	return s
}

// Shift returns the span moved for an edit.
//
// Highlight and error spans move their start when the edit point is at or
// before it, and their end likewise. Find spans move a bound only when the
// edit point is strictly before it, so typing right after a match leaves it
// alone and typing at its head grows it without pushing it.
func (s Span) Shift(d edit.Delta) Span {
	net := d.Net()
	if s.Kind == Find {
		if s.Start > d.From {
			s.Start += net
		}
		if s.End > d.From {
			s.End += net
		}
		return s
	}
	if s.Start >= d.From {
		s.Start += net
	}
	if s.End >= d.From {
		s.End += net
	}
	return s
}

func (s Span) String() string {
	if s.Style != "" {
		return fmt.Sprintf("%s[%d,%d]:%s", s.Kind, s.Start, s.End, s.Style)
	}
	return fmt.Sprintf("%s[%d,%d]", s.Kind, s.Start, s.End)
}
