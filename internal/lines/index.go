// Package lines maps between absolute byte offsets and line numbers.
//
// The Index keeps one start offset per line plus a sentinel equal to
// length+1, so the end of any line (including the last) is the next entry
// minus one. The index is updated incrementally from edit deltas and never
// rescans the whole document after construction.
package lines

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zjrosen/textcore/internal/edit"
)

// ErrOutOfRange is returned for line numbers or edits outside the document.
var ErrOutOfRange = errors.New("out of range")

// ErrDeltaMismatch is returned when a delta's inserted length disagrees
// with the inserted text handed to ApplyEdit.
var ErrDeltaMismatch = errors.New("delta does not match inserted text")

// Index is an ordered set of line-start offsets.
// The zero value is not usable; call New.
type Index struct {
	starts []int // line starts followed by the length+1 sentinel
	length int
}

// New builds an index for text.
func New(text string) *Index {
	x := &Index{}
	x.Reset(text)
	return x
}

// Reset rebuilds the index from scratch for text.
func (x *Index) Reset(text string) {
	starts := make([]int, 1, strings.Count(text, "\n")+2)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	x.starts = append(starts, len(text)+1)
	x.length = len(text)
}

// LineCount returns the number of lines; an empty document has one line.
func (x *Index) LineCount() int {
	return len(x.starts) - 1
}

// Len returns the document length the index was last updated to.
func (x *Index) Len() int {
	return x.length
}

// LineForOffset returns the last line whose start is <= offset.
// Offsets are clamped to [0, Len()].
func (x *Index) LineForOffset(offset int) int {
	offset = x.clamp(offset)
	n := x.LineCount()
	// first line whose start is > offset, minus one
	return sort.Search(n, func(i int) bool { return x.starts[i] > offset }) - 1
}

// StartOfLine returns the offset of the first byte of line.
func (x *Index) StartOfLine(line int) (int, error) {
	if line < 0 || line >= x.LineCount() {
		return 0, fmt.Errorf("line %d of %d: %w", line, x.LineCount(), ErrOutOfRange)
	}
	return x.starts[line], nil
}

// EndOfLine returns the offset of the line's terminating newline, or the
// document length for the last line.
func (x *Index) EndOfLine(line int) (int, error) {
	if line < 0 || line >= x.LineCount() {
		return 0, fmt.Errorf("line %d of %d: %w", line, x.LineCount(), ErrOutOfRange)
	}
	return x.starts[line+1] - 1, nil
}

// Position converts an offset into a (line, byte column) pair.
func (x *Index) Position(offset int) (line, col int) {
	offset = x.clamp(offset)
	line = x.LineForOffset(offset)
	return line, offset - x.starts[line]
}

// Offset converts a (line, byte column) pair into an absolute offset.
// Columns past the end of the line are rejected.
func (x *Index) Offset(line, col int) (int, error) {
	start, err := x.StartOfLine(line)
	if err != nil {
		return 0, err
	}
	end, _ := x.EndOfLine(line)
	if col < 0 || start+col > end {
		return 0, fmt.Errorf("column %d on line %d: %w", col, line, ErrOutOfRange)
	}
	return start + col, nil
}

// ApplyEdit updates the index for a mutation of the document.
//
// Line starts inside (From, From+Removed] belong to removed newlines and
// are dropped; starts after the removed range move by the net delta; a
// new start is added after every newline of inserted. A start equal to
// From is the line being edited and stays put.
func (x *Index) ApplyEdit(d edit.Delta, inserted string) error {
	if d.From < 0 || d.Removed < 0 || d.End() > x.length {
		return fmt.Errorf("apply %s to length %d: %w", d, x.length, ErrOutOfRange)
	}
	if d.Inserted != len(inserted) {
		return fmt.Errorf("apply %s with %d inserted bytes: %w", d, len(inserted), ErrDeltaMismatch)
	}

	// the sentinel is length+1 > End, so it is never dropped
	lo := sort.SearchInts(x.starts, d.From+1)
	hi := sort.SearchInts(x.starts, d.End()+1)

	var added []int
	for i := 0; i < len(inserted); i++ {
		if inserted[i] == '\n' {
			added = append(added, d.From+i+1)
		}
	}

	net := d.Net()
	tail := x.starts[hi:]
	starts := make([]int, 0, lo+len(added)+len(tail))
	starts = append(starts, x.starts[:lo]...)
	starts = append(starts, added...)
	for _, s := range tail {
		starts = append(starts, s+net)
	}

	x.starts = starts
	x.length += net
	return nil
}

// VisibleLines returns the first and last line intersecting a vertical
// scroll window, given a uniform line height. Both are clamped into the
// document. The bottom line includes one line of overscan.
func (x *Index) VisibleLines(scrollY, height, lineHeight int) (top, bottom int) {
	if lineHeight <= 0 {
		return 0, 0
	}
	last := x.LineCount() - 1

	top = scrollY / lineHeight
	if top < 0 {
		top = 0
	}
	if top > last {
		top = last
	}

	bottom = (scrollY+height)/lineHeight + 1
	if bottom < 0 {
		bottom = 0
	}
	if bottom > last {
		bottom = last
	}
	return top, bottom
}

// ViewportRange returns the offsets spanning lines top through bottom.
func (x *Index) ViewportRange(top, bottom int) (start, end int, err error) {
	if top > bottom {
		return 0, 0, fmt.Errorf("viewport lines %d..%d: %w", top, bottom, ErrOutOfRange)
	}
	if start, err = x.StartOfLine(top); err != nil {
		return 0, 0, err
	}
	if end, err = x.EndOfLine(bottom); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func (x *Index) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > x.length {
		return x.length
	}
	return offset
}
