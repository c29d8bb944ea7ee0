// Package edit describes text mutations as the deltas every shifting structure consumes.
package edit

import "fmt"

// Delta describes one text mutation: Removed bytes starting at From were
// replaced by Inserted bytes.
type Delta struct {
	From     int
	Removed  int
	Inserted int
}

// Net returns the change in document length caused by the delta.
func (d Delta) Net() int {
	return d.Inserted - d.Removed
}

// End returns the end of the removed range in pre-edit coordinates.
func (d Delta) End() int {
	return d.From + d.Removed
}

// IsNoop reports whether the delta neither removes nor inserts anything.
func (d Delta) IsNoop() bool {
	return d.Removed == 0 && d.Inserted == 0
}

func (d Delta) String() string {
	return fmt.Sprintf("delta{from=%d removed=%d inserted=%d}", d.From, d.Removed, d.Inserted)
}

// Change is a delta together with the text it inserts.
// LineIndex needs the inserted text to find new line breaks.
type Change struct {
	From    int
	Removed int
	Text    string
}

// Delta returns the length-only description of the change.
func (c Change) Delta() Delta {
	return Delta{From: c.From, Removed: c.Removed, Inserted: len(c.Text)}
}

// Apply returns text with the change applied.
// The caller guarantees the change lies inside text.
func (c Change) Apply(text string) string {
	return text[:c.From] + c.Text + text[c.From+c.Removed:]
}

// Validate reports an error when the change does not fit a document of
// the given length.
func (c Change) Validate(length int) error {
	if c.From < 0 || c.Removed < 0 || c.From+c.Removed > length {
		return fmt.Errorf("change [%d,%d) outside document of length %d", c.From, c.From+c.Removed, length)
	}
	return nil
}
