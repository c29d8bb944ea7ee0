package edit

import (
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffTimeout bounds the diff computation used by Diff.
// Past the timeout the diff degrades to a coarser (still correct) result.
const DiffTimeout = 100 * time.Millisecond

// Diff returns the changes that turn oldText into newText.
// Changes are ordered by ascending offset and each change's From is
// expressed in the coordinates of the text after the previous changes
// were applied, so they can be fed to an edit pipeline one by one.
func Diff(oldText, newText string) []Change {
	if oldText == newText {
		return nil
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = DiffTimeout
	diffs := dmp.DiffMain(oldText, newText, false)

	var changes []Change
	pos := 0
	var pending *Change
	flush := func() {
		if pending != nil {
			changes = append(changes, *pending)
			pos = pending.From + len(pending.Text)
			pending = nil
		}
	}

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			pos += len(d.Text)
		case diffmatchpatch.DiffDelete:
			if pending == nil {
				pending = &Change{From: pos}
			}
			pending.Removed += len(d.Text)
		case diffmatchpatch.DiffInsert:
			if pending == nil {
				pending = &Change{From: pos}
			}
			pending.Text += d.Text
		}
	}
	flush()

	return changes
}
