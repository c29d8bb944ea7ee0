package span

import (
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/zjrosen/textcore/internal/edit"
	"github.com/zjrosen/textcore/internal/log"
)

// snapshot is one published state of a Store. It is never mutated after
// being stored.
type snapshot struct {
	sets     [storedKinds][]Span
	versions [storedKinds]uint64
	length   int
}

// Store keeps the highlight, find and error collections of a document,
// each ordered by Start.
//
// Reads are lock-free and safe from any goroutine. Writes serialize on a
// mutex and publish a fresh snapshot, which makes ReplaceHighlights atomic
// with respect to VisibleSlice.
type Store struct {
	mu  sync.Mutex
	cur atomic.Pointer[snapshot]
}

// NewStore creates an empty store for a document of the given length.
func NewStore(length int) *Store {
	s := &Store{}
	s.cur.Store(&snapshot{length: length})
	return s
}

// Len returns the document length the store was last shifted to.
func (s *Store) Len() int {
	return s.cur.Load().length
}

// Version returns a counter that changes every time the kind's collection
// changes.
func (s *Store) Version(kind Kind) uint64 {
	if !stored(kind) {
		return 0
	}
	return s.cur.Load().versions[kind]
}

// Spans returns a copy of every span of kind, ordered by Start.
func (s *Store) Spans(kind Kind) []Span {
	if !stored(kind) {
		return nil
	}
	return slices.Clone(s.cur.Load().sets[kind])
}

// Count returns the number of spans of kind.
func (s *Store) Count(kind Kind) int {
	if !stored(kind) {
		return 0
	}
	return len(s.cur.Load().sets[kind])
}

// At returns the i-th span of kind.
func (s *Store) At(kind Kind, i int) (Span, bool) {
	if !stored(kind) {
		return Span{}, false
	}
	set := s.cur.Load().sets[kind]
	if i < 0 || i >= len(set) {
		return Span{}, false
	}
	return set[i], true
}

// Reset drops every span and sets the document length.
func (s *Store) Reset(length int) {
	s.update(func(next *snapshot) {
		for k := range next.sets {
			if next.sets[k] != nil {
				next.sets[k] = nil
				next.versions[k]++
			}
		}
		next.length = length
	})
}

// Shift moves every stored span for an edit and prunes the ones that
// collapsed to Start > End. Error spans containing the edit point are
// discarded, and so are find spans whose text the edit touched.
func (s *Store) Shift(d edit.Delta) {
	if d.IsNoop() {
		return
	}
	pruned := 0
	s.update(func(next *snapshot) {
		for k := range next.sets {
			old := next.sets[k]
			if len(old) == 0 {
				continue
			}
			shifted := make([]Span, 0, len(old))
			for _, sp := range old {
				if Kind(k) == Error && sp.Contains(d.From) {
					pruned++
					continue
				}
				if Kind(k) == Find && matchTouched(sp, d) {
					pruned++
					continue
				}
				sp = sp.Shift(d)
				if sp.Start > sp.End {
					pruned++
					continue
				}
				shifted = append(shifted, sp)
			}
			sortByStart(shifted)
			next.sets[k] = shifted
			next.versions[k]++
		}
		next.length += d.Net()
	})
	if pruned > 0 {
		log.Debug(log.CatSpans, "Pruned spans after shift", "delta", d, "pruned", pruned)
	}
}

// matchTouched reports whether d changes the text of a match: it removes
// bytes inside the match or inserts strictly between its first and last
// byte. An insertion at either boundary leaves the matched text intact.
func matchTouched(sp Span, d edit.Delta) bool {
	if d.Removed > 0 {
		return d.From < sp.End && d.End() > sp.Start
	}
	return sp.Start < d.From && d.From < sp.End
}

// ReplaceHighlights swaps the highlight collection for spans. Readers see
// either the old or the new collection in full.
func (s *Store) ReplaceHighlights(spans []Span) {
	s.replace(Highlight, spans)
}

// ReplaceFinds swaps the find collection for spans.
func (s *Store) ReplaceFinds(spans []Span) {
	s.replace(Find, spans)
}

// RemoveFind removes the i-th find span and returns it.
func (s *Store) RemoveFind(i int) (Span, bool) {
	var removed Span
	ok := false
	s.update(func(next *snapshot) {
		set := next.sets[Find]
		if i < 0 || i >= len(set) {
			return
		}
		removed, ok = set[i], true
		next.sets[Find] = slices.Delete(slices.Clone(set), i, i+1)
		next.versions[Find]++
	})
	return removed, ok
}

// AddError adds an error marker.
func (s *Store) AddError(sp Span) {
	sp.Kind = Error
	s.update(func(next *snapshot) {
		set := append(slices.Clone(next.sets[Error]), sp)
		sortByStart(set)
		next.sets[Error] = set
		next.versions[Error]++
	})
}

// ClearErrors removes every error marker.
func (s *Store) ClearErrors() {
	s.clear(Error)
}

// ClearFinds removes every find span.
func (s *Store) ClearFinds() {
	s.clear(Find)
}

// VisibleSlice returns the spans of kind overlapping [vpStart, vpEnd],
// clamped to the viewport. Spans that do not fit the document are skipped.
func (s *Store) VisibleSlice(vpStart, vpEnd int, kind Kind) []Span {
	if !stored(kind) || vpStart > vpEnd {
		return nil
	}
	snap := s.cur.Load()
	set := snap.sets[kind]

	// set is ordered by Start, so nothing past the first Start > vpEnd can overlap
	n := sort.Search(len(set), func(i int) bool { return set[i].Start > vpEnd })

	var out []Span
	for _, sp := range set[:n] {
		if !sp.Valid(snap.length) || !sp.Overlaps(vpStart, vpEnd) {
			continue
		}
		out = append(out, sp.Clip(vpStart, vpEnd))
	}
	return out
}

func (s *Store) replace(kind Kind, spans []Span) {
	set := make([]Span, len(spans))
	for i, sp := range spans {
		sp.Kind = kind
		set[i] = sp
	}
	sortByStart(set)
	s.update(func(next *snapshot) {
		next.sets[kind] = set
		next.versions[kind]++
	})
}

func (s *Store) clear(kind Kind) {
	s.update(func(next *snapshot) {
		if len(next.sets[kind]) == 0 {
			return
		}
		next.sets[kind] = nil
		next.versions[kind]++
	})
}

// update publishes the result of fn applied to a copy of the current
// snapshot. fn may replace slices in the copy but must not modify the
// slices it finds there.
func (s *Store) update(fn func(next *snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.cur.Load()
	fn(&next)
	s.cur.Store(&next)
}

func sortByStart(set []Span) {
	sort.SliceStable(set, func(i, j int) bool { return set[i].Start < set[j].Start })
}

func stored(kind Kind) bool {
	return kind >= 0 && int(kind) < storedKinds
}
