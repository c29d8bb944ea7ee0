package find

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/textcore/internal/edit"
	"github.com/zjrosen/textcore/internal/span"
)

func newEngine(text string, opts ...Option) (*Engine, *span.Store) {
	store := span.NewStore(len(text))
	return NewEngine(store, opts...), store
}

func search(t *testing.T, e *Engine, text string, p Params) []span.Span {
	t.Helper()
	got, err := e.Search(context.Background(), text, p)
	require.NoError(t, err)
	return got
}

func starts(spans []span.Span) [][2]int {
	out := make([][2]int, len(spans))
	for i, sp := range spans {
		out[i] = [2]int{sp.Start, sp.End}
	}
	return out
}

func applyAll(text string, changes []edit.Change) string {
	for _, c := range changes {
		text = c.Apply(text)
	}
	return text
}

func TestSearch_FooBarFooScenario(t *testing.T) {
	text := "foo\nbar\nfoo\n"
	e, _ := newEngine(text)

	got := search(t, e, text, Params{Query: "foo", MatchCase: true})
	require.Equal(t, [][2]int{{0, 3}, {8, 11}}, starts(got))
	require.Equal(t, 0, e.Cursor())

	require.True(t, e.Next())
	require.Equal(t, 1, e.Cursor())

	c, ok := e.ReplaceOne("baz")
	require.True(t, ok)
	require.Equal(t, edit.Change{From: 8, Removed: 3, Text: "baz"}, c)
	require.Equal(t, "foo\nbar\nbaz\n", c.Apply(text))
	require.Equal(t, 1, e.Count())
	require.Equal(t, 0, e.Cursor(), "cursor falls back to the new last match")
}

func TestSearch_EmptyQuery(t *testing.T) {
	e, store := newEngine("foo")
	store.ReplaceFinds([]span.Span{{Start: 0, End: 3}})

	got, err := e.Search(context.Background(), "foo", Params{})
	require.NoError(t, err)
	require.Empty(t, got)
	require.Zero(t, store.Count(span.Find))
}

func TestSearch_LiteralEscapesMetacharacters(t *testing.T) {
	text := "axb a.b (a.b)"
	e, _ := newEngine(text)

	got := search(t, e, text, Params{Query: "a.b", MatchCase: true})
	require.Equal(t, [][2]int{{4, 7}, {9, 12}}, starts(got))

	got = search(t, e, text, Params{Query: "(a.b)", MatchCase: true})
	require.Equal(t, [][2]int{{8, 13}}, starts(got))
}

func TestSearch_Regex(t *testing.T) {
	text := "id1 id22 id"
	e, _ := newEngine(text)

	got := search(t, e, text, Params{Query: `id\d+`, Regex: true, MatchCase: true})
	require.Equal(t, [][2]int{{0, 3}, {4, 8}}, starts(got))
}

func TestSearch_IgnoreCase(t *testing.T) {
	text := "Foo FOO foo"
	e, _ := newEngine(text)

	require.Len(t, search(t, e, text, Params{Query: "foo"}), 3)
	require.Len(t, search(t, e, text, Params{Query: "foo", MatchCase: true}), 1)
	require.Len(t, search(t, e, text, Params{Query: "f[o]+", Regex: true}), 3)
}

func TestSearch_IgnoreCaseUnicode(t *testing.T) {
	text := "ÉCOLE école"
	e, _ := newEngine(text)

	got := search(t, e, text, Params{Query: "école"})
	require.Equal(t, [][2]int{{0, 6}, {7, 13}}, starts(got))
}

func TestSearch_ByteOffsetsAfterMultibyteText(t *testing.T) {
	text := "日本 foo 日本 foo"
	e, _ := newEngine(text)

	got := search(t, e, text, Params{Query: "foo", MatchCase: true})
	require.Equal(t, [][2]int{{7, 10}, {18, 21}}, starts(got))
	for _, sp := range got {
		require.Equal(t, "foo", text[sp.Start:sp.End])
	}
}

func TestSearch_WordsOnlyIncludesWhitespaceAndSkipsDocumentEdges(t *testing.T) {
	text := "foo foo foo"
	e, _ := newEngine(text)

	got := search(t, e, text, Params{Query: "foo", MatchCase: true, WordsOnly: true})
	require.Equal(t, [][2]int{{3, 8}}, starts(got))
	require.Equal(t, " foo ", text[3:8])
}

func TestSearch_WordsOnlyAppliesToRegex(t *testing.T) {
	text := "a1 b22 c333"
	e, _ := newEngine(text)

	got := search(t, e, text, Params{Query: `\w\d+`, Regex: true, WordsOnly: true})
	require.Equal(t, [][2]int{{2, 7}}, starts(got))
}

func TestSearch_SkipsZeroLengthMatches(t *testing.T) {
	text := "axxb"
	e, _ := newEngine(text)

	got := search(t, e, text, Params{Query: "x*", Regex: true})
	require.Equal(t, [][2]int{{1, 3}}, starts(got))
}

func TestSearch_InvalidPattern(t *testing.T) {
	cache := NewPatternCache(time.Minute)
	e, store := newEngine("foo(", WithPatternCache(cache, time.Minute))
	store.ReplaceFinds([]span.Span{{Start: 0, End: 3}})

	got, err := e.Search(context.Background(), "foo(", Params{Query: "foo(", Regex: true})
	require.ErrorIs(t, err, ErrInvalidPattern)
	require.Empty(t, got)
	require.Zero(t, store.Count(span.Find))
	require.Zero(t, cache.Len(), "invalid patterns are not cached")

	// the same query as a literal is fine
	got = search(t, e, "foo(", Params{Query: "foo("})
	require.Len(t, got, 1)
}

func TestSearch_MatchTimeout(t *testing.T) {
	text := strings.Repeat("a", 40) + "!"
	e, store := newEngine(text, WithMatchTimeout(10*time.Millisecond))

	got, err := e.Search(context.Background(), text, Params{Query: `(a+)+$`, Regex: true})
	require.ErrorIs(t, err, ErrMatchTimeout)
	require.Empty(t, got)
	require.Zero(t, store.Count(span.Find))
}

func TestSearch_CancelledContext(t *testing.T) {
	text := "foo foo"
	e, _ := newEngine(text)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Search(ctx, text, Params{Query: "foo"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSearch_ReusesCompiledPattern(t *testing.T) {
	cache := NewPatternCache(time.Minute)
	a, _ := newEngine("", WithPatternCache(cache, time.Minute))
	b, _ := newEngine("", WithPatternCache(cache, time.Minute))

	search(t, a, "foo", Params{Query: "foo"})
	search(t, b, "foo foo", Params{Query: "foo"})
	search(t, b, "foo", Params{Query: "foo", MatchCase: true})

	require.Equal(t, 2, cache.Len())
}

// ============================================================================
// Navigation and replace
// ============================================================================

func TestNavigation_NoWraparound(t *testing.T) {
	text := "x x x"
	e, _ := newEngine(text)
	search(t, e, text, Params{Query: "x"})

	require.False(t, e.Previous())
	require.True(t, e.Next())
	require.True(t, e.Next())
	require.False(t, e.Next())
	require.Equal(t, 2, e.Cursor())

	cur, ok := e.Current()
	require.True(t, ok)
	require.Equal(t, 4, cur.Start)

	require.True(t, e.Previous())
	require.Equal(t, 1, e.Cursor())
}

func TestNavigation_EmptyMatches(t *testing.T) {
	e, _ := newEngine("abc")
	search(t, e, "abc", Params{Query: "zzz"})

	require.False(t, e.Next())
	require.False(t, e.Previous())
	_, ok := e.Current()
	require.False(t, ok)
	_, ok = e.ReplaceOne("y")
	require.False(t, ok)
}

func TestReplaceOne_KeepsCursorInMiddle(t *testing.T) {
	text := "a a a"
	e, _ := newEngine(text)
	search(t, e, text, Params{Query: "a"})
	e.Next()

	c, ok := e.ReplaceOne("b")
	require.True(t, ok)
	require.Equal(t, 2, c.From)
	require.Equal(t, 1, e.Cursor())
	require.Equal(t, 2, e.Count())
}

func TestReplaceAll_HighestOffsetFirst(t *testing.T) {
	text := "foo\nbar\nfoo\n"
	e, _ := newEngine(text)
	search(t, e, text, Params{Query: "foo", MatchCase: true})

	changes := e.ReplaceAll("quux")
	require.Equal(t, []edit.Change{
		{From: 8, Removed: 3, Text: "quux"},
		{From: 0, Removed: 3, Text: "quux"},
	}, changes)
	require.Zero(t, e.Count())
	require.Equal(t, "quux\nbar\nquux\n", applyAll(text, changes))
}

func TestReplaceOne_SkipsMatchesOutsideDocument(t *testing.T) {
	text := "o bb foo cc foo"
	e, store := newEngine(text)
	store.ReplaceFinds([]span.Span{{Start: -2, End: 1}, {Start: 5, End: 8}, {Start: 12, End: 15}})

	c, ok := e.ReplaceOne("Z")
	require.True(t, ok)
	require.Equal(t, edit.Change{From: 5, Removed: 3, Text: "Z"}, c)
	require.Equal(t, [][2]int{{12, 15}}, starts(e.Matches()))
	require.Equal(t, 0, e.Cursor())
}

func TestReplaceOne_OnlyStaleMatches(t *testing.T) {
	e, store := newEngine("abc")
	store.ReplaceFinds([]span.Span{{Start: -3, End: -1}, {Start: 2, End: 9}})

	_, ok := e.ReplaceOne("Z")
	require.False(t, ok)
	require.Zero(t, e.Count())
}

func TestReplaceAll_SkipsStaleAndOverlappingMatches(t *testing.T) {
	text := "fooXfoo bar"
	e, store := newEngine(text)
	store.ReplaceFinds([]span.Span{
		{Start: -2, End: 1},
		{Start: 0, End: 4},
		{Start: 3, End: 7},
		{Start: 8, End: 11},
		{Start: 9, End: 20},
	})

	changes := e.ReplaceAll("b")
	require.Equal(t, []edit.Change{
		{From: 8, Removed: 3, Text: "b"},
		{From: 0, Removed: 4, Text: "b"},
	}, changes)
	require.Equal(t, "bfoo b", applyAll(text, changes))
	require.Zero(t, e.Count())
}

func TestReplaceAll_KeepsAdjacentMatches(t *testing.T) {
	text := "foofoo"
	e, _ := newEngine(text)
	search(t, e, text, Params{Query: "foo"})

	require.Equal(t, "bb", applyAll(text, e.ReplaceAll("b")))
}

func TestCursorClampedAfterMatchesShrink(t *testing.T) {
	text := "ab ab ab"
	e, store := newEngine(text)
	search(t, e, text, Params{Query: "ab"})
	e.Next()
	e.Next()

	store.RemoveFind(2)

	require.Equal(t, 1, e.Cursor())
}

func TestReplaceAll_ThenSearchFindsNothing_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[ab \n]{0,40}`).Draw(t, "text")
		query := rapid.SampledFrom([]string{"a", "b", "ab", "ba", "aa", "a b"}).Draw(t, "query")
		p := Params{Query: query, MatchCase: true}

		e := NewEngine(span.NewStore(len(text)))
		matches, err := e.Search(context.Background(), text, p)
		if err != nil {
			t.Fatalf("search: %v", err)
		}

		replaced := applyAll(text, e.ReplaceAll("X"))
		if got := strings.Count(replaced, "X"); got != len(matches) {
			t.Fatalf("%d replacements for %d matches", got, len(matches))
		}

		again, err := e.Search(context.Background(), replaced, p)
		if err != nil {
			t.Fatalf("search again: %v", err)
		}
		if len(again) != 0 {
			t.Fatalf("%q still matches %q after replace all: %v", replaced, query, again)
		}
	})
}
