package edit

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDelta_Net(t *testing.T) {
	require.Equal(t, 3, Delta{From: 1, Removed: 0, Inserted: 3}.Net())
	require.Equal(t, -2, Delta{From: 1, Removed: 2, Inserted: 0}.Net())
	require.Equal(t, 0, Delta{From: 1, Removed: 2, Inserted: 2}.Net())
	require.True(t, Delta{From: 4}.IsNoop())
}

func TestChange_ApplyAndDelta(t *testing.T) {
	c := Change{From: 4, Removed: 3, Text: "baz!"}

	require.Equal(t, "foo\nbaz!\n", c.Apply("foo\nbar\n"))
	require.Equal(t, Delta{From: 4, Removed: 3, Inserted: 4}, c.Delta())
	require.Equal(t, 7, c.Delta().End())
}

func TestChange_Validate(t *testing.T) {
	require.NoError(t, Change{From: 0, Removed: 3}.Validate(3))
	require.NoError(t, Change{From: 3, Text: "x"}.Validate(3))
	require.Error(t, Change{From: 2, Removed: 2}.Validate(3))
	require.Error(t, Change{From: -1}.Validate(3))
	require.Error(t, Change{From: 0, Removed: -1}.Validate(3))
}

func TestDiff_Identical(t *testing.T) {
	require.Nil(t, Diff("same", "same"))
}

func TestDiff_SingleReplacement(t *testing.T) {
	changes := Diff("foo\nbar\nfoo\n", "foo\nbaz\nfoo\n")

	text := "foo\nbar\nfoo\n"
	for _, c := range changes {
		text = c.Apply(text)
	}
	require.Equal(t, "foo\nbaz\nfoo\n", text)
	require.NotEmpty(t, changes)
	require.GreaterOrEqual(t, changes[0].From, 4, "changes should start after the common prefix")
}

func TestDiff_InsertAndDelete(t *testing.T) {
	cases := []struct {
		name     string
		old, new string
	}{
		{"append", "abc", "abcdef"},
		{"prepend", "def", "abcdef"},
		{"delete middle", "abcdef", "abef"},
		{"clear", "abcdef", ""},
		{"from empty", "", "line one\nline two\n"},
		{"multibyte", "héllo wörld", "héllo wørld!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := tc.old
			for _, c := range Diff(tc.old, tc.new) {
				require.NoError(t, c.Validate(len(text)))
				text = c.Apply(text)
			}
			require.Equal(t, tc.new, text)
		})
	}
}

func TestDiff_ReplaysToTarget_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		oldText := rapid.StringMatching(`[ab\n ]{0,40}`).Draw(t, "old")
		newText := rapid.StringMatching(`[ab\n ]{0,40}`).Draw(t, "new")

		text := oldText
		for _, c := range Diff(oldText, newText) {
			if err := c.Validate(len(text)); err != nil {
				t.Fatalf("invalid change %+v for %q: %v", c, text, err)
			}
			text = c.Apply(text)
		}
		if text != newText {
			t.Fatalf("replayed %q, want %q", text, newText)
		}
	})
}
