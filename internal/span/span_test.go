package span

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/textcore/internal/edit"
)

func TestSpanShift(t *testing.T) {
	cases := []struct {
		name  string
		span  Span
		delta edit.Delta
		want  Span
	}{
		{"insert before", Span{Start: 5, End: 8}, edit.Delta{From: 1, Inserted: 2}, Span{Start: 7, End: 10}},
		{"insert inside", Span{Start: 0, End: 5}, edit.Delta{From: 2, Inserted: 1}, Span{Start: 0, End: 6}},
		{"insert at end", Span{Start: 0, End: 5}, edit.Delta{From: 5, Inserted: 1}, Span{Start: 0, End: 6}},
		{"insert after", Span{Start: 0, End: 5}, edit.Delta{From: 6, Inserted: 1}, Span{Start: 0, End: 5}},
		{"insert at start", Span{Start: 3, End: 5}, edit.Delta{From: 3, Inserted: 1}, Span{Start: 4, End: 6}},
		{"find insert at start", Span{Start: 3, End: 5, Kind: Find}, edit.Delta{From: 3, Inserted: 1}, Span{Start: 3, End: 6, Kind: Find}},
		{"find insert at end", Span{Start: 3, End: 5, Kind: Find}, edit.Delta{From: 5, Inserted: 1}, Span{Start: 3, End: 5, Kind: Find}},
		{"find delete after", Span{Start: 3, End: 5, Kind: Find}, edit.Delta{From: 5, Removed: 2}, Span{Start: 3, End: 5, Kind: Find}},
		{"find insert before", Span{Start: 3, End: 5, Kind: Find}, edit.Delta{From: 1, Inserted: 2}, Span{Start: 5, End: 7, Kind: Find}},
		{"delete before", Span{Start: 5, End: 8}, edit.Delta{From: 0, Removed: 3}, Span{Start: 2, End: 5}},
		{"delete inside", Span{Start: 0, End: 8}, edit.Delta{From: 2, Removed: 3}, Span{Start: 0, End: 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.span.Shift(tc.delta))
		})
	}
}

func TestSpanShift_DoesNotMutateReceiver(t *testing.T) {
	sp := Span{Start: 5, End: 8}
	_ = sp.Shift(edit.Delta{From: 0, Inserted: 4})
	require.Equal(t, Span{Start: 5, End: 8}, sp)
}

func TestSpanValidAndClip(t *testing.T) {
	require.True(t, Span{Start: 0, End: 10}.Valid(10))
	require.False(t, Span{Start: 0, End: 11}.Valid(10))
	require.False(t, Span{Start: -1, End: 2}.Valid(10))
	require.False(t, Span{Start: 4, End: 3}.Valid(10))

	require.Equal(t, Span{Start: 3, End: 6}, Span{Start: 1, End: 9}.Clip(3, 6))
	require.Equal(t, Span{Start: 4, End: 5}, Span{Start: 4, End: 5}.Clip(3, 6))
}

func TestSpanString(t *testing.T) {
	require.Equal(t, "highlight[0,3]:keyword", Span{Start: 0, End: 3, Style: StyleKeyword}.String())
	require.Equal(t, "find[8,11]", Span{Start: 8, End: 11, Kind: Find}.String())
	require.Equal(t, "kind(9)", Kind(9).String())
}
