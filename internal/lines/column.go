package lines

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// DisplayColumn returns the terminal column reached after rendering
// line[:byteCol]. Widths follow grapheme clusters, so a combining sequence
// or ZWJ emoji occupies its rendered width once, and tabs advance to the
// next multiple of tabWidth.
func DisplayColumn(line string, byteCol, tabWidth int) int {
	if byteCol > len(line) {
		byteCol = len(line)
	}
	if tabWidth <= 0 {
		tabWidth = 1
	}

	col := 0
	s := line[:byteCol]
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.StepString(s, state)
		if cluster == "\t" {
			col += tabWidth - col%tabWidth
			continue
		}
		col += runewidth.StringWidth(cluster)
	}
	return col
}

// GraphemeColumn returns the number of user-perceived characters in
// line[:byteCol].
func GraphemeColumn(line string, byteCol int) int {
	if byteCol > len(line) {
		byteCol = len(line)
	}
	return uniseg.GraphemeClusterCount(line[:byteCol])
}
