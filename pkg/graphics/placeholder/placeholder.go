// Package placeholder encodes and decodes Unicode-placeholder cells for
// virtual (Unicode-placeholder) placements: a base character U+10EEEE
// followed by combining diacritics U+0305+row and U+0305+col, with the
// owning image id carried as a foreground color rather than text.
//
// The encoder is adapted from the teacher's imgKittyUnicodePlaceholder
// (pkg/image/kitty.go), which generates client-side placeholder grids.
// DecodeCell is the inverse the emulator side needs and the original
// client-only code never had: given a placeholder glyph's base character
// and its two diacritics, recover (row, col) for the per-cell delete
// callback (spec.md §6) and the draw-rect coalescer (§4.8). The image id
// is not decoded here; the emulator reads it from the cell's foreground
// color itself.
package placeholder

// BaseChar is the Kitty Unicode-placeholder base character, U+10EEEE.
const BaseChar = '\U0010EEEE'

// diacriticBase is the first combining diacritic used to encode a row or
// column index, U+0305 (COMBINING OVERLINE).
const diacriticBase = 0x0305

// maxDiacriticIndex bounds the row/col index a single diacritic rune can
// encode without leaving the combining-diacritics block.
const maxDiacriticIndex = 0x036F - diacriticBase

// Grid renders a rows x cols placeholder block as a string, one line per
// row, BaseChar + row diacritic + col diacritic per cell. The owning
// image id is not encoded in the text; the caller is expected to set it
// as the cell's foreground color when writing the grid into the
// emulator's cell buffer.
func Grid(rows, cols int) string {
	if rows <= 0 || cols <= 0 {
		return ""
	}

	out := make([]rune, 0, rows*cols*3+rows)
	for r := 0; r < rows; r++ {
		if r > 0 {
			out = append(out, '\n')
		}
		for c := 0; c < cols; c++ {
			out = append(out, BaseChar)
			out = append(out, encodeIndex(r))
			out = append(out, encodeIndex(c))
		}
	}
	return string(out)
}

func encodeIndex(i int) rune {
	if i < 0 {
		i = 0
	}
	if i > maxDiacriticIndex {
		i = maxDiacriticIndex
	}
	return rune(diacriticBase + i)
}

// DecodeCell recovers the (row, col) a placeholder cell's two diacritics
// encode. ok is false if base is not BaseChar or either diacritic falls
// outside the encodable range.
func DecodeCell(base rune, rowDiacritic, colDiacritic rune) (row, col int, ok bool) {
	if base != BaseChar {
		return 0, 0, false
	}
	row = int(rowDiacritic) - diacriticBase
	col = int(colDiacritic) - diacriticBase
	if row < 0 || row > maxDiacriticIndex || col < 0 || col > maxDiacriticIndex {
		return 0, 0, false
	}
	return row, col, true
}
