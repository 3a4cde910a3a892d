package game

import "fmt"

// rowWidth is the rendered width of one board row, excluding the trailing
// newline: cells interleaved with '|' separators.
const rowWidth = BoardSize*2 - 1

// SnapshotSize is the byte-exact length of a rendered board snapshot: two
// leading newlines, then per row the cells joined by '|' and a full-width
// '-' separator line. Existing consumers depend on this exact layout.
const SnapshotSize = 2 + BoardSize*(rowWidth+1)*2

// RenderInto draws the board into dst in the fixed snapshot layout.
func RenderInto(b Board, dst *[SnapshotSize]byte) {
	i := 0
	dst[i] = '\n'
	i++
	dst[i] = '\n'
	i++

	k := 0
	for i < SnapshotSize {
		for j := 0; j < rowWidth && k < Grids; j++ {
			if j&1 == 1 {
				dst[i] = '|'
			} else {
				dst[i] = b[k]
				k++
			}
			i++
		}
		dst[i] = '\n'
		i++
		for j := 0; j < rowWidth; j++ {
			dst[i] = '-'
			i++
		}
		dst[i] = '\n'
		i++
	}
}

// Render returns a freshly allocated snapshot of the board.
func Render(b Board) []byte {
	var buf [SnapshotSize]byte
	RenderInto(b, &buf)
	return buf[:]
}

// ParseSnapshot recovers the board from a rendered snapshot. It validates
// the full fixed layout, not just the cell positions.
func ParseSnapshot(data []byte) (Board, error) {
	var b Board
	if len(data) != SnapshotSize {
		return b, fmt.Errorf("snapshot is %d bytes, want %d", len(data), SnapshotSize)
	}

	want := Render(NewBoard())
	k := 0
	for i, c := range data {
		if want[i] != Empty {
			if c != want[i] {
				return b, fmt.Errorf("unexpected byte %q at offset %d", c, i)
			}
			continue
		}
		switch c {
		case Empty, MarkA, MarkB:
			b[k] = c
			k++
		default:
			return b, fmt.Errorf("unexpected cell %q at offset %d", c, i)
		}
	}
	if k != Grids {
		return b, fmt.Errorf("recovered %d cells, want %d", k, Grids)
	}
	return b, nil
}
