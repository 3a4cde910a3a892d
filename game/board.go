package game

// BoardSize is the side length of the square board.
const BoardSize = 3

// Grids is the total number of cells.
const Grids = BoardSize * BoardSize

// Cell marks. MarkA moves first.
const (
	Empty = byte(' ')
	MarkA = byte('O')
	MarkB = byte('X')
)

// Terminal results reported by Winner. NoWinner means the game is still in
// progress; Draw means the board is full with no winning line.
const (
	NoWinner = byte(' ')
	Draw     = byte('D')
)

// Board is the fixed 3x3 playing surface. It is a value type: copying a
// Board copies the whole position.
type Board [Grids]byte

// NewBoard returns an all-empty board.
func NewBoard() Board {
	var b Board
	for i := range b {
		b[i] = Empty
	}
	return b
}

// lines enumerates every winning triple by cell index.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

// Winner evaluates the terminal state of the board. It returns MarkA or
// MarkB if that side holds a winning line, Draw if the board is full with
// no winner, and NoWinner otherwise. Exactly one of those conditions holds
// for any board reachable by alternating play.
func (b Board) Winner() byte {
	for _, l := range lines {
		m := b[l[0]]
		if m != Empty && m == b[l[1]] && m == b[l[2]] {
			return m
		}
	}
	if b.Full() {
		return Draw
	}
	return NoWinner
}

// Full reports whether no empty cell remains.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// LegalMoves returns the indices of all empty cells, in ascending order.
func (b Board) LegalMoves() []int {
	moves := make([]int, 0, Grids)
	for i, c := range b {
		if c == Empty {
			moves = append(moves, i)
		}
	}
	return moves
}

// With returns a copy of the board with mark placed at cell.
func (b Board) With(cell int, mark byte) Board {
	b[cell] = mark
	return b
}

// Opponent returns the other side's mark.
func Opponent(mark byte) byte {
	if mark == MarkA {
		return MarkB
	}
	return MarkA
}
