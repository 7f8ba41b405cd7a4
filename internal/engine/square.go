package engine

import "fmt"

// Square indexes a board position, a1=0 .. h8=63, rank-major.
type Square int

// SquareAt builds a square from rank and file, both 0-7.
func SquareAt(rank, file int) Square {
	return Square(rank<<3 + file)
}

// File returns the column number (0-7, a-h).
func (s Square) File() int { return int(s & 7) }

// Rank returns the row number (0-7, 1-8).
func (s Square) Rank() int { return int(s >> 3) }

func (s Square) valid() bool { return s >= 0 && s < 64 }

// String formats the square in algebraic notation.
func (s Square) String() string {
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// ParseSquare converts algebraic text like "e2" into a Square. Only
// well-formed two-character input is accepted.
func ParseSquare(v string) (Square, error) {
	if len(v) != 2 || v[0] < 'a' || v[0] > 'h' || v[1] < '1' || v[1] > '8' {
		return 0, fmt.Errorf("invalid square %q", v)
	}
	return SquareAt(int(v[1]-'1'), int(v[0]-'a')), nil
}
