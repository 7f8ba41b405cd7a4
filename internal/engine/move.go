package engine

import "fmt"

// Move is a value describing one ply. Kind is the moving piece, Captured
// is NoKind for quiet moves and Promotion is NoKind unless a pawn reaches
// the last rank. A Move is never mutated after creation.
type Move struct {
	From      Square
	To        Square
	Kind      Kind
	Captured  Kind
	Promotion Kind
}

// String renders the compact 4-5 character text form, e.g. "e2e4" or
// "a7a8q".
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoKind {
		s += string(m.Promotion.Letter())
	}
	return s
}

// ParseMove decodes the compact text form into a partial Move carrying
// only from, to and the optional promotion kind. The moving and captured
// kinds are resolved by the engine against the current position.
func ParseMove(text string) (Move, error) {
	if len(text) != 4 && len(text) != 5 {
		return Move{}, fmt.Errorf("invalid move text %q", text)
	}
	from, err := ParseSquare(text[:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(text[2:4])
	if err != nil {
		return Move{}, err
	}
	m := Move{From: from, To: to}
	if len(text) == 5 {
		k := kindFromLetter(text[4])
		if k == NoKind || k == Pawn || k == King {
			return Move{}, fmt.Errorf("invalid promotion letter %q", text[4])
		}
		m.Promotion = k
	}
	return m, nil
}
