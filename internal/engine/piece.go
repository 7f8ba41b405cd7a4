package engine

// Color identifies a chess side.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// ParseColor accepts the single-letter side-to-move token used by the
// serialized position format.
func ParseColor(s string) (Color, bool) {
	switch s {
	case "w":
		return White, true
	case "b":
		return Black, true
	}
	return White, false
}

// Kind identifies a piece type. NoKind marks an empty square or an
// unset optional field on a Move.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindLetters = [...]byte{NoKind: ' ', Pawn: 'p', Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q', King: 'k'}

// Letter returns the lowercase English piece letter.
func (k Kind) Letter() byte {
	if int(k) >= len(kindLetters) {
		return ' '
	}
	return kindLetters[k]
}

// kindFromLetter maps a placement character to a piece kind, ignoring case.
func kindFromLetter(ch byte) Kind {
	switch ch | 0x20 {
	case 'p':
		return Pawn
	case 'n':
		return Knight
	case 'b':
		return Bishop
	case 'r':
		return Rook
	case 'q':
		return Queen
	case 'k':
		return King
	}
	return NoKind
}

// Piece is an immutable kind+color value. The zero Piece is an empty square.
type Piece struct {
	Kind  Kind
	Color Color
}

func (p Piece) Empty() bool { return p.Kind == NoKind }

// Letter returns the placement character: uppercase for white, lowercase
// for black.
func (p Piece) Letter() byte {
	ch := p.Kind.Letter()
	if p.Color == White {
		return ch &^ 0x20
	}
	return ch
}
