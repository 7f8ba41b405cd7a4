package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIllegalMove is returned by Apply when the requested move does not
// resolve to any legal move in the current position.
var ErrIllegalMove = errors.New("illegal move")

// Engine maintains a full position: piece placement, side to move and
// the ordered history of applied moves for undo. Checkmate and stalemate
// queries share one zero-legal-moves scan and are split by InCheck, so
// they can never both hold.
//
// Legality filtering recomputes opponent pseudo-moves per candidate move.
// That is the dominant cost and fine at human pace; incremental king
// tracking would be the first lever if it ever mattered.
type Engine struct {
	board Board
	turn  Color
	hist  []Move
}

// New returns an engine set to the standard initial position.
func New() *Engine {
	e := &Engine{}
	e.Reset()
	return e
}

// Reset restores the standard initial position, white to move, and
// clears the move history.
func (e *Engine) Reset() {
	e.board = startBoard()
	e.turn = White
	e.hist = e.hist[:0]
}

// Turn returns the side to move.
func (e *Engine) Turn() Color { return e.turn }

// PieceAt returns the piece on sq; the zero Piece for empty or
// out-of-range squares.
func (e *Engine) PieceAt(sq Square) Piece {
	if !sq.valid() {
		return Piece{}
	}
	return e.board[sq]
}

// History returns a copy of the applied moves, oldest first.
func (e *Engine) History() []Move {
	return append([]Move(nil), e.hist...)
}

// LoadPosition parses "placement w|b" in the Serialize format. On any
// error the engine keeps its prior state. Loading clears the history.
func (e *Engine) LoadPosition(text string) error {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) != 2 {
		return fmt.Errorf("position %q: want placement and side-to-move", text)
	}
	turn, ok := ParseColor(fields[1])
	if !ok {
		return fmt.Errorf("position %q: bad side-to-move token %q", text, fields[1])
	}
	b, err := decodePlacement(fields[0])
	if err != nil {
		return err
	}
	e.board = b
	e.turn = turn
	e.hist = e.hist[:0]
	return nil
}

// Serialize emits "placement w|b", the same shape LoadPosition accepts.
// Round-trips exactly for any position reached through Apply.
func (e *Engine) Serialize() string {
	side := "w"
	if e.turn == Black {
		side = "b"
	}
	return e.board.encodePlacement() + " " + side
}

var (
	knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	bishopDirs  = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	rookDirs    = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
)

// PseudoMoves generates the geometrically valid moves for the piece on
// from, for the side to move only. Own-king safety is not considered.
func (e *Engine) PseudoMoves(from Square) []Move {
	if !from.valid() {
		return nil
	}
	if p := e.board[from]; p.Empty() || p.Color != e.turn {
		return nil
	}
	return e.pseudoFor(from)
}

// pseudoFor generates for the piece's own color regardless of the side
// to move. Attack detection relies on this.
func (e *Engine) pseudoFor(from Square) []Move {
	p := e.board[from]
	switch p.Kind {
	case Pawn:
		return e.pawnMoves(from, p.Color)
	case Knight:
		return e.stepMoves(from, p, knightSteps[:])
	case King:
		return e.stepMoves(from, p, kingSteps[:])
	case Bishop:
		return e.rayMoves(from, p, bishopDirs[:])
	case Rook:
		return e.rayMoves(from, p, rookDirs[:])
	case Queen:
		return e.rayMoves(from, p, kingSteps[:])
	}
	return nil
}

func (e *Engine) pawnMoves(from Square, c Color) []Move {
	dir, start, last := 1, 1, 7
	if c == Black {
		dir, start, last = -1, 6, 0
	}
	rank, file := from.Rank(), from.File()
	var moves []Move
	add := func(to Square, captured Kind) {
		m := Move{From: from, To: to, Kind: Pawn, Captured: captured}
		if to.Rank() == last {
			// forced queen promotion
			m.Promotion = Queen
		}
		moves = append(moves, m)
	}
	if r := rank + dir; r >= 0 && r <= 7 {
		one := SquareAt(r, file)
		if e.board[one].Empty() {
			add(one, NoKind)
			if rank == start && e.board[SquareAt(rank+2*dir, file)].Empty() {
				add(SquareAt(rank+2*dir, file), NoKind)
			}
		}
		for _, df := range [2]int{-1, 1} {
			f := file + df
			if f < 0 || f > 7 {
				continue
			}
			to := SquareAt(r, f)
			if t := e.board[to]; !t.Empty() && t.Color != c {
				add(to, t.Kind)
			}
		}
	}
	return moves
}

func (e *Engine) stepMoves(from Square, p Piece, steps [][2]int) []Move {
	var moves []Move
	for _, s := range steps {
		r, f := from.Rank()+s[0], from.File()+s[1]
		if r < 0 || r > 7 || f < 0 || f > 7 {
			continue
		}
		to := SquareAt(r, f)
		t := e.board[to]
		if !t.Empty() && t.Color == p.Color {
			continue
		}
		moves = append(moves, Move{From: from, To: to, Kind: p.Kind, Captured: t.Kind})
	}
	return moves
}

func (e *Engine) rayMoves(from Square, p Piece, dirs [][2]int) []Move {
	var moves []Move
	for _, d := range dirs {
		r, f := from.Rank()+d[0], from.File()+d[1]
		for r >= 0 && r <= 7 && f >= 0 && f <= 7 {
			to := SquareAt(r, f)
			t := e.board[to]
			if t.Empty() {
				moves = append(moves, Move{From: from, To: to, Kind: p.Kind})
				r, f = r+d[0], f+d[1]
				continue
			}
			if t.Color != p.Color {
				moves = append(moves, Move{From: from, To: to, Kind: p.Kind, Captured: t.Kind})
			}
			break
		}
	}
	return moves
}

// attacked reports whether any piece of color by pseudo-attacks target.
func (e *Engine) attacked(target Square, by Color) bool {
	for sq := Square(0); sq < 64; sq++ {
		p := e.board[sq]
		if p.Empty() || p.Color != by {
			continue
		}
		for _, m := range e.pseudoFor(sq) {
			if m.To == target {
				return true
			}
		}
	}
	return false
}

// InCheck reports whether c's king is attacked. A board without a king
// of that color silently reports no check.
func (e *Engine) InCheck(c Color) bool {
	king := Square(-1)
	for sq := Square(0); sq < 64; sq++ {
		if p := e.board[sq]; p.Kind == King && p.Color == c {
			king = sq
			break
		}
	}
	if king < 0 {
		return false
	}
	return e.attacked(king, c.Other())
}

// LegalMoves returns every move of the side to move that does not leave
// its own king attacked.
func (e *Engine) LegalMoves() []Move {
	var legal []Move
	for sq := Square(0); sq < 64; sq++ {
		if p := e.board[sq]; !p.Empty() && p.Color == e.turn {
			legal = append(legal, e.legalFrom(sq)...)
		}
	}
	return legal
}

// LegalMovesFrom restricts LegalMoves to the piece on from. Nil when the
// square is empty or holds the opponent's piece.
func (e *Engine) LegalMovesFrom(from Square) []Move {
	if !from.valid() {
		return nil
	}
	if p := e.board[from]; p.Empty() || p.Color != e.turn {
		return nil
	}
	return e.legalFrom(from)
}

// legalFrom filters pseudo-moves by simulating apply-then-undo and
// rejecting anything that leaves the mover's king attacked.
func (e *Engine) legalFrom(from Square) []Move {
	mover := e.turn
	var legal []Move
	for _, m := range e.pseudoFor(from) {
		e.push(m)
		safe := !e.InCheck(mover)
		e.Undo()
		if safe {
			legal = append(legal, m)
		}
	}
	return legal
}

// Apply resolves m against the current legal moves by exact from/to
// match (and promotion match when the caller specified one) and applies
// the resolved move. On ErrIllegalMove the position is left exactly as
// it was; no partial application occurs.
func (e *Engine) Apply(m Move) (Move, error) {
	for _, lm := range e.LegalMovesFrom(m.From) {
		if lm.To != m.To {
			continue
		}
		if m.Promotion != NoKind && m.Promotion != lm.Promotion {
			continue
		}
		e.push(lm)
		return lm, nil
	}
	return Move{}, ErrIllegalMove
}

// ApplyText accepts the compact 4-5 character form, e.g. "e2e4" or
// "a7a8q".
func (e *Engine) ApplyText(text string) (Move, error) {
	m, err := ParseMove(text)
	if err != nil {
		return Move{}, err
	}
	return e.Apply(m)
}

// push mutates the board with a fully resolved move, flips the side to
// move and records history.
func (e *Engine) push(m Move) {
	p := e.board[m.From]
	if m.Promotion != NoKind {
		p.Kind = m.Promotion
	}
	e.board[m.From] = Piece{}
	e.board[m.To] = p
	e.turn = e.turn.Other()
	e.hist = append(e.hist, m)
}

// Undo reverses the most recent applied move, restoring a captured
// piece, demoting a promoted pawn and flipping the side to move back.
// ok is false when the history is empty and nothing changed.
func (e *Engine) Undo() (Move, bool) {
	if len(e.hist) == 0 {
		return Move{}, false
	}
	m := e.hist[len(e.hist)-1]
	e.hist = e.hist[:len(e.hist)-1]
	p := e.board[m.To]
	if m.Promotion != NoKind {
		p.Kind = Pawn
	}
	e.board[m.From] = p
	if m.Captured != NoKind {
		e.board[m.To] = Piece{Kind: m.Captured, Color: p.Color.Other()}
	} else {
		e.board[m.To] = Piece{}
	}
	e.turn = e.turn.Other()
	return m, true
}

// Checkmate reports whether the side to move is in check with no legal
// moves.
func (e *Engine) Checkmate() bool {
	return e.InCheck(e.turn) && len(e.LegalMoves()) == 0
}

// Stalemate reports whether the side to move is not in check and has no
// legal moves.
func (e *Engine) Stalemate() bool {
	return !e.InCheck(e.turn) && len(e.LegalMoves()) == 0
}
