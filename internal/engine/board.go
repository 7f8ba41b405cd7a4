package engine

import (
	"fmt"
	"strings"
)

// Board is a square-centric mailbox of 64 optional pieces.
type Board [64]Piece

// startBoard returns the standard initial placement.
func startBoard() Board {
	var b Board
	back := [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for file := 0; file < 8; file++ {
		b[SquareAt(0, file)] = Piece{Kind: back[file], Color: White}
		b[SquareAt(1, file)] = Piece{Kind: Pawn, Color: White}
		b[SquareAt(6, file)] = Piece{Kind: Pawn, Color: Black}
		b[SquareAt(7, file)] = Piece{Kind: back[file], Color: Black}
	}
	return b
}

// encodePlacement writes the rank-by-rank placement string, eighth rank
// first, digits for runs of empty squares.
func (b *Board) encodePlacement() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			p := b[SquareAt(rank, file)]
			if p.Empty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank != 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// decodePlacement parses a placement string. The rank count must be
// exactly 8; within a rank the scan is best effort and characters that
// are neither digits nor piece letters are skipped as single empty
// squares (kept leniency, see DESIGN.md).
func decodePlacement(placement string) (Board, error) {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return Board{}, fmt.Errorf("placement has %d ranks, want 8", len(ranks))
	}
	var b Board
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row) && file < 8; j++ {
			ch := row[j]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			if k := kindFromLetter(ch); k != NoKind {
				color := Black
				if ch >= 'A' && ch <= 'Z' {
					color = White
				}
				b[SquareAt(rank, file)] = Piece{Kind: k, Color: color}
			}
			file++
		}
	}
	return b, nil
}
