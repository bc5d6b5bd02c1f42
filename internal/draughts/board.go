package draughts

import (
	"errors"
	"fmt"
)

var ErrSquareOccupied = errors.New("square already occupied")

// Board is the set of live pieces indexed by square.
type Board struct {
	squares [Size][Size]*Piece
}

func NewBoard() *Board { return &Board{} }

// StandardBoard returns the opening position: twelve white men on rows 0-2 and
// twelve black men on rows 5-7, dark squares only.
func StandardBoard() *Board {
	b := NewBoard()
	for row := 0; row < 3; row++ {
		for col := 0; col < Size; col++ {
			if IsDark(row, col) {
				b.squares[row][col] = &Piece{Color: White, Rank: Man, Row: row, Col: col}
			}
		}
	}
	for row := Size - 3; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if IsDark(row, col) {
				b.squares[row][col] = &Piece{Color: Black, Rank: Man, Row: row, Col: col}
			}
		}
	}
	return b
}

// PieceAt returns the live piece on the square, or nil.
func (b *Board) PieceAt(row, col int) *Piece {
	if b == nil || !InBounds(row, col) {
		return nil
	}
	return b.squares[row][col]
}

// Place inserts a new piece after checking the board invariants.
func (b *Board) Place(p Piece) (*Piece, error) {
	if !InBounds(p.Row, p.Col) {
		return nil, fmt.Errorf("piece at (%d,%d): off board", p.Row, p.Col)
	}
	if !IsDark(p.Row, p.Col) {
		return nil, fmt.Errorf("piece at %s: light square", p.Square())
	}
	if b.squares[p.Row][p.Col] != nil {
		return nil, fmt.Errorf("piece at %s: %w", p.Square(), ErrSquareOccupied)
	}
	pc := p
	b.squares[p.Row][p.Col] = &pc
	return &pc, nil
}

// Remove deletes a captured piece. Removing an absent piece is a no-op.
func (b *Board) Remove(p *Piece) {
	if p == nil || !InBounds(p.Row, p.Col) {
		return
	}
	if b.squares[p.Row][p.Col] == p {
		b.squares[p.Row][p.Col] = nil
	}
}

// Move relocates a live piece without checking legality.
func (b *Board) Move(p *Piece, row, col int) {
	if p == nil || !InBounds(row, col) {
		return
	}
	if InBounds(p.Row, p.Col) && b.squares[p.Row][p.Col] == p {
		b.squares[p.Row][p.Col] = nil
	}
	p.Row, p.Col = row, col
	b.squares[row][col] = p
}

// Pieces lists live pieces in row-major order.
func (b *Board) Pieces() []*Piece {
	out := make([]*Piece, 0, 24)
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if p := b.squares[row][col]; p != nil {
				out = append(out, p)
			}
		}
	}
	return out
}

// PiecesOf lists the live pieces of one side.
func (b *Board) PiecesOf(c Color) []*Piece {
	var out []*Piece
	for _, p := range b.Pieces() {
		if p.Color == c {
			out = append(out, p)
		}
	}
	return out
}

// CountAndMobility returns how many pieces a side has and whether any of them can move.
func (b *Board) CountAndMobility(c Color) (int, bool) {
	count, mobile := 0, false
	for _, p := range b.Pieces() {
		if p.Color != c {
			continue
		}
		count++
		if !mobile && b.CanMove(p) {
			mobile = true
		}
	}
	return count, mobile
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	out := NewBoard()
	for _, p := range b.Pieces() {
		pc := *p
		out.squares[p.Row][p.Col] = &pc
	}
	return out
}
