package draughts

import (
	"errors"
	"testing"
)

func boardWith(t *testing.T, pieces ...Piece) *Board {
	t.Helper()
	b := NewBoard()
	for _, p := range pieces {
		if _, err := b.Place(p); err != nil {
			t.Fatalf("Place(%+v): %v", p, err)
		}
	}
	return b
}

func man(c Color, row, col int) Piece { return Piece{Color: c, Rank: Man, Row: row, Col: col} }
func king(c Color, row, col int) Piece { return Piece{Color: c, Rank: King, Row: row, Col: col} }

func TestStandardBoardSetup(t *testing.T) {
	b := StandardBoard()
	counts := map[Color]int{}
	for _, p := range b.Pieces() {
		counts[p.Color]++
		if !IsDark(p.Row, p.Col) {
			t.Fatalf("piece on light square: %+v", *p)
		}
		if p.Rank != Man {
			t.Fatalf("expected men only, got %+v", *p)
		}
		switch p.Color {
		case White:
			if p.Row > 2 {
				t.Fatalf("white piece outside rows 0-2: %+v", *p)
			}
		case Black:
			if p.Row < 5 {
				t.Fatalf("black piece outside rows 5-7: %+v", *p)
			}
		}
	}
	if counts[White] != 12 || counts[Black] != 12 {
		t.Fatalf("expected 12/12 pieces, got white=%d black=%d", counts[White], counts[Black])
	}
}

func TestPieceAtOutOfRange(t *testing.T) {
	b := StandardBoard()
	for _, sq := range []Square{{-1, 0}, {0, -1}, {8, 0}, {0, 8}, {100, 100}} {
		if p := b.PieceAt(sq.Row, sq.Col); p != nil {
			t.Fatalf("PieceAt(%d,%d) = %+v, want nil", sq.Row, sq.Col, *p)
		}
	}
}

func TestPlaceRejectsBadSquares(t *testing.T) {
	b := NewBoard()
	if _, err := b.Place(man(White, 0, 1)); err == nil {
		t.Fatalf("expected light square rejection")
	}
	if _, err := b.Place(man(White, 8, 0)); err == nil {
		t.Fatalf("expected off board rejection")
	}
	if _, err := b.Place(man(White, 0, 0)); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if _, err := b.Place(man(Black, 0, 0)); !errors.Is(err, ErrSquareOccupied) {
		t.Fatalf("expected ErrSquareOccupied, got %v", err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	b := boardWith(t, man(White, 2, 2), man(Black, 5, 5))
	p := b.PieceAt(2, 2)
	b.Remove(p)
	b.Remove(p)
	if b.PieceAt(2, 2) != nil {
		t.Fatalf("piece still present after Remove")
	}
	if got := len(b.Pieces()); got != 1 {
		t.Fatalf("expected 1 piece left, got %d", got)
	}
}

func TestMoveRelocates(t *testing.T) {
	b := boardWith(t, man(White, 2, 2))
	p := b.PieceAt(2, 2)
	b.Move(p, 3, 3)
	if b.PieceAt(2, 2) != nil || b.PieceAt(3, 3) != p {
		t.Fatalf("move did not relocate piece")
	}
	if p.Row != 3 || p.Col != 3 {
		t.Fatalf("piece coordinates not updated: %+v", *p)
	}
}

func TestCountAndMobility(t *testing.T) {
	// black man on row 0 cannot step further down
	b := boardWith(t, man(White, 2, 2), man(Black, 0, 0))
	n, mobile := b.CountAndMobility(Black)
	if n != 1 || mobile {
		t.Fatalf("black: got count=%d mobile=%v", n, mobile)
	}
	n, mobile = b.CountAndMobility(White)
	if n != 1 || !mobile {
		t.Fatalf("white: got count=%d mobile=%v", n, mobile)
	}
}

func TestParseSquare(t *testing.T) {
	cases := map[string]Square{
		"a1":  {Row: 0, Col: 0},
		"C3":  {Row: 2, Col: 2},
		"h8":  {Row: 7, Col: 7},
		"4,5": {Row: 4, Col: 5},
		"2 3": {Row: 2, Col: 3},
	}
	for in, want := range cases {
		got, err := ParseSquare(in)
		if err != nil {
			t.Fatalf("ParseSquare(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseSquare(%q) = %+v, want %+v", in, got, want)
		}
	}
	for _, bad := range []string{"", "x", "9z", "a", "1,b"} {
		if _, err := ParseSquare(bad); err == nil {
			t.Fatalf("ParseSquare(%q): expected error", bad)
		}
	}
	if s := (Square{Row: 2, Col: 2}).String(); s != "c3" {
		t.Fatalf("String() = %q", s)
	}
}
