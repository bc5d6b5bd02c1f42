package draughts

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is the number of rows and columns on the board.
const Size = 8

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opposite() Color {
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

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseColor accepts "white"/"w" and "black"/"b".
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return White, fmt.Errorf("unknown color %q", s)
	}
}

// Rank is the promotion state of a piece.
type Rank uint8

const (
	Man Rank = iota
	King
)

func (r Rank) String() string {
	if r == King {
		return "king"
	}
	return "man"
}

func (r Rank) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Rank) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "man":
		*r = Man
	case "king":
		*r = King
	default:
		return fmt.Errorf("unknown rank %q", string(b))
	}
	return nil
}

// Piece is a live piece on the board. Pieces are owned by a Board and
// mutated in place when they move or promote.
type Piece struct {
	Color Color `json:"color"`
	Rank  Rank  `json:"rank"`
	Row   int   `json:"row"`
	Col   int   `json:"col"`
}

func (p *Piece) IsKing() bool { return p != nil && p.Rank == King }

func (p *Piece) Square() Square { return Square{Row: p.Row, Col: p.Col} }

// Square is a board coordinate. Row 0 is white's home row.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// String renders the square as column letter + row number ("a1" is 0,0).
func (s Square) String() string {
	if !InBounds(s.Row, s.Col) {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col, s.Row+1)
}

// ParseSquare reads "c3" (column letter, row number) or "row,col" index pairs.
// Out of range values are returned as-is; they simply match nothing on the board.
func ParseSquare(s string) (Square, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return Square{}, fmt.Errorf("empty square")
	}
	if i := strings.IndexAny(v, ", "); i > 0 {
		r, err := strconv.Atoi(strings.TrimSpace(v[:i]))
		if err != nil {
			return Square{}, fmt.Errorf("parse row %q: %w", v[:i], err)
		}
		c, err := strconv.Atoi(strings.TrimSpace(v[i+1:]))
		if err != nil {
			return Square{}, fmt.Errorf("parse col %q: %w", v[i+1:], err)
		}
		return Square{Row: r, Col: c}, nil
	}
	if v[0] < 'a' || v[0] > 'z' || len(v) < 2 {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	n, err := strconv.Atoi(v[1:])
	if err != nil {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	return Square{Row: n - 1, Col: int(v[0] - 'a')}, nil
}

// InBounds reports whether row and col are on the board.
func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// IsDark reports whether the square is playable.
func IsDark(row, col int) bool {
	return (row+col)%2 == 0
}

// Players holds the opaque display names supplied at game start.
type Players struct {
	White string `json:"white"`
	Black string `json:"black"`
}

func (p Players) Name(c Color) string {
	if c == White {
		return p.White
	}
	return p.Black
}
