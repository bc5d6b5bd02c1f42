package draughts

type direction struct{ dr, dc int }

// Direction tables drive both simple moves and captures.
var (
	kingDirections  = []direction{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	whiteDirections = []direction{{1, -1}, {1, 1}}
	blackDirections = []direction{{-1, -1}, {-1, 1}}
)

func directionsFor(p *Piece) []direction {
	switch {
	case p.Rank == King:
		return kingDirections
	case p.Color == White:
		return whiteDirections
	default:
		return blackDirections
	}
}

func allowed(p *Piece, dr, dc int) bool {
	for _, d := range directionsFor(p) {
		if d.dr == dr && d.dc == dc {
			return true
		}
	}
	return false
}

func isOpponent(a, b *Piece) bool {
	return a != nil && b != nil && a.Color != b.Color
}

// promotionRow is the far row for a side.
func promotionRow(c Color) int {
	if c == White {
		return Size - 1
	}
	return 0
}

// HasCaptureFrom reports whether the piece can jump an opponent from where it stands.
func (b *Board) HasCaptureFrom(p *Piece) bool {
	if p == nil {
		return false
	}
	for _, d := range directionsFor(p) {
		tr, tc := p.Row+2*d.dr, p.Col+2*d.dc
		if !InBounds(tr, tc) || b.PieceAt(tr, tc) != nil {
			continue
		}
		if isOpponent(p, b.PieceAt(p.Row+d.dr, p.Col+d.dc)) {
			return true
		}
	}
	return false
}

// CaptureTarget returns the piece jumped by moving p to (row, col), or nil when
// the destination is not a legal capture.
func (b *Board) CaptureTarget(p *Piece, row, col int) *Piece {
	if p == nil {
		return nil
	}
	dr, dc := row-p.Row, col-p.Col
	if abs(dr) != 2 || abs(dc) != 2 {
		return nil
	}
	if !allowed(p, dr/2, dc/2) {
		return nil
	}
	if !InBounds(row, col) || b.PieceAt(row, col) != nil {
		return nil
	}
	mid := b.PieceAt(p.Row+dr/2, p.Col+dc/2)
	if !isOpponent(p, mid) {
		return nil
	}
	return mid
}

// IsSimpleMove reports whether (row, col) is a legal one-step destination.
func (b *Board) IsSimpleMove(p *Piece, row, col int) bool {
	if p == nil || !InBounds(row, col) || !IsDark(row, col) {
		return false
	}
	if b.PieceAt(row, col) != nil {
		return false
	}
	return allowed(p, row-p.Row, col-p.Col)
}

// CanMove reports whether the piece has any capture or simple move.
func (b *Board) CanMove(p *Piece) bool {
	if b.HasCaptureFrom(p) {
		return true
	}
	for _, d := range directionsFor(p) {
		if b.IsSimpleMove(p, p.Row+d.dr, p.Col+d.dc) {
			return true
		}
	}
	return false
}

// SideCanCapture scans every piece of a side for an available capture.
func (b *Board) SideCanCapture(c Color) bool {
	for _, p := range b.Pieces() {
		if p.Color == c && b.HasCaptureFrom(p) {
			return true
		}
	}
	return false
}

// Destinations lists the squares p may land on. With captureOnly set, only
// jump landings are returned.
func (b *Board) Destinations(p *Piece, captureOnly bool) []Square {
	if p == nil {
		return nil
	}
	var out []Square
	for _, d := range directionsFor(p) {
		tr, tc := p.Row+2*d.dr, p.Col+2*d.dc
		if b.CaptureTarget(p, tr, tc) != nil {
			out = append(out, Square{Row: tr, Col: tc})
		}
	}
	if captureOnly {
		return out
	}
	for _, d := range directionsFor(p) {
		tr, tc := p.Row+d.dr, p.Col+d.dc
		if b.IsSimpleMove(p, tr, tc) {
			out = append(out, Square{Row: tr, Col: tc})
		}
	}
	return out
}

// Promote crowns a man standing on its far row. It returns true only when the
// rank changed.
func Promote(p *Piece) bool {
	if p == nil || p.Rank == King {
		return false
	}
	if p.Row != promotionRow(p.Color) {
		return false
	}
	p.Rank = King
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
