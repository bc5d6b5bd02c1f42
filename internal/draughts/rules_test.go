package draughts

import "testing"

func TestHasCaptureFrom(t *testing.T) {
	b := boardWith(t, man(White, 2, 2), man(Black, 3, 3))
	if !b.HasCaptureFrom(b.PieceAt(2, 2)) {
		t.Fatalf("white should capture forward")
	}
	if !b.HasCaptureFrom(b.PieceAt(3, 3)) {
		t.Fatalf("black should capture towards row 0")
	}

	behind := boardWith(t, man(White, 2, 2), man(Black, 1, 1))
	if behind.HasCaptureFrom(behind.PieceAt(1, 1)) || behind.HasCaptureFrom(behind.PieceAt(2, 2)) {
		t.Fatalf("men cannot capture backwards")
	}

	blocked := boardWith(t, man(White, 2, 2), man(Black, 3, 3), man(Black, 4, 4))
	if blocked.HasCaptureFrom(blocked.PieceAt(2, 2)) {
		t.Fatalf("occupied landing square must block capture")
	}

	edge := boardWith(t, man(White, 6, 6), man(Black, 7, 7))
	if edge.HasCaptureFrom(edge.PieceAt(6, 6)) {
		t.Fatalf("landing off board must block capture")
	}
}

func TestKingCapturesBackwards(t *testing.T) {
	b := boardWith(t, king(White, 4, 4), man(Black, 3, 3))
	if !b.HasCaptureFrom(b.PieceAt(4, 4)) {
		t.Fatalf("king should capture backwards")
	}
	if got := b.CaptureTarget(b.PieceAt(4, 4), 2, 2); got != b.PieceAt(3, 3) {
		t.Fatalf("CaptureTarget = %+v", got)
	}
}

func TestCaptureTarget(t *testing.T) {
	b := boardWith(t, man(White, 2, 2), man(Black, 3, 3), man(White, 3, 1))
	p := b.PieceAt(2, 2)
	if got := b.CaptureTarget(p, 4, 4); got == nil || got.Row != 3 || got.Col != 3 {
		t.Fatalf("expected capture of (3,3), got %+v", got)
	}
	// own piece in the middle
	if got := b.CaptureTarget(p, 4, 0); got != nil {
		t.Fatalf("jumping own piece returned %+v", *got)
	}
	// wrong magnitude and non diagonal
	for _, sq := range []Square{{3, 3}, {5, 5}, {4, 2}, {2, 4}, {0, 0}} {
		if got := b.CaptureTarget(p, sq.Row, sq.Col); got != nil {
			t.Fatalf("CaptureTarget(%v) = %+v, want nil", sq, *got)
		}
	}
}

func TestIsSimpleMove(t *testing.T) {
	b := boardWith(t, man(White, 2, 2), man(Black, 5, 5), man(White, 3, 1))
	w := b.PieceAt(2, 2)
	if !b.IsSimpleMove(w, 3, 3) {
		t.Fatalf("forward diagonal should be legal")
	}
	if b.IsSimpleMove(w, 3, 1) {
		t.Fatalf("occupied square should be illegal")
	}
	if b.IsSimpleMove(w, 1, 1) {
		t.Fatalf("man cannot step backwards")
	}
	if b.IsSimpleMove(w, 4, 4) || b.IsSimpleMove(w, 3, 2) || b.IsSimpleMove(w, 2, 3) {
		t.Fatalf("only single diagonal steps are legal")
	}
	bl := b.PieceAt(5, 5)
	if !b.IsSimpleMove(bl, 4, 4) || b.IsSimpleMove(bl, 6, 6) {
		t.Fatalf("black men move towards row 0")
	}
}

func TestCanMove(t *testing.T) {
	stuck := boardWith(t, man(White, 6, 6), man(Black, 7, 7), man(Black, 7, 5))
	if stuck.CanMove(stuck.PieceAt(6, 6)) {
		t.Fatalf("white man with both forward squares occupied and no jump should be stuck")
	}
	jump := boardWith(t, man(White, 5, 5), man(Black, 6, 6), man(Black, 6, 4))
	if !jump.CanMove(jump.PieceAt(5, 5)) {
		t.Fatalf("piece with a capture can move")
	}
}

func TestPromote(t *testing.T) {
	w := &Piece{Color: White, Rank: Man, Row: 7, Col: 1}
	if !Promote(w) || w.Rank != King {
		t.Fatalf("white man on row 7 should promote")
	}
	if Promote(w) {
		t.Fatalf("king must not promote twice")
	}
	b := &Piece{Color: Black, Rank: Man, Row: 0, Col: 2}
	if !Promote(b) || !b.IsKing() {
		t.Fatalf("black man on row 0 should promote")
	}
	mid := &Piece{Color: White, Rank: Man, Row: 0, Col: 0}
	if Promote(mid) {
		t.Fatalf("white man on its home row must not promote")
	}
}

func TestDestinations(t *testing.T) {
	b := boardWith(t, man(White, 2, 2), man(Black, 3, 3))
	p := b.PieceAt(2, 2)
	jumps := b.Destinations(p, true)
	if len(jumps) != 1 || jumps[0] != (Square{Row: 4, Col: 4}) {
		t.Fatalf("capture destinations = %v", jumps)
	}
	all := b.Destinations(p, false)
	if len(all) != 2 {
		t.Fatalf("expected jump + one step, got %v", all)
	}
}

func TestEvaluate(t *testing.T) {
	noBlack := boardWith(t, man(White, 2, 2))
	if out := Evaluate(noBlack, Black); !out.Ended || out.Winner != White {
		t.Fatalf("no black pieces: %+v", out)
	}
	stuckBlack := boardWith(t, man(White, 2, 2), man(Black, 0, 0))
	if out := Evaluate(stuckBlack, Black); !out.Ended || out.Winner != White {
		t.Fatalf("immobile black: %+v", out)
	}
	ongoing := StandardBoard()
	if out := Evaluate(ongoing, Black); out.Ended {
		t.Fatalf("opening position ended: %+v", out)
	}
	empty := NewBoard()
	if out := Evaluate(empty, White); !out.Ended || out.Winner != Black {
		t.Fatalf("both sides without moves, white to move should lose: %+v", out)
	}
	if out := Evaluate(empty, Black); !out.Ended || out.Winner != White {
		t.Fatalf("both sides without moves, black to move should lose: %+v", out)
	}
}
