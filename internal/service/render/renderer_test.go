package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/park285/cheese-checkers-bot/internal/draughts"
)

func decode(t *testing.T, raw []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func cellCenter(sq draughts.Square, flip bool) (int, int) {
	r := squareRect(sq, image.Point{X: sideMargin, Y: topMargin}, flip)
	return r.Min.X + squareSize/2, r.Min.Y + squareSize/2
}

func sameRGB(a color.Color, b color.RGBA) bool {
	r, g, bl, _ := a.RGBA()
	return uint8(r>>8) == b.R && uint8(g>>8) == b.G && uint8(bl>>8) == b.B
}

func TestRenderStandardBoard(t *testing.T) {
	view := draughts.New(draughts.Players{White: "alice", Black: "bob"}).View()
	raw, err := NewPNGRenderer().RenderPNG(context.Background(), view, Options{})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img := decode(t, raw)
	b := img.Bounds()
	if b.Dx() != boardSize+sideMargin*2 || b.Dy() != boardSize+topMargin+bottomMargin {
		t.Fatalf("unexpected size %v", b)
	}

	x, y := cellCenter(draughts.Square{Row: 3, Col: 3}, false)
	if !sameRGB(img.At(x, y), darkSquare) {
		t.Fatalf("empty dark square has color %v", img.At(x, y))
	}
	x, y = cellCenter(draughts.Square{Row: 3, Col: 4}, false)
	if !sameRGB(img.At(x, y), lightSquare) {
		t.Fatalf("light square has color %v", img.At(x, y))
	}
	x, y = cellCenter(draughts.Square{Row: 0, Col: 0}, false)
	if sameRGB(img.At(x, y), darkSquare) {
		t.Fatalf("piece on a1 was not drawn")
	}
}

func TestRenderFlipAndHighlights(t *testing.T) {
	b := draughts.NewBoard()
	if _, err := b.Place(draughts.Piece{Color: draughts.White, Rank: draughts.King, Row: 2, Col: 2}); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if _, err := b.Place(draughts.Piece{Color: draughts.Black, Rank: draughts.Man, Row: 3, Col: 3}); err != nil {
		t.Fatalf("Place: %v", err)
	}
	c := draughts.NewFromBoard(b, draughts.Players{White: "alice", Black: "bob"}, draughts.White)
	c.ApplyInput(context.Background(), 2, 2)
	view := c.View()

	r := NewPNGRenderer()
	plain, err := r.RenderPNG(context.Background(), view, Options{HUDHeader: "alice vs bob"})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	flipped, err := r.RenderPNG(context.Background(), view, Options{HUDHeader: "alice vs bob", Flip: true})
	if err != nil {
		t.Fatalf("RenderPNG flipped: %v", err)
	}
	if bytes.Equal(plain, flipped) {
		t.Fatalf("flipped render should differ")
	}

	img := decode(t, flipped)
	x, y := cellCenter(draughts.Square{Row: 4, Col: 4}, true)
	if sameRGB(img.At(x, y), darkSquare) {
		t.Fatalf("capture target e5 should carry a marker")
	}
}

func TestRenderHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	view := draughts.New(draughts.Players{}).View()
	if _, err := NewPNGRenderer().RenderPNG(ctx, view, Options{}); err == nil {
		t.Fatalf("expected context error")
	}
}
