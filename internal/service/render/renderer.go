package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/park285/cheese-checkers-bot/internal/draughts"
)

type Options struct {
	// HUDHeader is drawn above the board, usually "white vs black".
	HUDHeader string
	HUDTurn   string
	// Flip draws row 0 at the top, the black player's point of view.
	Flip bool
}

// BoardRenderer turns a game view into an image. It never mutates game state.
type BoardRenderer interface {
	RenderPNG(ctx context.Context, view draughts.View, opts Options) ([]byte, error)
}

type pngRenderer struct {
	face font.Face
}

func NewPNGRenderer() BoardRenderer {
	return &pngRenderer{face: basicfont.Face7x13}
}

const (
	squareSize   = 64
	boardSize    = squareSize * draughts.Size
	sideMargin   = 32
	topMargin    = 96
	bottomMargin = 32

	titleHeight      = 32
	turnHeight       = 26
	gapBetweenPanels = 8
	gapToBoard       = 14
	panelRadius      = 10
	panelPaddingX    = 18
	titleMinWidth    = 240
	turnMinWidth     = 140
	shadowOffsetY    = 4
)

var (
	lightSquare         = color.RGBA{240, 217, 181, 255}
	darkSquare          = color.RGBA{120, 78, 52, 255}
	selectedFill        = color.NRGBA{R: 255, G: 221, B: 87, A: 150}
	targetDot           = color.NRGBA{R: 92, G: 200, B: 120, A: 200}
	hudPanelColor       = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTurnPanelColor   = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	hudShadowColor      = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTurnTextColor    = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	backgroundColor     = color.RGBA{46, 49, 66, 255}
	coordinateTextColor = color.NRGBA{R: 214, G: 214, B: 214, A: 255}
)

func (r *pngRenderer) RenderPNG(ctx context.Context, view draughts.View, opts Options) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	totalWidth := boardSize + sideMargin*2
	totalHeight := boardSize + topMargin + bottomMargin
	origin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	r.drawHUD(img, view, opts, boardRect)
	drawSquares(img, origin, opts.Flip)
	if view.Selected != nil {
		drawSquareOverlay(img, *view.Selected, origin, opts.Flip, selectedFill)
	}
	if err := drawPieces(img, view.Pieces, origin, opts.Flip); err != nil {
		return nil, err
	}
	for _, sq := range view.Targets {
		rect := squareRect(sq, origin, opts.Flip)
		center := image.Pt(rect.Min.X+squareSize/2, rect.Min.Y+squareSize/2)
		drawDisc(img, center, squareSize/8, targetDot)
	}
	r.drawCoordinates(img, origin, opts.Flip)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawSquares(dst *image.RGBA, origin image.Point, flip bool) {
	for row := 0; row < draughts.Size; row++ {
		for col := 0; col < draughts.Size; col++ {
			clr := lightSquare
			if draughts.IsDark(row, col) {
				clr = darkSquare
			}
			rect := squareRect(draughts.Square{Row: row, Col: col}, origin, flip)
			imagedraw.Draw(dst, rect, image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst *image.RGBA, pieces []draughts.Piece, origin image.Point, flip bool) error {
	for _, p := range pieces {
		img, err := renderPieceImage(p.Color, p.Rank, squareSize)
		if err != nil {
			return err
		}
		rect := squareRect(p.Square(), origin, flip)
		imagedraw.Draw(dst, rect, img, image.Point{}, imagedraw.Over)
	}
	return nil
}

func drawSquareOverlay(img *image.RGBA, sq draughts.Square, origin image.Point, flip bool, clr color.Color) {
	rect := squareRect(sq, origin, flip)
	imagedraw.Draw(img, rect, image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

// squareRect places row 7 at the top unless flipped.
func squareRect(sq draughts.Square, origin image.Point, flip bool) image.Rectangle {
	x, y := screenCell(sq, flip)
	px := origin.X + x*squareSize
	py := origin.Y + y*squareSize
	return image.Rect(px, py, px+squareSize, py+squareSize)
}

func screenCell(sq draughts.Square, flip bool) (x, y int) {
	if flip {
		return draughts.Size - 1 - sq.Col, sq.Row
	}
	return sq.Col, draughts.Size - 1 - sq.Row
}

func (r *pngRenderer) drawHUD(img *image.RGBA, view draughts.View, opts Options, boardRect image.Rectangle) {
	drawer := &font.Drawer{Dst: img, Face: r.face}

	title := strings.TrimSpace(opts.HUDHeader)
	if title == "" {
		title = fmt.Sprintf("%s vs %s", view.Players.White, view.Players.Black)
	}
	turn := strings.TrimSpace(opts.HUDTurn)
	if turn == "" {
		turn = defaultTurnText(view)
	}

	turnBottom := boardRect.Min.Y - gapToBoard
	turnTop := turnBottom - turnHeight
	titleBottom := turnTop - gapBetweenPanels
	titleTop := titleBottom - titleHeight

	titleWidth := clampWidth(drawer.MeasureString(title).Round()+panelPaddingX*2, titleMinWidth, boardRect.Dx())
	turnWidth := clampWidth(drawer.MeasureString(turn).Round()+panelPaddingX*2, turnMinWidth, boardRect.Dx()-40)

	titleLeft := boardRect.Min.X + (boardRect.Dx()-titleWidth)/2
	titleRect := image.Rect(titleLeft, titleTop, titleLeft+titleWidth, titleBottom)
	turnLeft := boardRect.Min.X + (boardRect.Dx()-turnWidth)/2
	turnRect := image.Rect(turnLeft, turnTop, turnLeft+turnWidth, turnBottom)

	drawRoundedPanel(img, titleRect.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
	drawRoundedPanel(img, turnRect.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
	drawRoundedPanel(img, titleRect, panelRadius, hudPanelColor)
	drawRoundedPanel(img, turnRect, panelRadius, hudTurnPanelColor)

	title = truncateWithEllipsis(r.face, title, titleRect.Dx()-panelPaddingX*2)
	turn = truncateWithEllipsis(r.face, turn, turnRect.Dx()-panelPaddingX*2)
	drawCenteredString(drawer, titleRect, title, hudTextPrimary)
	drawCenteredString(drawer, turnRect, turn, hudTurnTextColor)
}

func defaultTurnText(view draughts.View) string {
	if view.Result != nil {
		return fmt.Sprintf("%s wins (%s)", view.Result.WinnerName, view.Result.Winner)
	}
	name := view.Players.Name(view.SideToMove)
	if view.Phase == draughts.PhaseContinuingJump {
		return fmt.Sprintf("%s (%s) must keep jumping", name, view.SideToMove)
	}
	return fmt.Sprintf("%s to move - move %d", view.SideToMove, view.MoveCount+1)
}

func clampWidth(w, lo, hi int) int {
	if w < lo {
		w = lo
	}
	if w > hi {
		w = hi
	}
	return w
}

func (r *pngRenderer) drawCoordinates(dst *image.RGBA, origin image.Point, flip bool) {
	drawer := &font.Drawer{Dst: dst, Face: r.face, Src: image.NewUniform(coordinateTextColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	boardBottom := origin.Y + boardSize

	for i := 0; i < draughts.Size; i++ {
		sq := draughts.Square{Row: i, Col: i}
		x, y := screenCell(sq, flip)
		label := sq.String()

		rowCenter := origin.Y + y*squareSize + squareSize/2
		drawCenteredText(drawer, label[1:], origin.X-sideMargin/2, rowCenter+ascent/2)

		colCenter := origin.X + x*squareSize + squareSize/2
		drawCenteredText(drawer, label[:1], colCenter, boardBottom+ascent+4)
	}
}
