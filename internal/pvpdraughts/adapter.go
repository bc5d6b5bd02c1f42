package pvpdraughts

import (
	"context"
	"fmt"

	"github.com/park285/cheese-checkers-bot/internal/draughts"
	"github.com/park285/cheese-checkers-bot/internal/service/render"
	"github.com/park285/cheese-checkers-bot/pkg/draughtsdto"
)

// ToDTO renders the board for viewerID and returns the presenter state. The
// black player sees the board from their own side.
func (m *Manager) ToDTO(ctx context.Context, g *Game, viewerID string) (*draughtsdto.GameState, error) {
	if m == nil || g == nil {
		return nil, nil
	}
	ctrl, err := draughts.Restore(g.Board, draughts.WithClock(m.now))
	if err != nil {
		return nil, fmt.Errorf("restore game %s: %w", g.ID, err)
	}
	view := ctrl.View()
	viewer, _ := g.ColorOf(viewerID)
	opts := render.Options{
		HUDHeader: fmt.Sprintf("%s vs %s", g.WhiteName, g.BlackName),
		HUDTurn:   hudTurn(g, view),
		Flip:      viewer == draughts.Black,
	}
	png, err := m.renderer.RenderPNG(ctx, view, opts)
	if err != nil {
		return nil, err
	}

	state := &draughtsdto.GameState{
		GameID:         g.ID,
		WhiteName:      g.WhiteName,
		BlackName:      g.BlackName,
		SideToMove:     view.SideToMove.String(),
		SideToMoveName: view.Players.Name(view.SideToMove),
		Phase:          view.Phase.String(),
		MoveCount:      view.MoveCount,
		Elapsed:        view.Elapsed,
		BoardImage:     png,
		Rooms:          g.Rooms(),
	}
	if res, ok := g.Result(); ok {
		state.Ended = true
		state.WinnerName = res.WinnerName
		state.Resigned = res.Resigned
		state.ResultLine = res.String()
	}
	return state, nil
}

func hudTurn(g *Game, view draughts.View) string {
	if view.Result != nil {
		return "Winner: " + view.Result.WinnerName
	}
	name := g.WhiteName
	label := "White"
	if view.SideToMove == draughts.Black {
		name, label = g.BlackName, "Black"
	}
	return fmt.Sprintf("%s (%s) - move %d", label, name, view.MoveCount+1)
}
