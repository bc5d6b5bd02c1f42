package draughtspresenter

import (
	"context"
	"errors"
	"strings"

	"github.com/park285/cheese-checkers-bot/internal/irisfast"
	"github.com/park285/cheese-checkers-bot/pkg/draughtsdto"
)

// Presenter delivers text and board images to chat rooms.
type Presenter struct {
	egress irisfast.Egress
}

func NewPresenter(egress irisfast.Egress) *Presenter {
	return &Presenter{egress: egress}
}

func (p *Presenter) Text(ctx context.Context, room, message string) error {
	if p == nil || p.egress == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.egress.SendText(ctx, room, message)
}

// Board sends message followed by the board image to room.
func (p *Presenter) Board(ctx context.Context, room, message string, state *draughtsdto.GameState) error {
	if p == nil || p.egress == nil {
		return nil
	}
	if err := p.Text(ctx, room, message); err != nil {
		return err
	}
	if state != nil && len(state.BoardImage) > 0 {
		return p.egress.SendImage(ctx, room, state.BoardImage)
	}
	return nil
}

// Broadcast sends the same board update to every room following the game.
// All rooms are attempted; the errors are joined.
func (p *Presenter) Broadcast(ctx context.Context, message string, state *draughtsdto.GameState) error {
	if state == nil {
		return nil
	}
	var errs []error
	for _, room := range state.Rooms {
		if err := p.Board(ctx, room, message, state); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
