package draughts

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidSnapshot = errors.New("invalid draughts snapshot")

// View is a read-only projection of a game for renderers.
type View struct {
	Pieces     []Piece
	Selected   *Square
	Targets    []Square
	SideToMove Color
	Phase      Phase
	MoveCount  int
	Elapsed    time.Duration
	Players    Players
	Result     *GameResult
}

// View copies the current state. Targets lists where the selected piece may land.
func (c *Controller) View() View {
	v := View{
		SideToMove: c.side,
		Phase:      c.phase,
		MoveCount:  c.moveCount,
		Elapsed:    c.Elapsed(),
		Players:    c.players,
	}
	for _, p := range c.board.Pieces() {
		v.Pieces = append(v.Pieces, *p)
	}
	if c.selected != nil {
		sq := c.selected.Square()
		v.Selected = &sq
		captureOnly := c.phase == PhaseContinuingJump || c.board.SideCanCapture(c.side)
		v.Targets = c.board.Destinations(c.selected, captureOnly)
	}
	if c.result != nil {
		r := *c.result
		v.Result = &r
	}
	return v
}

// Snapshot is the persistable part of a game. Collaborators such as the
// result sink, logger and clock are supplied again on Restore.
type Snapshot struct {
	Pieces         []Piece     `json:"pieces"`
	SideToMove     Color       `json:"side_to_move"`
	Selected       *Square     `json:"selected,omitempty"`
	ContinuingJump bool        `json:"continuing_jump,omitempty"`
	MoveCount      int         `json:"move_count"`
	StartedAt      time.Time   `json:"started_at"`
	Ended          bool        `json:"ended,omitempty"`
	Players        Players     `json:"players"`
	Result         *GameResult `json:"result,omitempty"`
}

func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		SideToMove:     c.side,
		ContinuingJump: c.phase == PhaseContinuingJump,
		MoveCount:      c.moveCount,
		StartedAt:      c.startedAt,
		Ended:          c.phase == PhaseEnded,
		Players:        c.players,
	}
	for _, p := range c.board.Pieces() {
		s.Pieces = append(s.Pieces, *p)
	}
	if c.selected != nil {
		sq := c.selected.Square()
		s.Selected = &sq
	}
	if c.result != nil {
		r := *c.result
		s.Result = &r
	}
	return s
}

// Restore rebuilds a controller from a snapshot, rejecting any state the
// controller itself could never have produced.
func Restore(s Snapshot, opts ...Option) (*Controller, error) {
	if s.MoveCount < 0 {
		return nil, fmt.Errorf("%w: negative move count", ErrInvalidSnapshot)
	}
	if s.SideToMove != White && s.SideToMove != Black {
		return nil, fmt.Errorf("%w: bad side to move", ErrInvalidSnapshot)
	}
	board := NewBoard()
	for _, p := range s.Pieces {
		if p.Color != White && p.Color != Black {
			return nil, fmt.Errorf("%w: bad color", ErrInvalidSnapshot)
		}
		if p.Rank != Man && p.Rank != King {
			return nil, fmt.Errorf("%w: bad rank", ErrInvalidSnapshot)
		}
		if _, err := board.Place(p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
	}

	c := newController(opts)
	c.board = board
	c.players = s.Players
	c.side = s.SideToMove
	c.moveCount = s.MoveCount
	c.startedAt = s.StartedAt
	if c.startedAt.IsZero() {
		c.startedAt = c.clock()
	}

	if s.Ended {
		if s.Selected != nil || s.ContinuingJump {
			return nil, fmt.Errorf("%w: selection in ended game", ErrInvalidSnapshot)
		}
		c.phase = PhaseEnded
		if s.Result != nil {
			r := *s.Result
			c.result = &r
		} else {
			out := Evaluate(board, s.SideToMove)
			if !out.Ended {
				return nil, fmt.Errorf("%w: ended without result", ErrInvalidSnapshot)
			}
			r := GameResult{
				WhiteName:  s.Players.White,
				BlackName:  s.Players.Black,
				WinnerName: s.Players.Name(out.Winner),
				Winner:     out.Winner,
				TotalMoves: s.MoveCount,
			}
			c.result = &r
		}
		return c, nil
	}
	if s.Result != nil {
		return nil, fmt.Errorf("%w: result on active game", ErrInvalidSnapshot)
	}

	if s.Selected == nil {
		if s.ContinuingJump {
			return nil, fmt.Errorf("%w: continuing jump without selection", ErrInvalidSnapshot)
		}
		return c, nil
	}
	sel := board.PieceAt(s.Selected.Row, s.Selected.Col)
	if sel == nil {
		return nil, fmt.Errorf("%w: selection %s is empty", ErrInvalidSnapshot, *s.Selected)
	}
	if sel.Color != s.SideToMove {
		return nil, fmt.Errorf("%w: selection belongs to %s", ErrInvalidSnapshot, sel.Color)
	}
	c.selected = sel
	c.phase = PhaseSelected
	if s.ContinuingJump {
		if !board.HasCaptureFrom(sel) {
			return nil, fmt.Errorf("%w: continuing jump with no capture", ErrInvalidSnapshot)
		}
		c.phase = PhaseContinuingJump
	}
	return c, nil
}
