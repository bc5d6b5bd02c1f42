package draughts

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Phase is the turn/selection state.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseSelected
	PhaseContinuingJump
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseSelected:
		return "selected"
	case PhaseContinuingJump:
		return "continuing_jump"
	case PhaseEnded:
		return "ended"
	default:
		return "idle"
	}
}

// Controller owns a board and runs the click protocol on it. It is not safe
// for concurrent use; callers serialise inputs.
type Controller struct {
	board     *Board
	players   Players
	side      Color
	phase     Phase
	selected  *Piece
	moveCount int
	startedAt time.Time
	result    *GameResult

	sink   ResultSink
	clock  func() time.Time
	logger *zap.Logger
}

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithResultSink(s ResultSink) Option {
	return func(c *Controller) { c.sink = s }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.clock = now
		}
	}
}

// New starts a game from the standard position. Black moves first.
func New(players Players, opts ...Option) *Controller {
	c := newController(opts)
	c.board = StandardBoard()
	c.players = players
	c.side = Black
	c.startedAt = c.clock()
	return c
}

// NewFromBoard starts a game from an arbitrary position with the given side to move.
func NewFromBoard(board *Board, players Players, side Color, opts ...Option) *Controller {
	c := newController(opts)
	if board == nil {
		board = NewBoard()
	}
	c.board = board
	c.players = players
	c.side = side
	c.startedAt = c.clock()
	return c
}

func newController(opts []Option) *Controller {
	c := &Controller{clock: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Board() *Board { return c.board }
func (c *Controller) Players() Players { return c.players }
func (c *Controller) SideToMove() Color { return c.side }
func (c *Controller) Phase() Phase { return c.phase }
func (c *Controller) MoveCount() int { return c.moveCount }
func (c *Controller) StartedAt() time.Time { return c.startedAt }
func (c *Controller) Ended() bool { return c.phase == PhaseEnded }
func (c *Controller) Selected() *Piece { return c.selected }
func (c *Controller) MustContinueJump() bool { return c.phase == PhaseContinuingJump }

// Result returns the final result once the game has ended.
func (c *Controller) Result() (GameResult, bool) {
	if c.result == nil {
		return GameResult{}, false
	}
	return *c.result, true
}

// Elapsed is the time since the game started, frozen at the end of the game.
func (c *Controller) Elapsed() time.Duration {
	if c.result != nil {
		return c.result.Duration()
	}
	d := c.clock().Sub(c.startedAt)
	if d < 0 {
		return 0
	}
	return d
}

// ApplyInput resolves a click on (row, col) for the side to move.
func (c *Controller) ApplyInput(ctx context.Context, row, col int) []Signal {
	if c.phase == PhaseEnded {
		return nil
	}

	clicked := c.board.PieceAt(row, col)
	if c.phase == PhaseContinuingJump && clicked != nil && clicked != c.selected {
		return c.reject(SignalMustFinishJump, row, col)
	}

	// recomputed on every input
	mustCapture := c.board.SideCanCapture(c.side)

	if clicked != nil {
		return c.selectPiece(clicked, mustCapture, row, col)
	}
	if c.selected == nil {
		return c.reject(SignalIllegalMove, row, col)
	}
	return c.moveSelected(ctx, row, col, mustCapture)
}

func (c *Controller) selectPiece(p *Piece, mustCapture bool, row, col int) []Signal {
	if c.phase == PhaseContinuingJump {
		// the jumping piece itself; nothing to do
		return nil
	}
	if p.Color != c.side {
		return c.reject(SignalIllegalMove, row, col)
	}
	if mustCapture && !c.board.HasCaptureFrom(p) {
		return c.reject(SignalMustCapture, row, col)
	}
	c.selected = p
	c.phase = PhaseSelected
	return []Signal{{Kind: SignalSelected}}
}

func (c *Controller) moveSelected(ctx context.Context, row, col int, mustCapture bool) []Signal {
	p := c.selected
	captured := c.board.CaptureTarget(p, row, col)

	if captured == nil {
		if c.phase == PhaseContinuingJump {
			return c.reject(SignalMustFinishJump, row, col)
		}
		if mustCapture {
			return c.reject(SignalMustCapture, row, col)
		}
		if !c.board.IsSimpleMove(p, row, col) {
			return c.reject(SignalIllegalMove, row, col)
		}
		from := p.Square()
		c.board.Move(p, row, col)
		promoted := Promote(p)
		c.logger.Debug("draughts_move",
			zap.String("side", c.side.String()),
			zap.String("from", from.String()),
			zap.String("to", p.Square().String()),
			zap.Bool("promoted", promoted),
		)
		return c.endTurn(ctx)
	}

	from := p.Square()
	c.board.Remove(captured)
	c.board.Move(p, row, col)
	promoted := Promote(p)
	c.logger.Debug("draughts_capture",
		zap.String("side", c.side.String()),
		zap.String("from", from.String()),
		zap.String("to", p.Square().String()),
		zap.String("captured", captured.Square().String()),
		zap.Bool("promoted", promoted),
	)
	if !promoted && c.board.HasCaptureFrom(p) {
		c.phase = PhaseContinuingJump
		return []Signal{{Kind: SignalMustFinishJump}}
	}
	return c.endTurn(ctx)
}

func (c *Controller) endTurn(ctx context.Context) []Signal {
	c.selected = nil
	c.phase = PhaseIdle
	c.side = c.side.Opposite()
	c.moveCount++
	signals := []Signal{{Kind: SignalTurnAdvanced}}

	out := Evaluate(c.board, c.side)
	if !out.Ended {
		return signals
	}
	res := c.finish(ctx, out.Winner, false)
	return append(signals, Signal{Kind: SignalGameEnded, Result: &res})
}

// Resign ends an active game in favour of the other side.
func (c *Controller) Resign(ctx context.Context, loser Color) []Signal {
	if c.phase == PhaseEnded {
		return nil
	}
	c.selected = nil
	res := c.finish(ctx, loser.Opposite(), true)
	return []Signal{{Kind: SignalGameEnded, Result: &res}}
}

func (c *Controller) finish(ctx context.Context, winner Color, resigned bool) GameResult {
	now := c.clock()
	dur := now.Sub(c.startedAt).Milliseconds()
	if dur < 0 {
		dur = 0
	}
	res := GameResult{
		WhiteName:      c.players.White,
		BlackName:      c.players.Black,
		WinnerName:     c.players.Name(winner),
		Winner:         winner,
		TotalMoves:     c.moveCount,
		DurationMillis: dur,
		Resigned:       resigned,
		FinishedAt:     now,
	}
	c.phase = PhaseEnded
	c.selected = nil
	c.result = &res
	c.logger.Info("draughts_game_end",
		zap.String("winner", winner.String()),
		zap.String("winner_name", res.WinnerName),
		zap.Int("moves", res.TotalMoves),
		zap.Int64("duration_ms", res.DurationMillis),
		zap.Bool("resigned", resigned),
	)
	if c.sink != nil {
		if err := c.sink.RecordResult(ctx, res); err != nil {
			c.logger.Warn("draughts_result_sink_error", zap.Error(err))
		}
	}
	return res
}

func (c *Controller) reject(kind SignalKind, row, col int) []Signal {
	c.logger.Debug("draughts_input_rejected",
		zap.String("signal", kind.String()),
		zap.String("side", c.side.String()),
		zap.Int("row", row),
		zap.Int("col", col),
	)
	return []Signal{{Kind: kind}}
}
