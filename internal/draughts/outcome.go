package draughts

import (
	"context"
	"fmt"
	"time"
)

// Outcome is the verdict of the end-of-game check.
type Outcome struct {
	Ended  bool
	Winner Color
}

// Evaluate checks both sides once after a completed turn. A side loses when it
// has no pieces or none of its pieces can move. When both sides lose at the
// same time, the side to move is the one that cannot play and loses.
func Evaluate(b *Board, sideToMove Color) Outcome {
	whiteCount, whiteMobile := b.CountAndMobility(White)
	blackCount, blackMobile := b.CountAndMobility(Black)
	whiteLoses := whiteCount == 0 || !whiteMobile
	blackLoses := blackCount == 0 || !blackMobile

	switch {
	case whiteLoses && blackLoses:
		return Outcome{Ended: true, Winner: sideToMove.Opposite()}
	case whiteLoses:
		return Outcome{Ended: true, Winner: Black}
	case blackLoses:
		return Outcome{Ended: true, Winner: White}
	default:
		return Outcome{}
	}
}

// GameResult describes a finished game. It is built once and passed by value.
type GameResult struct {
	WhiteName      string    `json:"white_name"`
	BlackName      string    `json:"black_name"`
	WinnerName     string    `json:"winner_name"`
	Winner         Color     `json:"winner"`
	TotalMoves     int       `json:"total_moves"`
	DurationMillis int64     `json:"duration_ms"`
	Resigned       bool      `json:"resigned,omitempty"`
	FinishedAt     time.Time `json:"finished_at"`
}

func (r GameResult) Duration() time.Duration {
	return time.Duration(r.DurationMillis) * time.Millisecond
}

func (r GameResult) String() string {
	secs := r.DurationMillis / 1000
	return fmt.Sprintf("%s vs %s | winner: %s | moves: %d | time: %d:%02d",
		r.WhiteName, r.BlackName, r.WinnerName, r.TotalMoves, secs/60, secs%60)
}

// ResultSink receives finished games. Failures never affect game state.
type ResultSink interface {
	RecordResult(ctx context.Context, result GameResult) error
}

// ResultSinkFunc adapts a function to ResultSink.
type ResultSinkFunc func(ctx context.Context, result GameResult) error

func (f ResultSinkFunc) RecordResult(ctx context.Context, result GameResult) error {
	return f(ctx, result)
}
