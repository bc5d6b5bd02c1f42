package domain

import "time"

// GameRecord is a finished game as stored by the results repositories.
type GameRecord struct {
	ID         int64
	GameID     string
	WhiteName  string
	BlackName  string
	WinnerName string
	TotalMoves int
	Duration   time.Duration
	Resigned   bool
	FinishedAt time.Time
}

// PlayerStats accumulates results for one named player.
type PlayerStats struct {
	Name        string
	GamesPlayed int
	GamesWon    int
	TotalMoves  int
	TotalTime   time.Duration
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AddGame folds one finished game into the totals.
func (p *PlayerStats) AddGame(won bool, moves int, d time.Duration) {
	p.GamesPlayed++
	if won {
		p.GamesWon++
	}
	p.TotalMoves += moves
	p.TotalTime += d
}

// WinRate is the share of won games in percent.
func (p PlayerStats) WinRate() float64 {
	if p.GamesPlayed == 0 {
		return 0
	}
	return float64(p.GamesWon) / float64(p.GamesPlayed) * 100
}

func (p PlayerStats) AverageMoves() float64 {
	if p.GamesPlayed == 0 {
		return 0
	}
	return float64(p.TotalMoves) / float64(p.GamesPlayed)
}

// AverageTimeSeconds truncates to whole seconds before dividing.
func (p PlayerStats) AverageTimeSeconds() int64 {
	if p.GamesPlayed == 0 {
		return 0
	}
	return int64(p.TotalTime/time.Second) / int64(p.GamesPlayed)
}
