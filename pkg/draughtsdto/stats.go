package draughtsdto

import "time"

type PlayerStats struct {
	Name               string
	GamesPlayed        int
	GamesWon           int
	WinRate            float64
	AverageMoves       float64
	AverageTimeSeconds int64
}

type GameRecord struct {
	WhiteName  string
	BlackName  string
	WinnerName string
	TotalMoves int
	Duration   time.Duration
	FinishedAt time.Time
}

type LobbyEntry struct {
	Code        string
	CreatorName string
	CreatedAt   time.Time
}
