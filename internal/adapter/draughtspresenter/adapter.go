package draughtspresenter

import (
	"strings"

	"github.com/park285/cheese-checkers-bot/internal/domain"
	"github.com/park285/cheese-checkers-bot/internal/draughts"
	"github.com/park285/cheese-checkers-bot/internal/lobby"
	"github.com/park285/cheese-checkers-bot/pkg/draughtsdto"
)

func ToDTOPlayer(p *domain.PlayerStats) draughtsdto.PlayerStats {
	if p == nil {
		return draughtsdto.PlayerStats{}
	}
	return draughtsdto.PlayerStats{
		Name:               p.Name,
		GamesPlayed:        p.GamesPlayed,
		GamesWon:           p.GamesWon,
		WinRate:            p.WinRate(),
		AverageMoves:       p.AverageMoves(),
		AverageTimeSeconds: p.AverageTimeSeconds(),
	}
}

func ToDTOPlayers(list []*domain.PlayerStats) []draughtsdto.PlayerStats {
	out := make([]draughtsdto.PlayerStats, 0, len(list))
	for _, p := range list {
		if p != nil {
			out = append(out, ToDTOPlayer(p))
		}
	}
	return out
}

func ToDTOGames(list []*domain.GameRecord) []draughtsdto.GameRecord {
	out := make([]draughtsdto.GameRecord, 0, len(list))
	for _, g := range list {
		if g == nil {
			continue
		}
		out = append(out, draughtsdto.GameRecord{
			WhiteName:  g.WhiteName,
			BlackName:  g.BlackName,
			WinnerName: g.WinnerName,
			TotalMoves: g.TotalMoves,
			Duration:   g.Duration,
			FinishedAt: g.FinishedAt,
		})
	}
	return out
}

func ToDTOLobbies(list []*lobby.Meta) []draughtsdto.LobbyEntry {
	out := make([]draughtsdto.LobbyEntry, 0, len(list))
	for _, m := range list {
		if m == nil {
			continue
		}
		out = append(out, draughtsdto.LobbyEntry{Code: m.Code, CreatorName: m.CreatorName, CreatedAt: m.CreatedAt})
	}
	return out
}

// ToDTOOutcome pairs a rendered state with the signals of one input.
func ToDTOOutcome(state *draughtsdto.GameState, actor string, sq draughts.Square, signals []draughts.Signal) *draughtsdto.PlayOutcome {
	names := make([]string, 0, len(signals))
	for _, s := range signals {
		names = append(names, s.Kind.String())
	}
	return &draughtsdto.PlayOutcome{
		State:     state,
		ActorName: strings.TrimSpace(actor),
		Square:    sq.String(),
		Signals:   names,
	}
}
