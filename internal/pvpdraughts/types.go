package pvpdraughts

import (
	"errors"
	"strings"
	"time"

	"github.com/park285/cheese-checkers-bot/internal/draughts"
)

// Status represents a networked game lifecycle state.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
	StatusResigned Status = "RESIGNED"
)

var (
	ErrNotInitialized      = errors.New("pvp manager not initialized")
	ErrInvalidParticipants = errors.New("invalid participants")
	ErrSelfPlay            = errors.New("cannot play against yourself")
	ErrNoActiveGame        = errors.New("no active game")
	ErrGameNotFound        = errors.New("game not found")
	ErrGameNotActive       = errors.New("game no longer active")
	ErrNotInGame           = errors.New("user not in game")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrConcurrentUpdate    = errors.New("concurrent update")
	ErrBusyInRoom          = errors.New("player has an active game in this room")
	ErrTooManyGames        = errors.New("too many active games")
)

// BusyError names the player who already has a game in the room.
type BusyError struct {
	UserID string
}

func (e *BusyError) Error() string { return ErrBusyInRoom.Error() + ": " + e.UserID }
func (e *BusyError) Unwrap() error { return ErrBusyInRoom }

// Game is the persisted state of a match between two chat users. Board holds
// the full rules-engine snapshot; Version increases on every stored change.
type Game struct {
	ID          string            `json:"id"`
	Status      Status            `json:"status"`
	Version     int64             `json:"version"`
	Board       draughts.Snapshot `json:"board"`
	WhiteID     string            `json:"white_id"`
	WhiteName   string            `json:"white_name"`
	BlackID     string            `json:"black_id"`
	BlackName   string            `json:"black_name"`
	OriginRoom  string            `json:"origin_room"`
	ResolveRoom string            `json:"resolve_room"`
	ResumedFrom string            `json:"resumed_from,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Winner      string            `json:"winner,omitempty"`
	Outcome     string            `json:"outcome,omitempty"`
}

// ColorOf returns the side played by userID.
func (g *Game) ColorOf(userID string) (draughts.Color, bool) {
	switch strings.TrimSpace(userID) {
	case "":
		return draughts.White, false
	case g.WhiteID:
		return draughts.White, true
	case g.BlackID:
		return draughts.Black, true
	}
	return draughts.White, false
}

func (g *Game) PlayerID(c draughts.Color) string {
	if c == draughts.White {
		return g.WhiteID
	}
	return g.BlackID
}

func (g *Game) InRoom(room string) bool {
	room = strings.TrimSpace(room)
	return room != "" && (g.OriginRoom == room || g.ResolveRoom == room)
}

// Rooms lists the distinct rooms that follow this game.
func (g *Game) Rooms() []string {
	if g.ResolveRoom == "" || g.ResolveRoom == g.OriginRoom {
		return []string{g.OriginRoom}
	}
	return []string{g.OriginRoom, g.ResolveRoom}
}

// Result is set once the game has ended.
func (g *Game) Result() (draughts.GameResult, bool) {
	if g.Board.Result == nil {
		return draughts.GameResult{}, false
	}
	return *g.Board.Result, true
}

// CreateRequest describes a challenge. Color is the challenger's preference:
// "white", "black" or anything else for random.
type CreateRequest struct {
	OriginRoom     string
	ResolveRoom    string
	ChallengerID   string
	ChallengerName string
	TargetID       string
	TargetName     string
	Color          string
}

// ResumeRequest restores a saved position for the players seated in it.
type ResumeRequest struct {
	Room        string
	UserID      string
	WhiteID     string
	BlackID     string
	ResumedFrom string
	Board       draughts.Snapshot
}
