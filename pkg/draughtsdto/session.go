package draughtsdto

import "time"

// GameState is what the chat layer needs to describe a game.
type GameState struct {
	GameID         string
	WhiteName      string
	BlackName      string
	SideToMove     string
	SideToMoveName string
	Phase          string
	MoveCount      int
	Elapsed        time.Duration
	BoardImage     []byte
	Rooms          []string

	Ended      bool
	WinnerName string
	Resigned   bool
	ResultLine string
}

// PlayOutcome is the reply to one click or resignation.
type PlayOutcome struct {
	State     *GameState
	ActorName string
	Square    string
	// Signals are snake_case signal names in emission order.
	Signals []string
}
