package lobby

import "time"

// State is the lifecycle of a lobby.
type State string

const (
	StateWaiting State = "WAITING"
	StateStarted State = "STARTED"
)

// Meta is stored as JSON under lobby:<code>.
type Meta struct {
	Code      string    `json:"code"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`

	CreatorID   string `json:"creator_id"`
	CreatorName string `json:"creator_name"`
	CreatorRoom string `json:"creator_room"`
	// Color is the creator's preference: white, black or random.
	Color string `json:"color,omitempty"`

	JoinerID   string `json:"joiner_id,omitempty"`
	JoinerName string `json:"joiner_name,omitempty"`
	JoinerRoom string `json:"joiner_room,omitempty"`

	GameID string `json:"game_id,omitempty"`
}

type MakeResult struct {
	Code string
	Meta *Meta
}

type JoinResult struct {
	GameID string
	Meta   *Meta
}

var (
	ErrInvalidArgs      = errf("invalid arguments")
	ErrLobbyGone        = errf("lobby not found or expired")
	ErrLobbyStarted     = errf("lobby already started")
	ErrSelfJoin         = errf("cannot join your own lobby")
	ErrPlayerBusyInRoom = errf("player has active game in this room")
	ErrCreatorHasLobby  = errf("user already has a lobby")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
