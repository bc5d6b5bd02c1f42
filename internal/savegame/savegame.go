// Package savegame writes a game snapshot to disk and reads it back.
package savegame

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/park285/cheese-checkers-bot/internal/draughts"
)

const formatVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported save file version")

// Seats ties a saved position to the chat users playing each colour.
type Seats struct {
	WhiteID string `json:"white_id"`
	BlackID string `json:"black_id"`
}

// Has reports whether userID holds either seat.
func (s *Seats) Has(userID string) bool {
	return s != nil && userID != "" && (s.WhiteID == userID || s.BlackID == userID)
}

type file struct {
	Version  int               `json:"version"`
	Seats    *Seats            `json:"seats,omitempty"`
	Snapshot draughts.Snapshot `json:"snapshot"`
}

// Save writes the controller state to path, replacing any previous file.
// seats may be nil for games not bound to chat users.
func Save(path string, c *draughts.Controller, seats *Seats) error {
	raw, err := json.MarshalIndent(file{Version: formatVersion, Seats: seats, Snapshot: c.Snapshot()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".save-*")
	if err != nil {
		return fmt.Errorf("create save: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close save: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Load restores a controller from path together with its seats, which are
// nil when the file has none. Options supply the collaborators that are not
// part of the file.
func Load(path string, opts ...draughts.Option) (*draughts.Controller, *Seats, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read save: %w", err)
	}
	var f file
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, nil, fmt.Errorf("decode save: %w", err)
	}
	if f.Version != formatVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	c, err := draughts.Restore(f.Snapshot, opts...)
	if err != nil {
		return nil, nil, err
	}
	return c, f.Seats, nil
}
