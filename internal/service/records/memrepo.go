package records

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/park285/cheese-checkers-bot/internal/domain"
)

// memrepo keeps everything in process memory. It backs the CSV repository
// and is used directly when RESULTS_BACKEND=memory.
type memrepo struct {
	mu sync.RWMutex

	nextID  int64
	players map[string]*domain.PlayerStats
	results []*domain.GameRecord
	gameIDs map[string]struct{}
	now     func() time.Time
}

func NewMemoryRepository() Repository {
	return newMemrepo()
}

func newMemrepo() *memrepo {
	return &memrepo{
		players: make(map[string]*domain.PlayerStats),
		gameIDs: make(map[string]struct{}),
		now:     time.Now,
	}
}

func (m *memrepo) EnsurePlayer(ctx context.Context, name string) (*domain.PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, _ := m.ensureLocked(name)
	cp := *p
	return &cp, nil
}

// ensureLocked reports whether the player was created.
func (m *memrepo) ensureLocked(name string) (*domain.PlayerStats, bool) {
	if p, ok := m.players[name]; ok {
		return p, false
	}
	now := m.now()
	p := &domain.PlayerStats{Name: name, CreatedAt: now, UpdatedAt: now}
	m.players[name] = p
	return p, true
}

func (m *memrepo) GetPlayer(ctx context.Context, name string) (*domain.PlayerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[name]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memrepo) AddResult(ctx context.Context, rec *domain.GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(rec)
}

func (m *memrepo) addLocked(rec *domain.GameRecord) error {
	if id := strings.TrimSpace(rec.GameID); id != "" {
		if _, dup := m.gameIDs[id]; dup {
			return ErrDuplicateResult
		}
		m.gameIDs[id] = struct{}{}
	}
	m.nextID++
	rec.ID = m.nextID
	cp := *rec
	m.results = append(m.results, &cp)

	now := m.now()
	for _, name := range uniqueNames(rec.WhiteName, rec.BlackName) {
		if p, ok := m.players[name]; ok {
			p.AddGame(name == rec.WinnerName, rec.TotalMoves, rec.Duration)
			p.UpdatedAt = now
		}
	}
	return nil
}

func (m *memrepo) TopPlayers(ctx context.Context, limit int) ([]*domain.PlayerStats, error) {
	m.mu.RLock()
	items := make([]*domain.PlayerStats, 0, len(m.players))
	for _, p := range m.players {
		cp := *p
		items = append(items, &cp)
	}
	m.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if a, b := items[i].WinRate(), items[j].WinRate(); a != b {
			return a > b
		}
		if items[i].GamesWon != items[j].GamesWon {
			return items[i].GamesWon > items[j].GamesWon
		}
		return items[i].Name < items[j].Name
	})
	return truncate(items, limit), nil
}

func (m *memrepo) FastestGames(ctx context.Context, limit int) ([]*domain.GameRecord, error) {
	items := m.copyResults(func(*domain.GameRecord) bool { return true })
	sort.SliceStable(items, func(i, j int) bool { return items[i].Duration < items[j].Duration })
	return truncate(items, limit), nil
}

func (m *memrepo) RecentGames(ctx context.Context, name string, limit int) ([]*domain.GameRecord, error) {
	items := m.copyResults(func(r *domain.GameRecord) bool { return r.WhiteName == name || r.BlackName == name })
	// latest first; loaded CSV rows carry no timestamp so insertion order breaks ties
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].FinishedAt.Equal(items[j].FinishedAt) {
			return items[i].FinishedAt.After(items[j].FinishedAt)
		}
		return items[i].ID > items[j].ID
	})
	return truncate(items, limit), nil
}

func (m *memrepo) copyResults(keep func(*domain.GameRecord) bool) []*domain.GameRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.GameRecord, 0, len(m.results))
	for _, r := range m.results {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
