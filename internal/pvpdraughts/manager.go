package pvpdraughts

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-checkers-bot/internal/draughts"
	"github.com/park285/cheese-checkers-bot/internal/obslog"
	"github.com/park285/cheese-checkers-bot/internal/service/render"
)

const (
	defaultTTL       = 24 * time.Hour
	defaultMaxActive = 200
)

// Recorder receives finished games after they are committed.
type Recorder interface {
	RecordGame(ctx context.Context, gameID string, result draughts.GameResult) error
}

// Manager stores games in Redis and serialises moves with WATCH so only the
// side to move can write, once per stored version.
type Manager struct {
	rdb       *redis.Client
	renderer  render.BoardRenderer
	recorder  Recorder
	ttl       time.Duration
	maxActive int
	now       func() time.Time
	logger    *zap.Logger
}

type Option func(*Manager)

func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithMaxActiveGames caps concurrently active games across all rooms.
func WithMaxActiveGames(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxActive = n
		}
	}
}

func WithRenderer(r render.BoardRenderer) Option {
	return func(m *Manager) {
		if r != nil {
			m.renderer = r
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(redisURL string, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for PvP manager")
	}
	ropts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewManagerWithClient(rdb, opts...), nil
}

func NewManagerWithClient(rdb *redis.Client, opts ...Option) *Manager {
	m := &Manager{
		rdb:       rdb,
		renderer:  render.NewPNGRenderer(),
		ttl:       defaultTTL,
		maxActive: defaultMaxActive,
		now:       time.Now,
		logger:    obslog.L(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Client exposes the Redis client so the lobby can share the connection pool.
func (m *Manager) Client() *redis.Client { return m.rdb }

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// AttachRecorder wires the result store used for finished games.
func (m *Manager) AttachRecorder(r Recorder) {
	if m != nil {
		m.recorder = r
	}
}

// CreateGame starts a game from a challenge. Both players must be free in the
// room they play from.
func (m *Manager) CreateGame(ctx context.Context, req CreateRequest) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	challengerID := strings.TrimSpace(req.ChallengerID)
	targetID := strings.TrimSpace(req.TargetID)
	origin := strings.TrimSpace(req.OriginRoom)
	resolve := strings.TrimSpace(req.ResolveRoom)
	if resolve == "" {
		resolve = origin
	}
	if challengerID == "" || targetID == "" || origin == "" {
		return nil, ErrInvalidParticipants
	}
	if challengerID == targetID {
		return nil, ErrSelfPlay
	}
	if busy, err := m.GetActiveGameByUserInRoom(ctx, challengerID, origin); err != nil {
		return nil, err
	} else if busy != nil {
		return nil, &BusyError{UserID: challengerID}
	}
	if busy, err := m.GetActiveGameByUserInRoom(ctx, targetID, resolve); err != nil {
		return nil, err
	} else if busy != nil {
		return nil, &BusyError{UserID: targetID}
	}
	if n, err := m.ActiveCount(ctx); err != nil {
		return nil, err
	} else if n >= int64(m.maxActive) {
		return nil, ErrTooManyGames
	}

	whiteID, whiteName := challengerID, nameOr(req.ChallengerName, challengerID)
	blackID, blackName := targetID, nameOr(req.TargetName, targetID)
	switch strings.ToLower(strings.TrimSpace(req.Color)) {
	case "white", "w":
	case "black", "b":
		whiteID, whiteName, blackID, blackName = blackID, blackName, whiteID, whiteName
	default:
		if n, _ := rand.Int(rand.Reader, big.NewInt(2)); n != nil && n.Int64() == 0 {
			whiteID, whiteName, blackID, blackName = blackID, blackName, whiteID, whiteName
		}
	}

	now := m.now()
	ctrl := draughts.New(draughts.Players{White: whiteName, Black: blackName}, draughts.WithClock(m.now))
	g := &Game{
		ID:          uuid.NewString(),
		Status:      StatusActive,
		Board:       ctrl.Snapshot(),
		WhiteID:     whiteID,
		WhiteName:   whiteName,
		BlackID:     blackID,
		BlackName:   blackName,
		OriginRoom:  origin,
		ResolveRoom: resolve,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := m.save(ctx, g); err != nil {
		return nil, err
	}
	if err := m.indexParticipants(ctx, g); err != nil {
		return nil, err
	}
	m.logger.Info("pvp_game_create",
		zap.String("game_id", g.ID),
		zap.String("origin_room", g.OriginRoom),
		zap.String("resolve_room", g.ResolveRoom),
		zap.String("white_id", g.WhiteID),
		zap.String("black_id", g.BlackID),
	)
	return g, nil
}

// GetActiveGameByUser returns the most recently updated active game for a user
// in any room.
func (m *Manager) GetActiveGameByUser(ctx context.Context, userID string) (*Game, error) {
	return m.latestActive(ctx, userID, func(*Game) bool { return true })
}

// GetActiveGameByUserInRoom limits the lookup to games followed by room.
func (m *Manager) GetActiveGameByUserInRoom(ctx context.Context, userID, room string) (*Game, error) {
	if strings.TrimSpace(room) == "" {
		return nil, nil
	}
	return m.latestActive(ctx, userID, func(g *Game) bool { return g.InRoom(room) })
}

func (m *Manager) latestActive(ctx context.Context, userID string, keep func(*Game) bool) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	ids, err := m.rdb.SMembers(ctx, idxUserKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load user index: %w", err)
	}
	var list []*Game
	for _, id := range ids {
		g, err := m.get(ctx, id)
		if err != nil || g == nil || g.Status != StatusActive || !keep(g) {
			continue
		}
		list = append(list, g)
	}
	if len(list) == 0 {
		return nil, nil
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list[0], nil
}

// ResumeGame brings a saved position back as a new active game followed by
// req.Room. The caller must hold one of the saved seats and both players must
// be free in that room.
func (m *Manager) ResumeGame(ctx context.Context, req ResumeRequest) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	room := strings.TrimSpace(req.Room)
	userID := strings.TrimSpace(req.UserID)
	whiteID, blackID := strings.TrimSpace(req.WhiteID), strings.TrimSpace(req.BlackID)
	if room == "" || whiteID == "" || blackID == "" {
		return nil, ErrInvalidParticipants
	}
	if whiteID == blackID {
		return nil, ErrSelfPlay
	}
	if userID != whiteID && userID != blackID {
		return nil, ErrNotInGame
	}
	if req.Board.Ended {
		return nil, ErrGameNotActive
	}
	if _, err := draughts.Restore(req.Board); err != nil {
		return nil, err
	}
	for _, id := range []string{whiteID, blackID} {
		if busy, err := m.GetActiveGameByUserInRoom(ctx, id, room); err != nil {
			return nil, err
		} else if busy != nil {
			return nil, &BusyError{UserID: id}
		}
	}
	if n, err := m.ActiveCount(ctx); err != nil {
		return nil, err
	} else if n >= int64(m.maxActive) {
		return nil, ErrTooManyGames
	}

	now := m.now()
	g := &Game{
		ID:          uuid.NewString(),
		Status:      StatusActive,
		Board:       req.Board,
		WhiteID:     whiteID,
		WhiteName:   nameOr(req.Board.Players.White, whiteID),
		BlackID:     blackID,
		BlackName:   nameOr(req.Board.Players.Black, blackID),
		OriginRoom:  room,
		ResolveRoom: room,
		ResumedFrom: strings.TrimSpace(req.ResumedFrom),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.save(ctx, g); err != nil {
		return nil, err
	}
	if err := m.indexParticipants(ctx, g); err != nil {
		return nil, err
	}
	m.logger.Info("pvp_game_resume",
		zap.String("game_id", g.ID),
		zap.String("resumed_from", g.ResumedFrom),
		zap.String("room", room),
		zap.Int("moves", g.Board.MoveCount),
	)
	return g, nil
}

// PlayInput clicks sq on behalf of userID in the game they play in room.
// Rejected inputs return their signals without touching the stored game.
func (m *Manager) PlayInput(ctx context.Context, userID, room string, sq draughts.Square) (*Game, []draughts.Signal, error) {
	g, err := m.GetActiveGameByUserInRoom(ctx, userID, room)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, ErrNoActiveGame
	}
	return m.mutate(ctx, g, room, userID, true, func(ctrl *draughts.Controller, _ draughts.Color) []draughts.Signal {
		return ctrl.ApplyInput(ctx, sq.Row, sq.Col)
	})
}

// Resign ends the user's game in room in favour of the opponent. It is
// accepted on either player's turn.
func (m *Manager) Resign(ctx context.Context, userID, room string) (*Game, []draughts.Signal, error) {
	g, err := m.GetActiveGameByUserInRoom(ctx, userID, room)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, ErrNoActiveGame
	}
	return m.mutate(ctx, g, room, userID, false, func(ctrl *draughts.Controller, color draughts.Color) []draughts.Signal {
		return ctrl.Resign(ctx, color)
	})
}

type mutation func(ctrl *draughts.Controller, color draughts.Color) []draughts.Signal

// mutate runs fn against the stored game under WATCH. The write only commits
// when the game still has the version seen in g.
func (m *Manager) mutate(ctx context.Context, g *Game, room, userID string, turnOnly bool, fn mutation) (*Game, []draughts.Signal, error) {
	gameK := gameKey(g.ID)
	seen := g.Version
	var (
		updated *Game
		signals []draughts.Signal
	)

	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, gameK).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrGameNotFound
		}
		if err != nil {
			return err
		}
		var cur Game
		if err := json.Unmarshal(raw, &cur); err != nil {
			return fmt.Errorf("decode game %s: %w", g.ID, err)
		}
		if cur.Status != StatusActive {
			return ErrGameNotActive
		}
		if cur.Version != seen {
			return redis.TxFailedErr
		}
		if !cur.InRoom(room) {
			return ErrNoActiveGame
		}
		color, ok := cur.ColorOf(userID)
		if !ok {
			return ErrNotInGame
		}
		if turnOnly && color != cur.Board.SideToMove {
			return ErrNotYourTurn
		}

		ctrl, err := draughts.Restore(cur.Board,
			draughts.WithLogger(m.logger.With(zap.String("game_id", cur.ID))),
			draughts.WithClock(m.now),
		)
		if err != nil {
			return fmt.Errorf("restore game %s: %w", cur.ID, err)
		}
		signals = fn(ctrl, color)
		if len(signals) == 0 || signals[0].IsRejection() {
			updated = &cur
			return nil
		}

		cur.Board = ctrl.Snapshot()
		cur.Version++
		cur.UpdatedAt = m.now()
		if res, ended := ctrl.Result(); ended {
			cur.Status = StatusFinished
			if res.Resigned {
				cur.Status = StatusResigned
			}
			cur.Winner = cur.PlayerID(res.Winner)
			cur.Outcome = res.Winner.String()
		}

		newRaw, err := json.Marshal(&cur)
		if err != nil {
			return fmt.Errorf("encode game %s: %w", cur.ID, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gameK, newRaw, m.ttl)
			if cur.Status == StatusActive {
				pipe.ZAdd(ctx, activeKey, redis.Z{Score: float64(m.now().Add(m.ttl).Unix()), Member: cur.ID})
			} else {
				pipe.ZRem(ctx, activeKey, cur.ID)
			}
			return nil
		})
		if err != nil {
			return err
		}
		updated = &cur
		return nil
	}, gameK)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			m.logger.Info("pvp_concurrent_update", zap.String("game_id", g.ID), zap.String("user_id", userID))
			return g, nil, ErrConcurrentUpdate
		}
		return g, nil, err
	}

	m.logger.Info("pvp_input",
		zap.String("game_id", updated.ID),
		zap.String("room", room),
		zap.String("user_id", strings.TrimSpace(userID)),
		zap.Strings("signals", signalNames(signals)),
		zap.Int64("version", updated.Version),
		zap.String("status", string(updated.Status)),
	)
	if updated.Status != StatusActive {
		_ = m.persistIfFinal(ctx, updated)
	}
	return updated, signals, nil
}

// LoadGame returns the game by ID, or nil when it expired.
func (m *Manager) LoadGame(ctx context.Context, id string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	return m.get(ctx, id)
}

// ActiveCount prunes expired entries and counts active games.
func (m *Manager) ActiveCount(ctx context.Context) (int64, error) {
	now := strconv.FormatInt(m.now().Unix(), 10)
	if err := m.rdb.ZRemRangeByScore(ctx, activeKey, "-inf", "("+now).Err(); err != nil {
		return 0, fmt.Errorf("prune active games: %w", err)
	}
	n, err := m.rdb.ZCard(ctx, activeKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count active games: %w", err)
	}
	return n, nil
}

func (m *Manager) persistIfFinal(ctx context.Context, g *Game) error {
	if m.recorder == nil || g == nil {
		return nil
	}
	res, ok := g.Result()
	if !ok {
		return nil
	}
	if err := m.recorder.RecordGame(ctx, g.ID, res); err != nil {
		m.logger.Error("pvp_result_persist_error", zap.String("game_id", g.ID), zap.String("outcome", g.Outcome), zap.Error(err))
		return err
	}
	m.logger.Info("pvp_result_persist", zap.String("game_id", g.ID), zap.String("outcome", g.Outcome), zap.String("status", string(g.Status)))
	return nil
}

func (m *Manager) save(ctx context.Context, g *Game) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", g.ID, err)
	}
	_, err = m.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKey(g.ID), raw, m.ttl)
		if g.Status == StatusActive {
			pipe.ZAdd(ctx, activeKey, redis.Z{Score: float64(m.now().Add(m.ttl).Unix()), Member: g.ID})
		}
		return nil
	})
	return err
}

func (m *Manager) get(ctx context.Context, id string) (*Game, error) {
	raw, err := m.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &g, nil
}

func (m *Manager) indexParticipants(ctx context.Context, g *Game) error {
	_, err := m.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, user := range []string{g.WhiteID, g.BlackID} {
			key := idxUserKey(user)
			pipe.SAdd(ctx, key, g.ID)
			// the index lives as long as the newest game
			pipe.Expire(ctx, key, m.ttl)
		}
		return nil
	})
	return err
}

const activeKey = "draughts:active"

func gameKey(id string) string        { return "draughts:game:" + strings.TrimSpace(id) }
func idxUserKey(userID string) string { return "draughts:index:user:" + strings.TrimSpace(userID) }

func nameOr(name, fallback string) string {
	if s := strings.TrimSpace(name); s != "" {
		return s
	}
	return fallback
}

func signalNames(signals []draughts.Signal) []string {
	out := make([]string, 0, len(signals))
	for _, s := range signals {
		out = append(out, s.Kind.String())
	}
	return out
}

// ParseRedisURL accepts redis:// and rediss:// URLs; rediss enables TLS.
func ParseRedisURL(raw string) (*redis.Options, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opts, nil
}
