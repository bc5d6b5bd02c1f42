package lobby

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-checkers-bot/internal/obslog"
	"github.com/park285/cheese-checkers-bot/internal/pvpdraughts"
)

// Games is the part of the game manager the lobby needs.
type Games interface {
	GetActiveGameByUserInRoom(ctx context.Context, userID, room string) (*pvpdraughts.Game, error)
	CreateGame(ctx context.Context, req pvpdraughts.CreateRequest) (*pvpdraughts.Game, error)
}

type Manager struct {
	rdb    *redis.Client
	store  *Store
	games  Games
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Manager)

func WithTTL(d time.Duration) Option {
	return func(m *Manager) { m.store = NewStore(m.rdb, d) }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
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

func NewManager(rdb *redis.Client, games Games, opts ...Option) *Manager {
	m := &Manager{
		rdb:    rdb,
		store:  NewStore(rdb, defaultTTL),
		games:  games,
		now:    time.Now,
		logger: obslog.L(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Make opens a lobby in room and returns its join code.
func (m *Manager) Make(ctx context.Context, room, userID, userName, color string) (*MakeResult, error) {
	room, userID = strings.TrimSpace(room), strings.TrimSpace(userID)
	if room == "" || userID == "" {
		return nil, ErrInvalidArgs
	}
	if g, _ := m.games.GetActiveGameByUserInRoom(ctx, userID, room); g != nil {
		return nil, ErrPlayerBusyInRoom
	}
	if open, err := m.waitingLobbyOf(ctx, userID); err != nil {
		return nil, err
	} else if open != nil {
		return nil, ErrCreatorHasLobby
	}

	for i := 0; i < 5; i++ {
		code, err := codeGen()
		if err != nil {
			return nil, err
		}
		ok, err := m.rdb.SetNX(ctx, m.store.keyMeta(code), "{}", m.store.ttl).Result()
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		meta := &Meta{
			Code:        code,
			State:       StateWaiting,
			CreatedAt:   m.now(),
			CreatorID:   userID,
			CreatorName: nameOr(userName, userID),
			CreatorRoom: room,
			Color:       strings.ToLower(strings.TrimSpace(color)),
		}
		if err := m.store.SaveMeta(ctx, meta); err != nil {
			return nil, err
		}
		if err := m.store.IndexUser(ctx, code, userID); err != nil {
			return nil, err
		}
		if err := m.store.AddWaiting(ctx, code); err != nil {
			return nil, err
		}
		m.logger.Info("lobby_make", zap.String("code", code), zap.String("room", room), zap.String("creator_id", userID))
		return &MakeResult{Code: code, Meta: meta}, nil
	}
	return nil, fmt.Errorf("failed to allocate lobby code")
}

// Join claims a waiting lobby and starts the game. Only one joiner can claim a
// lobby; the claim is released again if the game cannot be created.
func (m *Manager) Join(ctx context.Context, room, code, userID, userName string) (*JoinResult, error) {
	room, userID = strings.TrimSpace(room), strings.TrimSpace(userID)
	code = strings.ToUpper(strings.TrimSpace(code))
	if room == "" || code == "" || userID == "" {
		return nil, ErrInvalidArgs
	}
	if g, _ := m.games.GetActiveGameByUserInRoom(ctx, userID, room); g != nil {
		return nil, ErrPlayerBusyInRoom
	}

	metaKey := m.store.keyMeta(code)
	var meta *Meta
	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := decodeMeta(tx.Get(ctx, metaKey))
		if err != nil {
			return err
		}
		if cur == nil || cur.Code == "" {
			return ErrLobbyGone
		}
		if cur.State != StateWaiting {
			return ErrLobbyStarted
		}
		if cur.CreatorID == userID {
			return ErrSelfJoin
		}
		cur.State = StateStarted
		cur.JoinerID = userID
		cur.JoinerName = nameOr(userName, userID)
		cur.JoinerRoom = room
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			raw, err := jsonMeta(cur)
			if err != nil {
				return err
			}
			pipe.Set(ctx, metaKey, raw, m.store.ttl)
			return nil
		})
		if err == nil {
			meta = cur
		}
		return err
	}, metaKey)
	if errors.Is(err, redis.TxFailedErr) {
		err = ErrLobbyStarted
	}
	if err != nil {
		m.logger.Warn("lobby_join_error", zap.String("code", code), zap.String("room", room), zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	g, err := m.games.CreateGame(ctx, pvpdraughts.CreateRequest{
		OriginRoom:     meta.CreatorRoom,
		ResolveRoom:    room,
		ChallengerID:   meta.CreatorID,
		ChallengerName: meta.CreatorName,
		TargetID:       userID,
		TargetName:     meta.JoinerName,
		Color:          meta.Color,
	})
	if err != nil {
		meta.State = StateWaiting
		meta.JoinerID, meta.JoinerName, meta.JoinerRoom = "", "", ""
		if rerr := m.store.SaveMeta(ctx, meta); rerr != nil {
			m.logger.Error("lobby_release_error", zap.String("code", code), zap.Error(rerr))
		}
		return nil, err
	}

	meta.GameID = g.ID
	if err := m.store.SaveMeta(ctx, meta); err != nil {
		return nil, err
	}
	_ = m.store.IndexUser(ctx, code, userID)
	_ = m.store.RemoveWaiting(ctx, code)
	m.logger.Info("lobby_start_game",
		zap.String("code", code),
		zap.String("game_id", g.ID),
		zap.String("white_id", g.WhiteID),
		zap.String("black_id", g.BlackID),
	)
	return &JoinResult{GameID: g.ID, Meta: meta}, nil
}

// Cancel closes the user's waiting lobby, if any.
func (m *Manager) Cancel(ctx context.Context, userID string) (*Meta, error) {
	meta, err := m.waitingLobbyOf(ctx, userID)
	if err != nil || meta == nil {
		return nil, err
	}
	if err := m.rdb.Del(ctx, m.store.keyMeta(meta.Code)).Err(); err != nil {
		return nil, err
	}
	_ = m.store.RemoveWaiting(ctx, meta.Code)
	m.logger.Info("lobby_cancel", zap.String("code", meta.Code), zap.String("user_id", userID))
	return meta, nil
}

func (m *Manager) ListLobby(ctx context.Context) ([]*Meta, error) {
	return m.store.ListWaiting(ctx)
}

func (m *Manager) waitingLobbyOf(ctx context.Context, userID string) (*Meta, error) {
	codes, err := m.store.CodesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range codes {
		meta, err := m.store.LoadMeta(ctx, c)
		if err != nil {
			return nil, err
		}
		if meta != nil && meta.State == StateWaiting && meta.CreatorID == strings.TrimSpace(userID) {
			return meta, nil
		}
	}
	return nil, nil
}

func nameOr(name, fallback string) string {
	if s := strings.TrimSpace(name); s != "" {
		return s
	}
	return fallback
}
