package lobby

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

// Store keeps lobby metadata, the waiting list and a per-user index of codes.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) keyMeta(code string) string {
	return "lobby:" + strings.ToUpper(strings.TrimSpace(code))
}

func (s *Store) keyUserIdx(user string) string { return "lobby:index:user:" + strings.TrimSpace(user) }
func (s *Store) keyWaiting() string            { return "lobby:waiting" }

func (s *Store) SaveMeta(ctx context.Context, meta *Meta) error {
	raw, err := jsonMeta(meta)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.keyMeta(meta.Code), raw, s.ttl).Err()
}

func (s *Store) LoadMeta(ctx context.Context, code string) (*Meta, error) {
	return decodeMeta(s.rdb.Get(ctx, s.keyMeta(code)))
}

func jsonMeta(meta *Meta) ([]byte, error) { return json.Marshal(meta) }

func decodeMeta(cmd *redis.StringCmd) (*Meta, error) {
	raw, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m Meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) IndexUser(ctx context.Context, code, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	if err := s.rdb.SAdd(ctx, s.keyUserIdx(userID), code).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, s.keyUserIdx(userID), s.ttl).Err()
}

func (s *Store) CodesByUser(ctx context.Context, userID string) ([]string, error) {
	return s.rdb.SMembers(ctx, s.keyUserIdx(userID)).Result()
}

func (s *Store) AddWaiting(ctx context.Context, code string) error {
	if err := s.rdb.SAdd(ctx, s.keyWaiting(), code).Err(); err != nil {
		return err
	}
	_ = s.rdb.Expire(ctx, s.keyWaiting(), s.ttl).Err()
	return nil
}

func (s *Store) RemoveWaiting(ctx context.Context, code string) error {
	return s.rdb.SRem(ctx, s.keyWaiting(), code).Err()
}

// ListWaiting returns open lobbies, oldest first. Expired codes are dropped
// from the index as they are found.
func (s *Store) ListWaiting(ctx context.Context) ([]*Meta, error) {
	codes, err := s.rdb.SMembers(ctx, s.keyWaiting()).Result()
	if err != nil {
		return nil, err
	}
	var out []*Meta
	for _, c := range codes {
		m, err := s.LoadMeta(ctx, c)
		if err != nil {
			continue
		}
		if m == nil {
			_ = s.RemoveWaiting(ctx, c)
			continue
		}
		if m.State != StateWaiting {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// codeGen returns DR- followed by 6 upper alnum characters.
func codeGen() (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return fmt.Sprintf("DR-%s", string(b)), nil
}
