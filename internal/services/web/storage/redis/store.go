// Package redis stores desk sessions in Redis so several desk instances can
// share sign-ins.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	webstorage "github.com/edumap/desk/internal/services/web/storage"
)

// KeyPrefix namespaces every session key.
const KeyPrefix = "edumap:desk:session:"

// DefaultTTL applies to records without an expiry.
const DefaultTTL = 24 * time.Hour

// Store keeps one JSON document per session with a matching key TTL.
type Store struct {
	rdb goredis.UniversalClient
	now func() time.Time
}

// Open connects to addr and verifies the connection.
func Open(ctx context.Context, addr string) (*Store, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	opts, err := parseAddr(addr)
	if err != nil {
		return nil, err
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(rdb), nil
}

// New wraps an existing client.
func New(rdb goredis.UniversalClient) *Store {
	return &Store{rdb: rdb, now: time.Now}
}

// Key returns the Redis key for a session id.
func Key(id string) string {
	return KeyPrefix + strings.TrimSpace(id)
}

// Close closes the underlying client.
func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// GetSession loads a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (webstorage.SessionRecord, error) {
	if s == nil || s.rdb == nil {
		return webstorage.SessionRecord{}, errors.New("redis client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return webstorage.SessionRecord{}, webstorage.ErrNotFound
	}
	val, err := s.rdb.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return webstorage.SessionRecord{}, webstorage.ErrNotFound
	}
	if err != nil {
		return webstorage.SessionRecord{}, fmt.Errorf("get session: %w", err)
	}

	var record webstorage.SessionRecord
	if err := json.Unmarshal(val, &record); err != nil {
		return webstorage.SessionRecord{}, fmt.Errorf("decode session: %w", err)
	}
	if record.Expired(s.now()) {
		return webstorage.SessionRecord{}, webstorage.ErrNotFound
	}
	return record, nil
}

// PutSession writes a session with a TTL matching its expiry.
func (s *Store) PutSession(ctx context.Context, record webstorage.SessionRecord) error {
	if s == nil || s.rdb == nil {
		return errors.New("redis client is nil")
	}
	record.ID = strings.TrimSpace(record.ID)
	if record.ID == "" {
		return errors.New("session id is required")
	}
	ttl, live := recordTTL(record, s.now())
	if !live {
		return s.DeleteSession(ctx, record.ID)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, Key(record.ID), data, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// DeleteSession removes a session by id.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if s == nil || s.rdb == nil {
		return errors.New("redis client is nil")
	}
	if err := s.rdb.Del(ctx, Key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func recordTTL(record webstorage.SessionRecord, now time.Time) (time.Duration, bool) {
	if record.ExpiresAt.IsZero() {
		return DefaultTTL, true
	}
	ttl := record.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return 0, false
	}
	// Redis rejects sub-millisecond expirations.
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	return ttl, true
}

func parseAddr(addr string) (*goredis.Options, error) {
	if strings.Contains(addr, "://") {
		opts, err := goredis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &goredis.Options{Addr: addr}, nil
}

var _ webstorage.SessionStore = (*Store)(nil)
