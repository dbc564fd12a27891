// Package presence mirrors online users into Redis so other processes can
// see who is connected. The relay itself never reads the mirror back.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "presence:"

type RedisMirror struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMirror wraps an existing client. Entries expire after ttl unless refreshed.
func NewRedisMirror(client *redis.Client, ttl time.Duration) *RedisMirror {
	return &RedisMirror{client: client, ttl: ttl}
}

// Dial connects to url ("redis://..." or a bare host:port) and pings it.
func Dial(ctx context.Context, url string, ttl time.Duration) (*RedisMirror, error) {
	var opts *redis.Options
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: url}
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info().Str("module", "presence").Str("addr", opts.Addr).Dur("ttl", ttl).Msg("connected to redis")
	return NewRedisMirror(client, ttl), nil
}

// Open returns a Redis mirror, or the no-op mirror when url is empty or
// Redis is unreachable.
func Open(ctx context.Context, url string, ttl time.Duration) core.PresenceMirror {
	if strings.TrimSpace(url) == "" {
		return core.NopPresenceMirror{}
	}
	m, err := Dial(ctx, url, ttl)
	if err != nil {
		log.Warn().Str("module", "presence").Err(err).Msg("presence mirror disabled")
		return core.NopPresenceMirror{}
	}
	return m
}

func Key(uid domain.UserID) string { return keyPrefix + string(uid) }

func (m *RedisMirror) Online(ctx context.Context, st core.PresenceStatus) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return m.client.Set(ctx, Key(st.UserID), data, m.ttl).Err()
}

func (m *RedisMirror) Offline(ctx context.Context, uid domain.UserID) error {
	return m.client.Del(ctx, Key(uid)).Err()
}

func (m *RedisMirror) Close() error { return m.client.Close() }
