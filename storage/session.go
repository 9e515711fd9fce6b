package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"metacurate/config"
	"metacurate/table"
)

// RedisSessionStore hält den Tabellenzustand pro Projekt mit Ablaufzeit in Redis.
type RedisSessionStore struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

// NewRedisClient baut den Client und prüft die Verbindung per Ping.
func NewRedisClient(cfg *config.Config) (*goredis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewRedisSessionStore erstellt den Store; ttl <= 0 bedeutet ohne Ablauf.
func NewRedisSessionStore(rdb goredis.UniversalClient, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

// Get liefert table.ErrStateNotFound für unbekannte Schlüssel.
func (s *RedisSessionStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, table.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

// Set schreibt den Wert und verlängert die Ablaufzeit.
func (s *RedisSessionStore) Set(ctx context.Context, key string, value []byte) error {
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// NewSessionStore wählt Redis, wenn konfiguriert, sonst einen In-Memory-Store.
func NewSessionStore(cfg *config.Config) (table.StateStore, error) {
	if cfg.RedisAddr == "" {
		return table.NewMemoryStore(), nil
	}
	rdb, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisSessionStore(rdb, cfg.TableStateTTL), nil
}
