package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// sessionTTL expires idle session transcripts.
const sessionTTL = 24 * time.Hour

// RedisSessions persists session transcripts in Redis so conversations
// survive process restarts. Each session is one JSON value under its own key.
type RedisSessions struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisSessions connects to Redis and verifies the connection.
func NewRedisSessions(ctx context.Context, url string, logger *zap.Logger) (*RedisSessions, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisSessions{client: client, logger: logger}, nil
}

func sessionKey(sessionID string) string {
	return "advisor:session:" + sessionID
}

// Get loads the session transcript, returning a fresh Memory when none exists.
func (s *RedisSessions) Get(ctx context.Context, sessionID string) (*Memory, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session %s: %w", sessionID, err)
	}
	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		s.logger.Warn("corrupt session transcript, starting fresh",
			zap.String("session", sessionID), zap.Error(err))
		return New(), nil
	}
	return Restore(turns), nil
}

// Put stores the session transcript with a sliding TTL.
func (s *RedisSessions) Put(ctx context.Context, sessionID string, m *Memory) error {
	data, err := json.Marshal(m.Turns())
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sessionID, err)
	}
	if err := s.client.Set(ctx, sessionKey(sessionID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", sessionID, err)
	}
	return nil
}

// Close shuts down the Redis client.
func (s *RedisSessions) Close() error {
	return s.client.Close()
}
