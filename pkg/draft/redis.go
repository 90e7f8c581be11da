package draft

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisStore persists drafts in Redis so a portal instance can be restarted
// mid-session without losing in-progress answers. Entries never expire; the
// session-start ResetAll is the lifecycle boundary.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("draft: redis client is required")
	}
	return &RedisStore{client: client}, nil
}

// Save serializes the answer set under the form's draft key.
func (s *RedisStore) Save(ctx context.Context, formID string, answers map[string]any) error {
	if formID == "" {
		return fmt.Errorf("draft: form id is required")
	}
	payload, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("draft: marshal answers: %w", err)
	}
	if err := s.client.Set(ctx, Key(formID), payload, 0).Err(); err != nil {
		return fmt.Errorf("draft: redis set: %w", err)
	}
	return nil
}

// Load returns the last saved snapshot, or ok=false when none exists.
func (s *RedisStore) Load(ctx context.Context, formID string) (map[string]any, bool, error) {
	payload, err := s.client.Get(ctx, Key(formID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("draft: redis get: %w", err)
	}
	var answers map[string]any
	if err := json.Unmarshal(payload, &answers); err != nil {
		return nil, false, fmt.Errorf("draft: unmarshal answers: %w", err)
	}
	return answers, true, nil
}

// ResetAll scans the draft keyspace and deletes every entry.
func (s *RedisStore) ResetAll(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("draft: redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("draft: redis del: %w", err)
	}
	return nil
}
