// Package redis caches evidence-validated answers so repeated questions from
// a tenant's customers skip the model chain.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vendaflow/ragcore/config"
	"github.com/vendaflow/ragcore/rag/evidence"
	"github.com/vendaflow/ragcore/router"
)

// Config holds Redis configuration for the answer cache.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// DefaultConfig returns defaults suitable for local development. The short
// TTL keeps cached answers from outliving a knowledge-base re-upload for
// long.
func DefaultConfig() *Config {
	return &Config{
		Addr:   "localhost:6379",
		Prefix: "ragcore:answer:",
		TTL:    1 * time.Hour,
	}
}

// AnswerCache implements router.AnswerCache on Redis. Keys are derived from
// the normalized question, so accent and punctuation variants of the same
// question share an entry.
type AnswerCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ router.AnswerCache = (*AnswerCache)(nil)

// New creates a Redis-backed answer cache.
func New(cfg *Config) (*AnswerCache, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := config.ValidateRedisConfig(cfg.Addr, cfg.DB, cfg.Prefix); err != nil {
		return nil, err
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &AnswerCache{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}, nil
}

// Get returns the cached result for the question, or (nil, nil) on a miss.
func (c *AnswerCache) Get(ctx context.Context, tenantID, question string) (*router.Result, error) {
	raw, err := c.client.Get(ctx, c.answerKey(tenantID, question)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load cached answer: %w", err)
	}

	var res router.Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("failed to decode cached answer: %w", err)
	}
	return &res, nil
}

// Set stores a validated result under the tenant's normalized question.
func (c *AnswerCache) Set(ctx context.Context, tenantID, question string, res *router.Result) error {
	if res == nil {
		return fmt.Errorf("result cannot be nil")
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	if err := c.client.Set(ctx, c.answerKey(tenantID, question), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache answer: %w", err)
	}
	return nil
}

// Invalidate drops every cached answer for a tenant. Called after a
// knowledge-base upload so stale answers do not outlive their source.
func (c *AnswerCache) Invalidate(ctx context.Context, tenantID string) error {
	pattern := c.prefix + tenantID + ":*"
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to invalidate cached answer: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached answers: %w", err)
	}
	return nil
}

// Ping checks if the Redis connection is alive.
func (c *AnswerCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (c *AnswerCache) Close() error {
	return c.client.Close()
}

func (c *AnswerCache) answerKey(tenantID, question string) string {
	sum := sha256.Sum256([]byte(evidence.Normalize(question)))
	return c.prefix + tenantID + ":" + hex.EncodeToString(sum[:12])
}
