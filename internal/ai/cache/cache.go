// Package cache memoizes embeddings in memory (L1) and optionally in Redis (L2)
// so repeated competency blobs are encoded once.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ai"
)

const (
	defaultTTL        = 24 * time.Hour
	defaultMaxEntries = 4096
	pingTimeout       = 3 * time.Second
	keyPrefix         = "emb:"
)

type Config struct {
	TTL        time.Duration
	MaxEntries int
	// RedisURL enables the L2 tier when set.
	RedisURL string
}

type entry struct {
	vector    []float32
	expiresAt time.Time
}

// Encoder wraps another encoder with a two tier cache. It is safe for concurrent use.
type Encoder struct {
	next       ai.Encoder
	l1         sync.Map // key -> *entry
	l1Size     atomic.Int64
	rdb        *redis.Client // nil if Redis unavailable
	ttl        time.Duration
	maxEntries int
	logger     *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// New wraps next. An unreachable or invalid Redis URL disables L2 with a warning.
func New(ctx context.Context, next ai.Encoder, cfg Config, logger *zap.Logger) *Encoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultMaxEntries
	}

	c := &Encoder{
		next:       next,
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		logger:     logger,
	}

	if url := strings.TrimSpace(cfg.RedisURL); url != "" {
		c.rdb = connect(ctx, url, logger)
	}

	logger.Debug("embedding cache initialized",
		zap.Duration("ttl", c.ttl),
		zap.Int("max_entries", c.maxEntries),
		zap.Bool("redis", c.rdb != nil),
	)

	return c
}

func connect(ctx context.Context, url string, logger *zap.Logger) *redis.Client {
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("embedding cache: invalid redis url, L2 disabled", zap.Error(err))
		return nil
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("embedding cache: redis unreachable, L2 disabled", zap.Error(err))
		_ = rdb.Close()
		return nil
	}

	logger.Info("embedding cache: L2 redis connected", zap.String("addr", opts.Addr))
	return rdb
}

// Key builds a deterministic cache key for a model and text.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(model + "|" + text))
	return fmt.Sprintf("%s%x", keyPrefix, sum[:16])
}

// Encode returns a cached embedding or delegates to the wrapped encoder.
// Errors are never cached.
func (c *Encoder) Encode(ctx context.Context, text string) ([]float32, error) {
	_, model := ai.Describe(c.next)
	key := Key(model, text)

	if vec, ok := c.get(ctx, key); ok {
		c.hits.Add(1)
		return vec, nil
	}
	c.misses.Add(1)

	vec, err := c.next.Encode(ctx, text)
	if err != nil {
		return nil, err
	}

	c.set(ctx, key, vec)
	return vec, nil
}

func (c *Encoder) Provider() string {
	provider, _ := ai.Describe(c.next)
	return provider
}

func (c *Encoder) Model() string {
	_, model := ai.Describe(c.next)
	return model
}

// Stats returns hit and miss counters.
func (c *Encoder) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close releases the Redis connection if any.
func (c *Encoder) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Encoder) get(ctx context.Context, key string) ([]float32, bool) {
	if val, ok := c.l1.Load(key); ok {
		e := val.(*entry)
		if time.Now().Before(e.expiresAt) {
			return e.vector, true
		}
		if _, loaded := c.l1.LoadAndDelete(key); loaded {
			c.l1Size.Add(-1)
		}
	}

	if c.rdb == nil {
		return nil, false
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("embedding cache: L2 get failed", zap.Error(err))
		}
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil || len(vec) == 0 {
		return nil, false
	}

	c.store(key, vec)
	return vec, true
}

func (c *Encoder) set(ctx context.Context, key string, vec []float32) {
	c.store(key, vec)

	if c.rdb == nil {
		return
	}

	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("embedding cache: L2 set failed", zap.Error(err))
	}
}

func (c *Encoder) store(key string, vec []float32) {
	if c.l1Size.Load() >= int64(c.maxEntries) {
		c.evictExpired()
		if c.l1Size.Load() >= int64(c.maxEntries) {
			return
		}
	}

	if _, loaded := c.l1.Swap(key, &entry{vector: vec, expiresAt: time.Now().Add(c.ttl)}); !loaded {
		c.l1Size.Add(1)
	}
}

func (c *Encoder) evictExpired() {
	now := time.Now()
	c.l1.Range(func(key, val any) bool {
		if e, ok := val.(*entry); ok && now.After(e.expiresAt) {
			if _, loaded := c.l1.LoadAndDelete(key); loaded {
				c.l1Size.Add(-1)
			}
		}
		return true
	})
}
