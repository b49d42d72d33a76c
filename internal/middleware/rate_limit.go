package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pageza/chef-next-door/backend/config"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter counts requests per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Config() RateLimitConfig
}

// RedisLimiter counts requests in fixed windows shared by every instance.
type RedisLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	now    func() time.Time
}

func NewRedisLimiter(redisClient *redis.Client, cfg RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{redis: redisClient, config: cfg, now: time.Now}
}

func (rl *RedisLimiter) Config() RateLimitConfig { return rl.config }

func (rl *RedisLimiter) windowKey(key string) (string, time.Time) {
	windowStart := rl.now().Truncate(rl.config.Window)
	return fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix()), windowStart.Add(rl.config.Window)
}

// Allow counts the request and reports whether it fits in the window.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey, reset := rl.windowKey(key)

	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(incrCmd.Val())
	return Decision{
		Allowed:   count <= rl.config.Limit,
		Limit:     rl.config.Limit,
		Remaining: max(rl.config.Limit-count, 0),
		Reset:     reset,
	}, nil
}

// LocalLimiter is the single-instance fallback when no redis is
// configured. Each key gets a token bucket refilled over the window.
type LocalLimiter struct {
	config RateLimitConfig
	now    func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLocalLimiter(cfg RateLimitConfig) *LocalLimiter {
	return &LocalLimiter{config: cfg, now: time.Now, limiters: make(map[string]*rate.Limiter)}
}

func (l *LocalLimiter) Config() RateLimitConfig { return l.config }

func (l *LocalLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		every := l.config.Window / time.Duration(max(l.config.Limit, 1))
		lim = rate.NewLimiter(rate.Every(every), l.config.Limit)
		l.limiters[key] = lim
	}
	return lim
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (Decision, error) {
	lim := l.limiter(key)
	now := l.now()
	allowed := lim.AllowN(now, 1)
	tokens := lim.TokensAt(now)

	// Reset is when the next request fits again.
	reset := now
	if tokens < 1 {
		wait := (1 - tokens) / float64(lim.Limit())
		reset = now.Add(time.Duration(wait * float64(time.Second)))
	}
	return Decision{
		Allowed:   allowed,
		Limit:     l.config.Limit,
		Remaining: max(int(tokens), 0),
		Reset:     reset,
	}, nil
}

// Evict drops the buckets that refilled completely. A full bucket behaves
// exactly like a new one, so no request is treated differently.
func (l *LocalLimiter) Evict() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, lim := range l.limiters {
		if lim.TokensAt(now) >= float64(lim.Burst()) {
			delete(l.limiters, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked buckets.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Run evicts idle buckets every interval until ctx is done.
func (l *LocalLimiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Evict()
		}
	}
}

// NewLimiter picks the redis limiter when a client is given.
func NewLimiter(redisClient *redis.Client, cfg RateLimitConfig) Limiter {
	if redisClient != nil {
		return NewRedisLimiter(redisClient, cfg)
	}
	return NewLocalLimiter(cfg)
}

// NewRecipeCreationLimiter limits recipe creation per user.
func NewRecipeCreationLimiter(redisClient *redis.Client, cfg config.RateLimitConfig) Limiter {
	return NewLimiter(redisClient, RateLimitConfig{
		Window:    cfg.Window,
		Limit:     cfg.CreateLimit,
		KeyPrefix: "rate_limit:recipe_creation",
	})
}

// NewRecipeModificationLimiter limits changes per user and recipe.
func NewRecipeModificationLimiter(redisClient *redis.Client, cfg config.RateLimitConfig) Limiter {
	return NewLimiter(redisClient, RateLimitConfig{
		Window:    cfg.Window,
		Limit:     cfg.ModifyLimit,
		KeyPrefix: "rate_limit:recipe_modification",
	})
}

// KeyFunc derives the rate limit key of a request. An empty key skips
// the check.
type KeyFunc func(c *gin.Context) string

// PerUser keys by the id recorded by RequireAuth.
func PerUser(c *gin.Context) string {
	id, ok := UserID(c)
	if !ok {
		return ""
	}
	return id.String()
}

// PerUserRecipe keys by user and the :id route parameter.
func PerUserRecipe(c *gin.Context) string {
	user := PerUser(c)
	if user == "" || c.Param("id") == "" {
		return ""
	}
	return user + ":" + c.Param("id")
}

// RateLimit enforces limiter on requests keyed by key. Limiter failures
// let the request through.
func RateLimit(limiter Limiter, key KeyFunc, log logrus.FieldLogger) gin.HandlerFunc {
	log = log.WithField("component", "RateLimit")
	return func(c *gin.Context) {
		k := key(c)
		if k == "" {
			c.Next()
			return
		}

		d, err := limiter.Allow(c.Request.Context(), k)
		if err != nil {
			log.WithError(err).WithField("key", k).Warn("rate limit check failed")
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

		if !d.Allowed {
			cfg := limiter.Config()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":                "rate limit exceeded",
				"message":              fmt.Sprintf("You have exceeded the rate limit of %d requests per %v", cfg.Limit, cfg.Window),
				"rate_limit_remaining": d.Remaining,
				"rate_limit_reset":     d.Reset.Unix(),
				"retry_after":          max(int(time.Until(d.Reset).Seconds()), 0),
			})
			return
		}
		c.Next()
	}
}
