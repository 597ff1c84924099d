package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/excellense/internal/config"
)

// bucketScript takes one token from the bucket stored at KEYS[1].
// ARGV: now_ms, capacity, refill, interval_ms, ttl_s.
// Returns {allowed (0|1), remaining, wait_ms}.
var bucketScript = redis.NewScript(`
local now, cap = tonumber(ARGV[1]), tonumber(ARGV[2])
local refill, every = tonumber(ARGV[3]), tonumber(ARGV[4])
local b = redis.call('HMGET', KEYS[1], 'n', 'at')
local n = tonumber(b[1]) or cap
local at = tonumber(b[2]) or now

local steps = math.floor(math.max(0, now - at) / every)
if steps > 0 then
	n = math.min(cap, n + steps * refill)
	at = at + steps * every
end

local ok, wait = 0, 0
if n >= 1 then
	ok = 1
	n = n - 1
else
	wait = math.max(0, every - (now - at))
end

redis.call('HSET', KEYS[1], 'n', n, 'at', at)
redis.call('EXPIRE', KEYS[1], ARGV[5])
return {ok, n, wait}
`)

// NewTokenBucket limits requests with a Redis token bucket keyed by
// cfg.KeyStrategy.  It passes everything through when disabled, when
// rdb is nil and when Redis errors, so an outage never locks users out.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, logger *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	every := max(cfg.RefillInterval.Milliseconds(), 1)
	ttl := max(int64(cfg.TTL/time.Second), 1)
	limit := strconv.Itoa(cfg.Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			res, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens, every, ttl).Int64Slice()
			if err != nil || len(res) != 3 {
				logger.Warn("rate limit check failed, letting request through", zap.String("key", key), zap.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if res[0] == 1 {
				return next(c)
			}

			wait := (res[2] + 999) / 1000 // whole seconds, rounded up
			h.Set("Retry-After", strconv.FormatInt(wait, 10))
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"message":    "Too many requests, please try again later",
				"retryAfter": wait,
			})
		}
	}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// buildRateKey joins the parts named by cfg.KeyStrategy, an
// underscore-separated list of ip, user and route ("ip_route").
// An empty strategy uses all three; unknown parts are ignored.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	strategy := strings.ToLower(cfg.KeyStrategy)
	if strategy == "" {
		strategy = "ip_user_route"
	}
	parts := []string{cfg.Prefix}
	for _, p := range strings.Split(strategy, "_") {
		switch p {
		case "ip":
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			parts = append(parts, "ip", ip)
		case "user":
			parts = append(parts, "user", userID(c))
		case "route":
			parts = append(parts, "route", c.Request().Method+" "+c.Path())
		}
	}
	return strings.Join(parts, ":")
}
