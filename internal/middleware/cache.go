package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/excellense/internal/config"
)

// captureWriter copies the response body while forwarding it to the
// client.  Once the body exceeds limit it stops copying and marks the
// response as too large to cache.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int64
	overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.overflow {
		if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
			cw.overflow = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// cacheKeyFrom hashes the parts named by cfg.KeyStrategy, an
// underscore-separated list of method, route and query
// ("route_query" when empty).  Routes behind JWTAuth are keyed per
// role as well, so a response rendered for one role is never served to
// another.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	strategy := strings.ToLower(cfg.KeyStrategy)
	if strategy == "" {
		strategy = "route_query"
	}
	var parts []string
	for _, p := range strings.Split(strategy, "_") {
		switch p {
		case "method":
			parts = append(parts, "method", c.Request().Method)
		case "route":
			parts = append(parts, "route", c.Path())
		case "query":
			parts = append(parts, "q", c.Request().URL.RawQuery)
		}
	}
	if u, ok := CurrentUser(c); ok {
		parts = append(parts, "role", u.Role.String())
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum)
}

// cachedResponse is what the cache stores per key.  Only the content
// type is kept; CORS, request id and the other per-request headers are
// set again by the middleware in front of the cache on every hit.
type cachedResponse struct {
	Status      int    `json:"s"`
	ContentType string `json:"t"`
	Body        []byte `json:"b"`
}

func (r cachedResponse) replay(c echo.Context) error {
	c.Response().Header().Set("X-Cache", "HIT")
	return c.Blob(r.Status, r.ContentType, r.Body)
}

// NewRedisCache caches successful responses (status, content type,
// body) in Redis for cfg.TTL.  Hits carry X-Cache: HIT, misses
// X-Cache: MISS.  Without a client, or with cfg.Enabled false, it
// passes through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, logger *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKeyFrom(cfg, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var hit cachedResponse
				if json.Unmarshal(bs, &hit) == nil {
					return hit.replay(c)
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow {
				return nil
			}
			payload, err := json.Marshal(cachedResponse{
				Status:      cw.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        cw.buf.Bytes(),
			})
			if err != nil {
				return nil
			}
			// the request context may already be done once the body is written
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := rdb.Set(setCtx, key, payload, ttl).Err(); err != nil {
				logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}
