package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/excellense/internal/config"
	"github.com/iliyamo/excellense/internal/model"
	"github.com/iliyamo/excellense/internal/repository"
	"github.com/iliyamo/excellense/internal/utils"
)

const testSecret = "mw-secret"

type stubUsers map[uint64]model.User

func (s stubUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := s[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

var testUsers = stubUsers{
	1: {ID: 1, Username: "u", Email: "u@x.com", Role: model.RoleUser},
	2: {ID: 2, Username: "a", Email: "a@x.com", Role: model.RoleAdmin},
	3: {ID: 3, Username: "s", Email: "s@x.com", Role: model.RoleSuperAdmin},
	4: {ID: 4, Username: "b", Email: "b@x.com", Role: model.RoleUser, Blocked: true},
}

func bearer(t *testing.T, u model.User) string {
	t.Helper()
	tok, err := utils.NewTokenIssuer(testSecret).Issue(u)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func whoAmI(c echo.Context) error {
	u, ok := CurrentUser(c)
	if !ok {
		return c.String(http.StatusInternalServerError, "no user")
	}
	fromCtx, ok := UserFromContext(c.Request().Context())
	if !ok || fromCtx.ID != u.ID {
		return c.String(http.StatusInternalServerError, "context mismatch")
	}
	return c.String(http.StatusOK, u.Username)
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoAmI, JWTAuth(utils.NewTokenIssuer(testSecret), testUsers, zap.NewNop()))

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, utils.Claims{
		UserID: 1,
		Role:   "user",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-25 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name     string
		auth     string
		wantCode int
		wantMsg  string
	}{
		{name: "no header", auth: "", wantCode: 401, wantMsg: "Missing or malformed token"},
		{name: "not bearer", auth: "Token abc", wantCode: 401, wantMsg: "Missing or malformed token"},
		{name: "garbage", auth: "Bearer abc.def.ghi", wantCode: 401, wantMsg: "Invalid token"},
		{name: "expired", auth: "Bearer " + expired, wantCode: 401, wantMsg: "Token expired"},
		{name: "deleted user", auth: bearer(t, model.User{ID: 99, Role: model.RoleUser}), wantCode: 401, wantMsg: "User not found"},
		{name: "blocked user", auth: bearer(t, testUsers[4]), wantCode: 403, wantMsg: "Your account is blocked"},
		{name: "ok", auth: bearer(t, testUsers[1]), wantCode: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, "/me", tt.auth)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, message(t, rec))
			} else {
				assert.Equal(t, "u", rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	auth := JWTAuth(utils.NewTokenIssuer(testSecret), testUsers, zap.NewNop())
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/any", ok, auth, RequireRole())
	e.GET("/admin", ok, auth, RequireRole(model.RoleAdmin))
	e.GET("/super", ok, auth, RequireRole(model.RoleSuperAdmin))
	e.GET("/either", ok, auth, RequireRole(model.RoleSuperAdmin, model.RoleAdmin))

	tests := []struct {
		user model.User
		path string
		want int
	}{
		{testUsers[1], "/any", 200},
		{testUsers[1], "/admin", 403},
		{testUsers[2], "/admin", 200},
		{testUsers[2], "/super", 403},
		{testUsers[2], "/either", 200},
		{testUsers[3], "/admin", 200},
		{testUsers[3], "/super", 200},
	}
	for _, tt := range tests {
		t.Run(tt.user.Role.String()+tt.path, func(t *testing.T) {
			rec := serve(e, http.MethodGet, tt.path, bearer(t, tt.user))
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == 403 {
				assert.Equal(t, "Insufficient role level: "+tt.user.Role.String(), message(t, rec))
			}
		})
	}

	// without JWTAuth in front there is no user to check
	bare := echo.New()
	bare.GET("/x", ok, RequireRole(model.RoleUser))
	assert.Equal(t, 401, serve(bare, http.MethodGet, "/x", "").Code)
}

func TestRequireRole_UsesStoredRole(t *testing.T) {
	// token claims admin, store says user: the stored role wins
	e := echo.New()
	e.GET("/admin", func(c echo.Context) error { return c.NoContent(200) },
		JWTAuth(utils.NewTokenIssuer(testSecret), testUsers, zap.NewNop()), RequireRole(model.RoleAdmin))

	stale := model.User{ID: 1, Role: model.RoleAdmin}
	assert.Equal(t, 403, serve(e, http.MethodGet, "/admin", bearer(t, stale)).Code)
}

type brokenUsers struct{}

func (brokenUsers) GetByID(context.Context, uint64) (model.User, error) {
	return model.User{}, errors.New("connection refused")
}

func TestJWTAuth_StoreFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := echo.New()
	e.GET("/me", whoAmI, JWTAuth(utils.NewTokenIssuer(testSecret), brokenUsers{}, zap.New(core)))

	rec := serve(e, http.MethodGet, "/me", bearer(t, testUsers[1]))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error", message(t, rec))

	entries := logs.FilterMessage("auth: load user").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 1, entries[0].ContextMap()["user_id"])
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestTokenBucket(t *testing.T) {
	_, rdb := newMiniRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "test:rl",
	}
	e := echo.New()
	e.POST("/auth/login", func(c echo.Context) error { return c.NoContent(200) }, NewTokenBucket(cfg, rdb, zap.NewNop()))

	first := serve(e, http.MethodPost, "/auth/login", "")
	assert.Equal(t, 200, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, 200, serve(e, http.MethodPost, "/auth/login", "").Code)

	blocked := serve(e, http.MethodPost, "/auth/login", "")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
	assert.NotEmpty(t, message(t, blocked))
}

func TestTokenBucket_PassThrough(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Minute, TTL: time.Hour, Prefix: "p"}
	ok := func(c echo.Context) error { return c.NoContent(200) }

	// no client
	e := echo.New()
	e.GET("/x", ok, NewTokenBucket(cfg, nil, zap.NewNop()))
	for i := 0; i < 3; i++ {
		assert.Equal(t, 200, serve(e, http.MethodGet, "/x", "").Code)
	}

	// redis goes away after startup
	mr, rdb := newMiniRedis(t)
	mr.Close()
	core, logs := observer.New(zap.WarnLevel)
	e2 := echo.New()
	e2.GET("/x", ok, NewTokenBucket(cfg, rdb, zap.New(core)))
	for i := 0; i < 3; i++ {
		assert.Equal(t, 200, serve(e2, http.MethodGet, "/x", "").Code)
	}
	assert.Equal(t, 3, logs.Len())
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("X-Real-IP", "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/auth/login")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}
	assert.Equal(t, "rl:ip:10.0.0.1:route:POST /auth/login", buildRateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:anon", buildRateKey(cfg, c))
	setUser(c, model.User{ID: 42})
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, c))
}

func TestRedisCache(t *testing.T) {
	_, rdb := newMiniRedis(t)
	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "test:cache",
		MaxBodyBytes: 1 << 20,
	}
	calls := 0
	e := echo.New()
	e.GET("/admin/analyses", func(c echo.Context) error {
		calls++
		return c.JSON(200, echo.Map{"n": calls})
	}, NewRedisCache(cfg, rdb, zap.NewNop()))
	e.GET("/fail", func(c echo.Context) error {
		calls++
		return c.JSON(500, echo.Map{"message": "boom"})
	}, NewRedisCache(cfg, rdb, zap.NewNop()))

	miss := serve(e, http.MethodGet, "/admin/analyses", "")
	require.Equal(t, 200, miss.Code)
	assert.Equal(t, "MISS", miss.Header().Get("X-Cache"))

	hit := serve(e, http.MethodGet, "/admin/analyses", "")
	require.Equal(t, 200, hit.Code)
	assert.Equal(t, "HIT", hit.Header().Get("X-Cache"))
	assert.Equal(t, miss.Body.String(), hit.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, hit.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	// a different query is a different entry
	assert.Equal(t, "MISS", serve(e, http.MethodGet, "/admin/analyses?x=1", "").Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	// errors are never cached
	serve(e, http.MethodGet, "/fail", "")
	assert.Equal(t, "MISS", serve(e, http.MethodGet, "/fail", "").Header().Get("X-Cache"))
	assert.Equal(t, 4, calls)
}

func TestRedisCache_HitKeepsPerRequestHeaders(t *testing.T) {
	_, rdb := newMiniRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "c", MaxBodyBytes: 1 << 20}
	e := echo.New()
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: []string{"*"}}))
	e.GET("/admin/uploads", func(c echo.Context) error {
		return c.JSON(200, []string{"a"})
	}, NewRedisCache(cfg, rdb, zap.NewNop()))

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/uploads", nil)
		req.Header.Set(echo.HeaderOrigin, "http://dashboard.local")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	miss, hit := get(), get()
	require.Equal(t, "MISS", miss.Header().Get("X-Cache"))
	require.Equal(t, "HIT", hit.Header().Get("X-Cache"))
	assert.Equal(t, miss.Body.String(), hit.Body.String())

	assert.Equal(t, []string{"*"}, hit.Header().Values(echo.HeaderAccessControlAllowOrigin))
	ids := hit.Header().Values(echo.HeaderXRequestID)
	require.Len(t, ids, 1)
	assert.NotEqual(t, miss.Header().Get(echo.HeaderXRequestID), ids[0])
	assert.Len(t, hit.Header().Values(echo.HeaderContentType), 1)
}

func TestRedisCache_OversizedBodyNotCached(t *testing.T) {
	_, rdb := newMiniRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "c", MaxBodyBytes: 8}
	e := echo.New()
	e.GET("/big", func(c echo.Context) error { return c.String(200, "this body is longer than eight bytes") }, NewRedisCache(cfg, rdb, zap.NewNop()))

	serve(e, http.MethodGet, "/big", "")
	rec := serve(e, http.MethodGet, "/big", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "this body is longer than eight bytes", rec.Body.String())
}

func TestCacheKeyFrom(t *testing.T) {
	e := echo.New()
	ctxFor := func(target string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/admin/uploads")
		return c
	}
	cfg := config.CacheConfig{Prefix: "c"}

	a, b := cacheKeyFrom(cfg, ctxFor("/admin/uploads?page=1")), cacheKeyFrom(cfg, ctxFor("/admin/uploads?page=2"))
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "c:"))

	cfg.KeyStrategy = "route"
	assert.Equal(t, cacheKeyFrom(cfg, ctxFor("/admin/uploads?page=1")), cacheKeyFrom(cfg, ctxFor("/admin/uploads?page=2")))

	admin, super := ctxFor("/admin/uploads"), ctxFor("/admin/uploads")
	setUser(admin, model.User{ID: 2, Role: model.RoleAdmin})
	setUser(super, model.User{ID: 3, Role: model.RoleSuperAdmin})
	assert.NotEqual(t, cacheKeyFrom(cfg, admin), cacheKeyFrom(cfg, super))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(200) })

	serve(e, http.MethodGet, "/ok", "")
	serve(e, http.MethodGet, "/missing", "")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.EqualValues(t, 404, entries[1].ContextMap()["status"])
}
