package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()), RequestID(), ErrorHandler(zap.NewNop()))
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) pkg.Response {
	t.Helper()
	var resp pkg.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorHandler_Envelope(t *testing.T) {
	r := newEngine()
	r.GET("/missing", func(c *gin.Context) { _ = c.Error(pkg.NotFound("없음")) })
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(assert.AnError) })

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := serve(r, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode(t, w)
	assert.Equal(t, pkg.Response{Status: 404, Message: "없음", Path: "/missing", RequestID: "req-1"}, resp)
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp = decode(t, w)
	assert.Equal(t, pkg.InternalMessage, resp.Message)
	assert.NotEmpty(t, resp.RequestID)
}

func TestErrorHandler_Logs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(zap.New(core)))
	r.GET("/missing", func(c *gin.Context) {
		c.Set(ContextUserIDKey, uint64(7))
		_ = c.Error(pkg.NotFound("없음"))
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Set(ContextAdminIDKey, uint64(3))
		_ = c.Error(pkg.Internal(assert.AnError))
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	req.Header.Set("User-Agent", "school-mate-test")
	serve(r, req)
	serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	warn := entries[0]
	assert.Equal(t, zapcore.WarnLevel, warn.Level)
	ctx := warn.ContextMap()
	assert.Equal(t, "req-1", ctx["request_id"])
	assert.Equal(t, http.MethodGet, ctx["method"])
	assert.Equal(t, "/missing", ctx["path"])
	assert.Equal(t, int64(http.StatusNotFound), ctx["status"])
	assert.Equal(t, "없음", ctx["message"])
	assert.Equal(t, "school-mate-test", ctx["user_agent"])
	assert.Equal(t, uint64(7), ctx["user_id"])
	assert.NotEmpty(t, ctx["client_ip"])
	assert.NotContains(t, ctx, "cause")

	fail := entries[1]
	assert.Equal(t, zapcore.ErrorLevel, fail.Level)
	ctx = fail.ContextMap()
	assert.Equal(t, int64(http.StatusInternalServerError), ctx["status"])
	assert.Equal(t, uint64(3), ctx["admin_id"])
	assert.Equal(t, assert.AnError.Error(), ctx["cause"])
	assert.NotContains(t, ctx, "user_id")
}

func TestRecovery(t *testing.T) {
	r := newEngine()
	r.GET("/panic", func(*gin.Context) { panic("oops") })
	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 500, decode(t, w).Status)
}

func TestAuth(t *testing.T) {
	tokens := pkg.NewTokenIssuer("secret", time.Hour, time.Hour, time.Hour, "")
	r := newEngine()
	r.GET("/me", Auth(tokens), func(c *gin.Context) { pkg.OK(c, UserID(c)) })
	r.GET("/public", OptionalAuth(tokens), func(c *gin.Context) { pkg.OK(c, UserID(c)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	admin, err := tokens.Issue(7, pkg.KindAdmin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	user, err := tokens.Issue(42, pkg.KindUser)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: pkg.CookieName, Value: user})
	w = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 42, decode(t, w).Data)

	req = httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w).Data)
}

type stubAdmins map[uint64]*model.Admin

func (s stubAdmins) Admin(_ context.Context, id uint64) (*model.Admin, error) {
	if a, ok := s[id]; ok {
		return a, nil
	}
	return nil, pkg.Unauthorized("관리자 인증이 필요합니다.")
}

func TestAdminAuthAndPerm(t *testing.T) {
	tokens := pkg.NewTokenIssuer("secret", time.Hour, time.Hour, time.Hour, "")
	admins := stubAdmins{
		1: {ID: 1, Permission: model.PermReport},
		2: {ID: 2, Permission: model.PermSuper},
	}
	r := newEngine()
	g := r.Group("/admin", AdminAuth(tokens, admins))
	g.GET("/report", RequirePerm(model.PermReport), func(c *gin.Context) { pkg.OK(c, AdminID(c)) })
	g.GET("/ad", RequirePerm(model.PermAd), func(c *gin.Context) { pkg.OK(c, AdminID(c)) })

	call := func(id uint64, path string) int {
		tok, err := tokens.Issue(id, pkg.KindAdmin)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		return serve(r, req).Code
	}
	assert.Equal(t, http.StatusOK, call(1, "/admin/report"))
	assert.Equal(t, http.StatusForbidden, call(1, "/admin/ad"))
	assert.Equal(t, http.StatusOK, call(2, "/admin/ad"))
	assert.Equal(t, http.StatusUnauthorized, call(3, "/admin/report"))
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := newEngine()
	r.Use(RateLimit(&redis.RateLimiter{RDB: rdb}, RateRule{Name: "test", Limit: 2, Window: time.Minute},
		"X-Forwarded-For", "요청이 너무 많습니다.", zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { pkg.OK(c, nil) })

	get := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		return serve(r, req)
	}
	assert.Equal(t, http.StatusOK, get("1.1.1.1").Code)
	assert.Equal(t, http.StatusOK, get("1.1.1.1").Code)
	w := get("1.1.1.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "요청이 너무 많습니다.", decode(t, w).Message)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, get("2.2.2.2").Code)

	// redis 不可用时放行
	mr.Close()
	assert.Equal(t, http.StatusOK, get("3.3.3.3").Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newEngine()
	r.Use(NewMetrics(reg).Handler())
	r.GET("/article/:id", func(c *gin.Context) { pkg.OK(c, nil) })

	serve(r, httptest.NewRequest(http.MethodGet, "/article/1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/article/2", nil))

	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != "schoolmate_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["route"] == "/article/:id" && labels["status"] == "200" {
				total += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, total)
}
