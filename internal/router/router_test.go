package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/config"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/handler"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/redis"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const rateMessage = "요청이 너무 많습니다."

type testServer struct {
	engine *gin.Engine
	tokens *pkg.TokenIssuer
	db     *gorm.DB
	mr     *miniredis.Miniredis
}

func newTestServer(t *testing.T, rl config.RateLimitConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, handler.RegisterValidators())

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, mysql.AutoMigrate(db))

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := zap.NewNop()
	tokens := pkg.NewTokenIssuer("router-secret", time.Hour, time.Hour, time.Hour, "")
	boards := service.NewBoardService(db)
	s := &Services{
		Auth:        service.NewAuthService(db, rdb, nil, tokens, nil, time.Minute, log),
		User:        service.NewUserService(db),
		School:      service.NewSchoolService(db, rdb, nil, nil, log),
		Board:       boards,
		Article:     service.NewArticleService(db, boards),
		Comment:     service.NewCommentService(db, boards),
		Asked:       service.NewAskedService(db),
		Connection:  service.NewConnectionService(db, nil),
		Fight:       service.NewFightService(db),
		Report:      service.NewReportService(db),
		Moderation:  service.NewModerationService(db, log),
		Ad:          service.NewAdService(db),
		Image:       service.NewImageService(db, pkg.NewMemoryStorage(), log),
		Bus:         service.NewBusService(db, rdb, nil, log),
		Cache:       service.NewCacheService(rdb, log),
		Tokens:      tokens,
		Limiter:     &redis.RateLimiter{RDB: rdb},
		Registry:    prometheus.NewRegistry(),
		RateLimit:   rl,
		Log:         log,
		DisableCORS: true,
	}
	return &testServer{engine: InitRouter(s), tokens: tokens, db: db, mr: mr}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, pkg.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	var resp pkg.Response
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func TestRouter_HealthAndNotFound(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})

	w, resp := ts.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/healthz", resp.Path)

	w, resp = ts.do(t, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 404, resp.Status)
	assert.Equal(t, "/nope", resp.Path)
	assert.NotEmpty(t, resp.RequestID)

	w, _ = ts.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AuthRequired(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})

	w, resp := ts.do(t, http.MethodGet, "/user/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 401, resp.Status)

	w, _ = ts.do(t, http.MethodGet, "/admin/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := ts.tokens.Issue(9999, pkg.KindUser)
	require.NoError(t, err)
	w, _ = ts.do(t, http.MethodGet, "/user/me", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_BoardArticleFlow(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})
	u := &model.User{Name: "tester", Provider: model.ProviderID}
	require.NoError(t, ts.db.Create(u).Error)
	require.NoError(t, ts.db.Create(&model.Board{Name: "자유게시판"}).Error)
	token, err := ts.tokens.Issue(u.ID, pkg.KindUser)
	require.NoError(t, err)

	w, _ := ts.do(t, http.MethodPost, "/board/1/article", map[string]any{"content": "제목 없음"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := ts.do(t, http.MethodPost, "/board/1/article", map[string]any{"title": "안녕", "content": "첫 글"}, token)
	require.Equal(t, http.StatusCreated, w.Code, resp.Message)

	w, _ = ts.do(t, http.MethodPost, "/article/1/like", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
	w, resp = ts.do(t, http.MethodGet, "/article/1", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["isLiked"])
	assert.EqualValues(t, 1, data["likeCount"])

	w, _ = ts.do(t, http.MethodGet, "/article/abc", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_PhoneRateLimit(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{
		Enabled:    true,
		Limit:      100,
		PhoneLimit: 2,
		Window:     time.Minute,
		Message:    rateMessage,
	})
	// 参数不合法时仍然计入限流
	for i := 0; i < 2; i++ {
		w, _ := ts.do(t, http.MethodPost, "/auth/phone/code", map[string]string{"phone": "bad"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	w, resp := ts.do(t, http.MethodPost, "/auth/phone/code", map[string]string{"phone": "bad"}, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, rateMessage, resp.Message)

	w, _ = ts.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ImageUpload(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})
	u := &model.User{Name: "uploader", Provider: model.ProviderID}
	require.NoError(t, ts.db.Create(u).Error)
	token, err := ts.tokens.Issue(u.ID, pkg.KindUser)
	require.NoError(t, err)

	upload := func(field, contentType string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="a.png"`, field))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG fake"))
		require.NoError(t, err)
		require.NoError(t, mw.WriteField("category", "article"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/image", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		ts.engine.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusBadRequest, upload("image", "image/png").Code)
	assert.Equal(t, http.StatusBadRequest, upload("file", "text/plain").Code)
	assert.Equal(t, http.StatusCreated, upload("file", "image/png").Code)
}

func TestRouter_AdminCache(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})
	super := &model.Admin{Username: "root", Password: "x", Name: "root", Permission: model.PermSuper}
	ad := &model.Admin{Username: "ads", Password: "x", Name: "ads", Permission: model.PermAd}
	require.NoError(t, ts.db.Create(super).Error)
	require.NoError(t, ts.db.Create(ad).Error)
	superToken, err := ts.tokens.Issue(super.ID, pkg.KindAdmin)
	require.NoError(t, err)
	adToken, err := ts.tokens.Issue(ad.ID, pkg.KindAdmin)
	require.NoError(t, err)

	require.NoError(t, ts.mr.Set(redis.CachePrefix+"meal:1:20240309", "[]"))
	require.NoError(t, ts.mr.Set(redis.CachePrefix+"meal:1:20240310", "[]"))

	w, _ := ts.do(t, http.MethodPost, "/admin/cache/flush", nil, adToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp := ts.do(t, http.MethodGet, "/admin/cache/meal:1:20240309", nil, superToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"exists": true}, resp.Data)

	w, _ = ts.do(t, http.MethodDelete, "/admin/cache/meal:1:20240309", nil, superToken)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = ts.do(t, http.MethodDelete, "/admin/cache/meal:1:20240309", nil, superToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = ts.do(t, http.MethodPost, "/admin/cache/flush", nil, superToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"deleted": float64(1)}, resp.Data)
	assert.False(t, ts.mr.Exists(redis.CachePrefix+"meal:1:20240310"))
}
