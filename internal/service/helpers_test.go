package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/client"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试独立的内存库；单连接保证所有查询看到同一个库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func seedUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Provider: model.ProviderID}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedSchool(t *testing.T, db *gorm.DB, code string) *model.School {
	t.Helper()
	s := &model.School{OrgCode: "B10", SchoolCode: code, Name: "학교" + code}
	require.NoError(t, db.Create(s).Error)
	return s
}

func enroll(t *testing.T, db *gorm.DB, userID, schoolID uint64) {
	t.Helper()
	require.NoError(t, db.Create(&model.UserSchool{UserID: userID, SchoolID: schoolID, Grade: 2, Class: "3"}).Error)
}

func seedBoard(t *testing.T, db *gorm.DB, schoolID *uint64) *model.Board {
	t.Helper()
	b := &model.Board{SchoolID: schoolID, Name: "자유게시판"}
	require.NoError(t, db.Create(b).Error)
	return b
}

// assertStatus 断言错误是指定状态码的 AppError
func assertStatus(t *testing.T, err error, status int) *pkg.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *pkg.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, status, appErr.Status, appErr.Message)
	return appErr
}

// fakeSMS 记录最后一条短信
type fakeSMS struct {
	to, text string
	err      error
}

func (f *fakeSMS) Send(_ context.Context, to, text string) error {
	f.to, f.text = to, text
	return f.err
}

// fakeProvider 按授权码返回预设资料
type fakeProvider struct {
	name     string
	profiles map[string]*client.Profile
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Exchange(_ context.Context, code string) (*client.Profile, error) {
	p, ok := f.profiles[code]
	if !ok {
		return nil, fmt.Errorf("unknown code %s", code)
	}
	out := *p
	return &out, nil
}
