package service

import (
	"context"
	"errors"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/client"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50

	msgUserNotFound = "사용자를 찾을 수 없습니다."
)

// 外部依赖，按需注入（生产用 client 包实现，测试用 httptest 或假实现）
type (
	SMSSender interface {
		Send(ctx context.Context, to, text string) error
	}
	SchoolDirectory interface {
		SearchSchools(ctx context.Context, name string) ([]client.NeisSchool, error)
		Meals(ctx context.Context, orgCode, schoolCode, date string) ([]client.Meal, error)
	}
	Geocoder interface {
		Address(ctx context.Context, query string) (lat, lng float64, ok bool, err error)
	}
	TransitLookup interface {
		NearbyStops(ctx context.Context, lat, lng float64) ([]client.BusStop, error)
		Arrivals(ctx context.Context, cityCode, nodeID string) ([]client.BusArrival, error)
	}
)

// pageOffset page 从 1 开始
func pageOffset(page, size int) (int, int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, (page - 1) * size, size
}

// notFoundOr 记录不存在转 404，其余视为内部错误
func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkg.NotFound(msg)
	}
	return pkg.Internal(err)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
