package service

import (
	"context"
	"fmt"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/client"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/redis"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 站点位置基本不变
const BusStopCacheTTL = 24 * time.Hour

type BusService struct {
	transit     TransitLookup
	schools     *mysql.SchoolRepository
	userSchools *mysql.UserSchoolRepository
	cache       *redis.Cache
	log         *zap.Logger
}

func NewBusService(db *gorm.DB, rdb *goredis.Client, transit TransitLookup, log *zap.Logger) *BusService {
	return &BusService{
		transit:     transit,
		schools:     &mysql.SchoolRepository{DB: db},
		userSchools: &mysql.UserSchoolRepository{DB: db},
		cache:       &redis.Cache{RDB: rdb},
		log:         log,
	}
}

// Stops 没有传坐标时用本人学校的坐标
func (s *BusService) Stops(ctx context.Context, userID uint64, lat, lng *float64) ([]client.BusStop, error) {
	var la, lo float64
	if lat != nil && lng != nil {
		la, lo = *lat, *lng
	} else {
		schoolID, err := schoolOf(ctx, s.userSchools, userID)
		if err != nil {
			return nil, err
		}
		if schoolID == 0 {
			return nil, pkg.BadRequest("학교 인증이 필요합니다.")
		}
		school, err := s.schools.FindByID(ctx, schoolID)
		if err != nil {
			return nil, notFoundOr(err, "학교를 찾을 수 없습니다.")
		}
		if school.Lat == 0 && school.Lng == 0 {
			return nil, pkg.BadRequest("학교 위치 정보가 없습니다.")
		}
		la, lo = school.Lat, school.Lng
	}
	key := fmt.Sprintf("bus:stops:%.4f:%.4f", la, lo)
	var stops []client.BusStop
	if hit, err := s.cache.Get(ctx, key, &stops); err == nil && hit {
		return stops, nil
	} else if err != nil {
		s.log.Warn("bus stop cache read failed", zap.String("key", key), zap.Error(err))
	}
	stops, err := s.transit.NearbyStops(ctx, la, lo)
	if err != nil {
		return nil, pkg.Upstream(err)
	}
	if err := s.cache.Set(ctx, key, stops, BusStopCacheTTL); err != nil {
		s.log.Warn("bus stop cache write failed", zap.String("key", key), zap.Error(err))
	}
	return stops, nil
}

func (s *BusService) Arrivals(ctx context.Context, cityCode, nodeID string) ([]client.BusArrival, error) {
	if cityCode == "" || nodeID == "" {
		return nil, pkg.BadRequest("cityCode 와 nodeId 가 필요합니다.")
	}
	list, err := s.transit.Arrivals(ctx, cityCode, nodeID)
	if err != nil {
		return nil, pkg.Upstream(err)
	}
	return list, nil
}
