package service

import (
	"context"
	"fmt"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/client"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/redis"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const MealCacheTTL = 6 * time.Hour

type SchoolService struct {
	schools     *mysql.SchoolRepository
	userSchools *mysql.UserSchoolRepository
	verifies    *mysql.SchoolVerifyRepository
	images      *mysql.ImageRepository
	directory   SchoolDirectory
	geocoder    Geocoder
	cache       *redis.Cache
	log         *zap.Logger
}

func NewSchoolService(db *gorm.DB, rdb *goredis.Client, directory SchoolDirectory, geocoder Geocoder, log *zap.Logger) *SchoolService {
	return &SchoolService{
		schools:     &mysql.SchoolRepository{DB: db},
		userSchools: &mysql.UserSchoolRepository{DB: db},
		verifies:    &mysql.SchoolVerifyRepository{DB: db},
		images:      &mysql.ImageRepository{DB: db},
		directory:   directory,
		geocoder:    geocoder,
		cache:       &redis.Cache{RDB: rdb},
		log:         log,
	}
}

// Search 查 NEIS 并把每条结果写入本地缓存；已有坐标的学校不再重复地理编码
func (s *SchoolService) Search(ctx context.Context, name string) ([]model.School, error) {
	rows, err := s.directory.SearchSchools(ctx, name)
	if err != nil {
		return nil, pkg.Upstream(err)
	}
	out := make([]model.School, 0, len(rows))
	for _, row := range rows {
		school, err := s.cacheSchool(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, *school)
	}
	return out, nil
}

func (s *SchoolService) cacheSchool(ctx context.Context, row client.NeisSchool) (*model.School, error) {
	school := &model.School{
		OrgCode:    row.OrgCode,
		SchoolCode: row.SchoolCode,
		Name:       row.Name,
		Kind:       row.Kind,
		Address:    row.Address,
		Homepage:   row.Homepage,
	}
	old, err := s.schools.FindByCode(ctx, row.OrgCode, row.SchoolCode)
	needGeo := err != nil || (old.Lat == 0 && old.Lng == 0) || old.Address != row.Address
	if needGeo && row.Address != "" && s.geocoder != nil {
		lat, lng, ok, err := s.geocoder.Address(ctx, row.Address)
		if err != nil {
			return nil, pkg.Upstream(err)
		}
		if ok {
			school.Lat, school.Lng = lat, lng
		}
	}
	if err := s.schools.Upsert(ctx, school); err != nil {
		return nil, pkg.Internal(err)
	}
	return school, nil
}

func (s *SchoolService) Get(ctx context.Context, id uint64) (*model.School, error) {
	school, err := s.schools.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "학교를 찾을 수 없습니다.")
	}
	return school, nil
}

// Meals 按 (学校, 日期) 缓存 6 小时；缓存不可用时直接回源
func (s *SchoolService) Meals(ctx context.Context, schoolID uint64, date string) ([]client.Meal, error) {
	school, err := s.Get(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("meal:%d:%s", schoolID, date)
	var meals []client.Meal
	if hit, err := s.cache.Get(ctx, key, &meals); err == nil && hit {
		return meals, nil
	} else if err != nil {
		s.log.Warn("meal cache read failed", zap.String("key", key), zap.Error(err))
	}
	meals, err = s.directory.Meals(ctx, school.OrgCode, school.SchoolCode, date)
	if err != nil {
		return nil, pkg.Upstream(err)
	}
	if err := s.cache.Set(ctx, key, meals, MealCacheTTL); err != nil {
		s.log.Warn("meal cache write failed", zap.String("key", key), zap.Error(err))
	}
	return meals, nil
}

type VerifyInput struct {
	SchoolID uint64
	Grade    int
	Class    string
	Dept     string
	ImageID  uint64
}

// RequestVerify 提交在校认证；已有待审核请求时拒绝
func (s *SchoolService) RequestVerify(ctx context.Context, userID uint64, in VerifyInput) (*model.UserSchoolVerify, error) {
	if _, err := s.Get(ctx, in.SchoolID); err != nil {
		return nil, err
	}
	img, err := s.images.FindByID(ctx, in.ImageID)
	if err != nil {
		return nil, notFoundOr(err, "이미지를 찾을 수 없습니다.")
	}
	if img.UserID != userID {
		return nil, pkg.Forbidden("본인의 이미지만 사용할 수 있습니다.")
	}
	pending, err := s.verifies.HasPending(ctx, userID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	if pending {
		return nil, pkg.Conflict("이미 처리 대기 중인 인증 요청이 있습니다.")
	}
	v := &model.UserSchoolVerify{
		UserID:   userID,
		SchoolID: in.SchoolID,
		Grade:    in.Grade,
		Class:    in.Class,
		Dept:     in.Dept,
		ImageID:  in.ImageID,
		Status:   model.StatusPending,
	}
	if err := s.verifies.Create(ctx, v); err != nil {
		return nil, pkg.Internal(err)
	}
	return v, nil
}

func (s *SchoolService) MyVerifies(ctx context.Context, userID uint64) ([]model.UserSchoolVerify, error) {
	list, err := s.verifies.ListByUser(ctx, userID)
	return list, pkg.Internal(err)
}

func (s *SchoolService) MySchool(ctx context.Context, userID uint64) (*model.UserSchoolView, error) {
	us, err := s.userSchools.FindByUser(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "학교 인증이 필요합니다.")
	}
	school, err := s.Get(ctx, us.SchoolID)
	if err != nil {
		return nil, err
	}
	return &model.UserSchoolView{School: school, Grade: us.Grade, Class: us.Class, Dept: us.Dept}, nil
}
