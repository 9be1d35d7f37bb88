package service

import (
	"context"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"

	"gorm.io/gorm"
)

const msgAdNotFound = "광고를 찾을 수 없습니다."

type AdService struct {
	ads *mysql.AdRepository
	now func() time.Time
}

func NewAdService(db *gorm.DB) *AdService {
	return &AdService{ads: &mysql.AdRepository{DB: db}, now: time.Now}
}

// Random 投放期内随机一条
func (s *AdService) Random(ctx context.Context) (*model.Ad, error) {
	ad, err := s.ads.Random(ctx, s.now())
	if err != nil {
		return nil, notFoundOr(err, msgAdNotFound)
	}
	return ad, nil
}

func (s *AdService) List(ctx context.Context) ([]model.Ad, error) {
	list, err := s.ads.List(ctx)
	return list, pkg.Internal(err)
}

type AdInput struct {
	Title    string
	ImageURL string
	Link     string
	StartAt  time.Time
	EndAt    time.Time
}

func (s *AdService) Create(ctx context.Context, in AdInput) (*model.Ad, error) {
	if !in.EndAt.After(in.StartAt) {
		return nil, pkg.BadRequest("종료 시간은 시작 시간 이후여야 합니다.")
	}
	ad := &model.Ad{
		Title:    in.Title,
		ImageURL: in.ImageURL,
		Link:     in.Link,
		StartAt:  in.StartAt,
		EndAt:    in.EndAt,
	}
	if err := s.ads.Create(ctx, ad); err != nil {
		return nil, pkg.Internal(err)
	}
	return ad, nil
}

func (s *AdService) Delete(ctx context.Context, id uint64) error {
	if err := s.ads.Delete(ctx, id); err != nil {
		return notFoundOr(err, msgAdNotFound)
	}
	return nil
}
