package mysql

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	"gorm.io/gorm"
)

type AdRepository struct {
	DB *gorm.DB
}

func (r *AdRepository) Create(ctx context.Context, ad *model.Ad) error {
	return r.DB.WithContext(ctx).Create(ad).Error
}

func (r *AdRepository) List(ctx context.Context) ([]model.Ad, error) {
	var list []model.Ad
	err := r.DB.WithContext(ctx).Order("id DESC").Find(&list).Error
	return list, err
}

func (r *AdRepository) Delete(ctx context.Context, id uint64) error {
	return NotFound(r.DB.WithContext(ctx).Delete(&model.Ad{}, id))
}

// Random 在投放期内随机取一条，没有时返回 gorm.ErrRecordNotFound
func (r *AdRepository) Random(ctx context.Context, now time.Time) (*model.Ad, error) {
	q := r.DB.WithContext(ctx).Model(&model.Ad{}).Where("start_at <= ? AND end_at > ?", now, now)
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var ad model.Ad
	err := q.Order("id ASC").Offset(rand.IntN(int(n))).Limit(1).Find(&ad).Error
	if err == nil && ad.ID == 0 {
		err = gorm.ErrRecordNotFound
	}
	return &ad, err
}

type ImageRepository struct {
	DB *gorm.DB
}

func (r *ImageRepository) Create(ctx context.Context, img *model.Image) error {
	return r.DB.WithContext(ctx).Create(img).Error
}

func (r *ImageRepository) FindByID(ctx context.Context, id uint64) (*model.Image, error) {
	var img model.Image
	err := r.DB.WithContext(ctx).First(&img, id).Error
	return &img, err
}

func (r *ImageRepository) Delete(ctx context.Context, id uint64) error {
	return NotFound(r.DB.WithContext(ctx).Delete(&model.Image{}, id))
}

// CreateWithEvent 图片记录和缩略图事件同一事务写入
func (r *ImageRepository) CreateWithEvent(ctx context.Context, img *model.Image) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(img).Error; err != nil {
			return err
		}
		return InsertOutbox(tx, model.EventImageResize, img.ID, model.ImageResizeEvent{Key: img.Key, UserID: img.UserID})
	})
}

// SetProfileImage 头像：写图片记录、更新用户头像、写缩略图事件
func (r *ImageRepository) SetProfileImage(ctx context.Context, img *model.Image) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(img).Error; err != nil {
			return err
		}
		if err := NotFound(tx.Model(&model.User{}).Where("id = ?", img.UserID).
			Update("profile_image", img.URL)); err != nil {
			return err
		}
		return InsertOutbox(tx, model.EventImageResize, img.ID, model.ImageResizeEvent{Key: img.Key, UserID: img.UserID})
	})
}
