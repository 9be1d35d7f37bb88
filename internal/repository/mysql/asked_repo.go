package mysql

import (
	"context"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	"gorm.io/gorm"
)

type AskedRepository struct {
	DB *gorm.DB
}

func (r *AskedRepository) CreateUser(ctx context.Context, au *model.AskedUser) error {
	return r.DB.WithContext(ctx).Create(au).Error
}

func (r *AskedRepository) FindUserByCustomID(ctx context.Context, customID string) (*model.AskedUser, error) {
	var au model.AskedUser
	err := r.DB.WithContext(ctx).Where("custom_id = ?", customID).First(&au).Error
	return &au, err
}

func (r *AskedRepository) FindUserByUserID(ctx context.Context, userID uint64) (*model.AskedUser, error) {
	var au model.AskedUser
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&au).Error
	return &au, err
}

func (r *AskedRepository) CustomIDTaken(ctx context.Context, customID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.AskedUser{}).Where("custom_id = ?", customID).Count(&n).Error
	return n > 0, err
}

func (r *AskedRepository) UpdateUser(ctx context.Context, userID uint64, fields map[string]any) error {
	return NotFound(r.DB.WithContext(ctx).Model(&model.AskedUser{}).Where("user_id = ?", userID).Updates(fields))
}

func (r *AskedRepository) CreateQuestion(ctx context.Context, q *model.Asked) error {
	return r.DB.WithContext(ctx).Create(q).Error
}

func (r *AskedRepository) FindQuestion(ctx context.Context, id uint64) (*model.Asked, error) {
	var q model.Asked
	err := r.DB.WithContext(ctx).First(&q, id).Error
	return &q, err
}

// ListQuestions statuses 为空时不过滤状态
func (r *AskedRepository) ListQuestions(ctx context.Context, targetUserID uint64, statuses []string, offset, limit int) ([]model.Asked, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Asked{}).Where("target_user_id = ?", targetUserID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Asked
	err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *AskedRepository) UpdateQuestion(ctx context.Context, id uint64, fields map[string]any) error {
	return NotFound(r.DB.WithContext(ctx).Model(&model.Asked{}).Where("id = ?", id).Updates(fields))
}

func (r *AskedRepository) DeleteQuestion(ctx context.Context, id uint64) error {
	return NotFound(r.DB.WithContext(ctx).Delete(&model.Asked{}, id))
}
