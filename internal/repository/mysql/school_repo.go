package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	"gorm.io/gorm"
)

type SchoolRepository struct {
	DB *gorm.DB
}

func (r *SchoolRepository) FindByID(ctx context.Context, id uint64) (*model.School, error) {
	var s model.School
	err := r.DB.WithContext(ctx).First(&s, id).Error
	return &s, err
}

func (r *SchoolRepository) FindByCode(ctx context.Context, orgCode, schoolCode string) (*model.School, error) {
	var s model.School
	err := r.DB.WithContext(ctx).Where("org_code = ? AND school_code = ?", orgCode, schoolCode).First(&s).Error
	return &s, err
}

// Upsert NEIS 结果写入本地缓存；坐标为 0 时不覆盖已有坐标
func (r *SchoolRepository) Upsert(ctx context.Context, s *model.School) error {
	old, err := r.FindByCode(ctx, s.OrgCode, s.SchoolCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.DB.WithContext(ctx).Create(s).Error
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		// 并发写入，回读
		if old, err = r.FindByCode(ctx, s.OrgCode, s.SchoolCode); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	fields := map[string]any{
		"name":     s.Name,
		"kind":     s.Kind,
		"address":  s.Address,
		"homepage": s.Homepage,
	}
	if s.Lat != 0 || s.Lng != 0 {
		fields["lat"] = s.Lat
		fields["lng"] = s.Lng
	} else {
		s.Lat, s.Lng = old.Lat, old.Lng
	}
	if err := r.DB.WithContext(ctx).Model(&model.School{}).Where("id = ?", old.ID).Updates(fields).Error; err != nil {
		return fmt.Errorf("update school %d: %w", old.ID, err)
	}
	s.ID = old.ID
	s.CreatedAt = old.CreatedAt
	return nil
}

type UserSchoolRepository struct {
	DB *gorm.DB
}

func (r *UserSchoolRepository) FindByUser(ctx context.Context, userID uint64) (*model.UserSchool, error) {
	var us model.UserSchool
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&us).Error
	return &us, err
}

type SchoolVerifyRepository struct {
	DB *gorm.DB
}

func (r *SchoolVerifyRepository) HasPending(ctx context.Context, userID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.UserSchoolVerify{}).
		Where("user_id = ? AND status = ?", userID, model.StatusPending).
		Count(&n).Error
	return n > 0, err
}

// Create 写入认证请求，同一事务内写 moderation 事件
func (r *SchoolVerifyRepository) Create(ctx context.Context, v *model.UserSchoolVerify) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(v).Error; err != nil {
			return err
		}
		return InsertOutbox(tx, model.EventModerationCreated, v.ID, model.ModerationEvent{
			Kind:     model.ModerationVerify,
			TargetID: v.ID,
			UserID:   v.UserID,
			Summary:  fmt.Sprintf("school=%d grade=%d class=%s", v.SchoolID, v.Grade, v.Class),
		})
	})
}

func (r *SchoolVerifyRepository) ListByUser(ctx context.Context, userID uint64) ([]model.UserSchoolVerify, error) {
	var list []model.UserSchoolVerify
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&list).Error
	return list, err
}

func (r *SchoolVerifyRepository) List(ctx context.Context, status string, offset, limit int) ([]model.UserSchoolVerify, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.UserSchoolVerify{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.UserSchoolVerify
	err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

// Process 审核：先确认存在再单条更新，后写者覆盖；通过时写入/覆盖 UserSchool
func (r *SchoolVerifyRepository) Process(ctx context.Context, id uint64, status, message string, adminID uint64) (*model.UserSchoolVerify, error) {
	var v model.UserSchoolVerify
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&v, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&v).Updates(map[string]any{
			"status":   status,
			"message":  message,
			"admin_id": adminID,
		}).Error; err != nil {
			return err
		}
		v.Status, v.Message, v.AdminID = status, message, adminID
		if status != model.StatusSuccess {
			return nil
		}
		var us model.UserSchool
		err := tx.Where("user_id = ?", v.UserID).First(&us).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&model.UserSchool{
				UserID:   v.UserID,
				SchoolID: v.SchoolID,
				Grade:    v.Grade,
				Class:    v.Class,
				Dept:     v.Dept,
			}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&us).Updates(map[string]any{
			"school_id": v.SchoolID,
			"grade":     v.Grade,
			"class":     v.Class,
			"dept":      v.Dept,
		}).Error
	})
	return &v, err
}
