package mysql

import (
	"context"
	"fmt"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	"gorm.io/gorm"
)

// 可举报对象
const (
	TargetArticle   = "article"
	TargetComment   = "comment"
	TargetReComment = "recomment"
	TargetUser      = "user"
	TargetAsked     = "asked"
)

var reportTargets = map[string]any{
	TargetArticle:   &model.Article{},
	TargetComment:   &model.Comment{},
	TargetReComment: &model.ReComment{},
	TargetUser:      &model.User{},
	TargetAsked:     &model.Asked{},
}

type ReportRepository struct {
	DB *gorm.DB
}

// TargetExists 未知类型返回 false
func (r *ReportRepository) TargetExists(ctx context.Context, targetType string, id uint64) (bool, error) {
	m, ok := reportTargets[targetType]
	if !ok {
		return false, nil
	}
	var n int64
	err := r.DB.WithContext(ctx).Model(m).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *ReportRepository) Create(ctx context.Context, rp *model.Report) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rp).Error; err != nil {
			return err
		}
		return InsertOutbox(tx, model.EventModerationCreated, rp.ID, model.ModerationEvent{
			Kind:     model.ModerationReport,
			TargetID: rp.ID,
			UserID:   rp.UserID,
			Summary:  fmt.Sprintf("%s #%d: %s", rp.TargetType, rp.TargetID, rp.Message),
		})
	})
}

func (r *ReportRepository) List(ctx context.Context, status string, offset, limit int) ([]model.Report, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Report{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Report
	err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *ReportRepository) Process(ctx context.Context, id uint64, status, message string, adminID uint64) (*model.Report, error) {
	var rp model.Report
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rp, id).Error; err != nil {
			return err
		}
		rp.Status, rp.Reply, rp.AdminID = status, message, adminID
		return tx.Model(&model.Report{}).Where("id = ?", id).Updates(map[string]any{
			"status":   status,
			"reply":    message,
			"admin_id": adminID,
		}).Error
	})
	return &rp, err
}
