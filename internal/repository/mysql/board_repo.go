package mysql

import (
	"context"
	"fmt"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	"gorm.io/gorm"
)

type BoardRepository struct {
	DB *gorm.DB
}

// ListForSchool 本校版块 + 公共版块；schoolID 为 0 时只有公共版块
func (r *BoardRepository) ListForSchool(ctx context.Context, schoolID uint64) ([]model.Board, error) {
	var list []model.Board
	q := r.DB.WithContext(ctx)
	if schoolID > 0 {
		q = q.Where("school_id IS NULL OR school_id = ?", schoolID)
	} else {
		q = q.Where("school_id IS NULL")
	}
	err := q.Order("id ASC").Find(&list).Error
	return list, err
}

func (r *BoardRepository) FindByID(ctx context.Context, id uint64) (*model.Board, error) {
	var b model.Board
	err := r.DB.WithContext(ctx).First(&b, id).Error
	return &b, err
}

func (r *BoardRepository) Create(ctx context.Context, b *model.Board) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

type BoardRequestRepository struct {
	DB *gorm.DB
}

func (r *BoardRequestRepository) Create(ctx context.Context, br *model.BoardRequest) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(br).Error; err != nil {
			return err
		}
		return InsertOutbox(tx, model.EventModerationCreated, br.ID, model.ModerationEvent{
			Kind:     model.ModerationBoardRequest,
			TargetID: br.ID,
			UserID:   br.UserID,
			Summary:  fmt.Sprintf("board=%s", br.Name),
		})
	})
}

func (r *BoardRequestRepository) ListByUser(ctx context.Context, userID uint64) ([]model.BoardRequest, error) {
	var list []model.BoardRequest
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&list).Error
	return list, err
}

func (r *BoardRequestRepository) List(ctx context.Context, status string, offset, limit int) ([]model.BoardRequest, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.BoardRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.BoardRequest
	err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

// Process 通过时按申请内容建版块
func (r *BoardRequestRepository) Process(ctx context.Context, id uint64, status, message string, adminID uint64) (*model.BoardRequest, error) {
	var br model.BoardRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&br, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&br).Updates(map[string]any{
			"status":   status,
			"message":  message,
			"admin_id": adminID,
		}).Error; err != nil {
			return err
		}
		br.Status, br.Message, br.AdminID = status, message, adminID
		if status != model.StatusSuccess {
			return nil
		}
		return tx.Create(&model.Board{
			SchoolID:    br.SchoolID,
			Name:        br.Name,
			Description: br.Description,
		}).Error
	})
	return &br, err
}
