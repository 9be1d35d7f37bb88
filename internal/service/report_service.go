package service

import (
	"context"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"

	"gorm.io/gorm"
)

var reportTypes = map[string]bool{
	mysql.TargetArticle:   true,
	mysql.TargetComment:   true,
	mysql.TargetReComment: true,
	mysql.TargetUser:      true,
	mysql.TargetAsked:     true,
}

type ReportService struct {
	reports *mysql.ReportRepository
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{reports: &mysql.ReportRepository{DB: db}}
}

func (s *ReportService) Create(ctx context.Context, userID uint64, targetType string, targetID uint64, message string) (*model.Report, error) {
	if !reportTypes[targetType] {
		return nil, pkg.BadRequest("신고 대상 유형이 올바르지 않습니다.")
	}
	ok, err := s.reports.TargetExists(ctx, targetType, targetID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	if !ok {
		return nil, pkg.NotFound("신고 대상을 찾을 수 없습니다.")
	}
	rp := &model.Report{
		UserID:     userID,
		TargetType: targetType,
		TargetID:   targetID,
		Message:    message,
		Status:     model.StatusPending,
	}
	if err := s.reports.Create(ctx, rp); err != nil {
		return nil, pkg.Internal(err)
	}
	return rp, nil
}
