package service

import (
	"context"
	"errors"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ModerationService 管理员审核：在校认证、举报、版块申请，以及管理员账号
type ModerationService struct {
	admins   *mysql.AdminRepository
	verifies *mysql.SchoolVerifyRepository
	reports  *mysql.ReportRepository
	requests *mysql.BoardRequestRepository
	log      *zap.Logger
}

func NewModerationService(db *gorm.DB, log *zap.Logger) *ModerationService {
	return &ModerationService{
		admins:   &mysql.AdminRepository{DB: db},
		verifies: &mysql.SchoolVerifyRepository{DB: db},
		reports:  &mysql.ReportRepository{DB: db},
		requests: &mysql.BoardRequestRepository{DB: db},
		log:      log,
	}
}

// checkStatus 只允许从 pending 处理为 success 或 deny
func checkStatus(status string) error {
	if status != model.StatusSuccess && status != model.StatusDeny {
		return pkg.BadRequest("처리 상태는 success 또는 deny 여야 합니다.")
	}
	return nil
}

func (s *ModerationService) ListVerifies(ctx context.Context, status string, page int) (*model.Page[model.UserSchoolVerify], error) {
	page, offset, size := pageOffset(page, DefaultPageSize)
	list, total, err := s.verifies.List(ctx, status, offset, size)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return &model.Page[model.UserSchoolVerify]{Items: list, Total: total, Page: page}, nil
}

// ProcessVerify 通过时建立或更新用户的学校关联
func (s *ModerationService) ProcessVerify(ctx context.Context, adminID, id uint64, status, message string) (*model.UserSchoolVerify, error) {
	if err := checkStatus(status); err != nil {
		return nil, err
	}
	v, err := s.verifies.Process(ctx, id, status, message, adminID)
	if err != nil {
		return nil, notFoundOr(err, "인증 요청을 찾을 수 없습니다.")
	}
	s.log.Info("verify processed", zap.Uint64("id", id), zap.String("status", status), zap.Uint64("admin_id", adminID))
	return v, nil
}

func (s *ModerationService) ListReports(ctx context.Context, status string, page int) (*model.Page[model.Report], error) {
	page, offset, size := pageOffset(page, DefaultPageSize)
	list, total, err := s.reports.List(ctx, status, offset, size)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return &model.Page[model.Report]{Items: list, Total: total, Page: page}, nil
}

func (s *ModerationService) ProcessReport(ctx context.Context, adminID, id uint64, status, message string) (*model.Report, error) {
	if err := checkStatus(status); err != nil {
		return nil, err
	}
	rp, err := s.reports.Process(ctx, id, status, message, adminID)
	if err != nil {
		return nil, notFoundOr(err, "신고를 찾을 수 없습니다.")
	}
	s.log.Info("report processed", zap.Uint64("id", id), zap.String("status", status), zap.Uint64("admin_id", adminID))
	return rp, nil
}

func (s *ModerationService) ListBoardRequests(ctx context.Context, status string, page int) (*model.Page[model.BoardRequest], error) {
	page, offset, size := pageOffset(page, DefaultPageSize)
	list, total, err := s.requests.List(ctx, status, offset, size)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return &model.Page[model.BoardRequest]{Items: list, Total: total, Page: page}, nil
}

// ProcessBoardRequest 通过时按申请内容建版块
func (s *ModerationService) ProcessBoardRequest(ctx context.Context, adminID, id uint64, status, message string) (*model.BoardRequest, error) {
	if err := checkStatus(status); err != nil {
		return nil, err
	}
	br, err := s.requests.Process(ctx, id, status, message, adminID)
	if err != nil {
		return nil, notFoundOr(err, "게시판 요청을 찾을 수 없습니다.")
	}
	s.log.Info("board request processed", zap.Uint64("id", id), zap.String("status", status), zap.Uint64("admin_id", adminID))
	return br, nil
}

// Admin 中间件按 id 取管理员做权限判断
func (s *ModerationService) Admin(ctx context.Context, id uint64) (*model.Admin, error) {
	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkg.Unauthorized("관리자 인증이 필요합니다.")
		}
		return nil, pkg.Internal(err)
	}
	return admin, nil
}

func (s *ModerationService) ListAdmins(ctx context.Context) ([]model.AdminView, error) {
	list, err := s.admins.List(ctx)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	out := make([]model.AdminView, 0, len(list))
	for i := range list {
		out = append(out, *model.NewAdminView(&list[i]))
	}
	return out, nil
}

func (s *ModerationService) CreateAdmin(ctx context.Context, username, password, name string, permission int64) (*model.AdminView, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	admin := &model.Admin{
		Username:   username,
		Password:   string(hash),
		Name:       name,
		Permission: permission,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if isDuplicate(err) {
			return nil, pkg.Conflict("이미 존재하는 관리자 아이디입니다.")
		}
		return nil, pkg.Internal(err)
	}
	return model.NewAdminView(admin), nil
}

// EnsureSuperAdmin 启动时创建超级管理员；用户名已存在时不做任何修改
func (s *ModerationService) EnsureSuperAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := s.admins.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := s.CreateAdmin(ctx, username, password, username, model.PermSuper); err != nil {
		return err
	}
	s.log.Info("super admin created", zap.String("username", username))
	return nil
}
