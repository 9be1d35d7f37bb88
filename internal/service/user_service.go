package service

import (
	"context"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	users *mysql.UserRepository
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{users: &mysql.UserRepository{DB: db}}
}

func (s *UserService) Me(ctx context.Context, userID uint64) (*model.UserView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound)
	}
	return model.NewUserView(user), nil
}

// Get 公开资料，不含手机号
func (s *UserService) Get(ctx context.Context, userID uint64) (*model.UserView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound)
	}
	return model.NewPublicUserView(user), nil
}

func (s *UserService) UpdateName(ctx context.Context, userID uint64, name string) (*model.UserView, error) {
	if err := s.users.Update(ctx, userID, map[string]any{"name": name}); err != nil {
		return nil, notFoundOr(err, msgUserNotFound)
	}
	return s.Me(ctx, userID)
}

// ChangePassword 校验旧密码；第三方注册的用户没有密码
func (s *UserService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, msgUserNotFound)
	}
	if user.Password == "" {
		return pkg.BadRequest("비밀번호로 가입한 계정이 아닙니다.")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return pkg.BadRequest("현재 비밀번호가 일치하지 않습니다.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return pkg.Internal(err)
	}
	return pkg.Internal(s.users.UpdatePassword(ctx, userID, string(hash)))
}

func (s *UserService) Delete(ctx context.Context, userID uint64) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return notFoundOr(err, msgUserNotFound)
	}
	return nil
}
