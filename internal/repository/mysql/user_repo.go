package mysql

import (
	"context"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("phone = ?", phone).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.User, error) {
	out := make(map[uint64]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []model.User
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, id uint64, fields map[string]any) error {
	return NotFound(r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	return r.Update(ctx, id, map[string]any{"password": hash})
}

// Delete 注销账号，连带删除第三方身份、绑定账号和在校信息
func (r *UserRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{
			&model.SocialLogin{},
			&model.ConnectionAccount{},
			&model.UserSchool{},
			&model.FightRankingUser{},
			&model.AskedUser{},
		} {
			if err := tx.Where("user_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return NotFound(tx.Delete(&model.User{}, id))
	})
}

type AdminRepository struct {
	DB *gorm.DB
}

func (r *AdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	return r.DB.WithContext(ctx).Create(admin).Error
}

func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var admin model.Admin
	err := r.DB.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	return &admin, err
}

func (r *AdminRepository) FindByID(ctx context.Context, id uint64) (*model.Admin, error) {
	var admin model.Admin
	err := r.DB.WithContext(ctx).First(&admin, id).Error
	return &admin, err
}

func (r *AdminRepository) List(ctx context.Context) ([]model.Admin, error) {
	var list []model.Admin
	err := r.DB.WithContext(ctx).Order("id ASC").Find(&list).Error
	return list, err
}
