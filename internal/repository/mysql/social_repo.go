package mysql

import (
	"context"
	"errors"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	"gorm.io/gorm"
)

type SocialLoginRepository struct {
	DB *gorm.DB
}

func (r *SocialLoginRepository) Find(ctx context.Context, provider, socialID string) (*model.SocialLogin, error) {
	var sl model.SocialLogin
	err := r.DB.WithContext(ctx).Where("provider = ? AND social_id = ?", provider, socialID).First(&sl).Error
	return &sl, err
}

func (r *SocialLoginRepository) FindByID(ctx context.Context, id uint64) (*model.SocialLogin, error) {
	var sl model.SocialLogin
	err := r.DB.WithContext(ctx).First(&sl, id).Error
	return &sl, err
}

// CreateWithUser 首次第三方登录：用户和第三方身份一起写入
func (r *SocialLoginRepository) CreateWithUser(ctx context.Context, sl *model.SocialLogin, user *model.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		sl.UserID = user.ID
		return tx.Create(sl).Error
	})
}

// UpdateProfile 回访登录时刷新第三方资料和令牌
func (r *SocialLoginRepository) UpdateProfile(ctx context.Context, id uint64, name, email, accessToken, refreshToken string) error {
	return r.DB.WithContext(ctx).Model(&model.SocialLogin{}).Where("id = ?", id).
		Updates(map[string]any{
			"name":          name,
			"email":         email,
			"access_token":  accessToken,
			"refresh_token": refreshToken,
		}).Error
}

type ConnectionRepository struct {
	DB *gorm.DB
}

func (r *ConnectionRepository) FindByUser(ctx context.Context, userID uint64, provider string) (*model.ConnectionAccount, error) {
	var ca model.ConnectionAccount
	err := r.DB.WithContext(ctx).Where("user_id = ? AND provider = ?", userID, provider).First(&ca).Error
	return &ca, err
}

func (r *ConnectionRepository) FindByAccount(ctx context.Context, provider, accountID string) (*model.ConnectionAccount, error) {
	var ca model.ConnectionAccount
	err := r.DB.WithContext(ctx).Where("provider = ? AND account_id = ?", provider, accountID).First(&ca).Error
	return &ca, err
}

func (r *ConnectionRepository) ListByUser(ctx context.Context, userID uint64) ([]model.ConnectionAccount, error) {
	var list []model.ConnectionAccount
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&list).Error
	return list, err
}

// Save 同一用户同一 provider 只保留一条，已存在则覆盖账号信息
func (r *ConnectionRepository) Save(ctx context.Context, ca *model.ConnectionAccount) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old model.ConnectionAccount
		err := tx.Where("user_id = ? AND provider = ?", ca.UserID, ca.Provider).First(&old).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(ca).Error
		}
		if err != nil {
			return err
		}
		ca.ID = old.ID
		ca.CreatedAt = old.CreatedAt
		if err := tx.Model(&old).Updates(map[string]any{
			"account_id":     ca.AccountID,
			"name":           ca.Name,
			"follower_count": ca.FollowerCount,
			"access_token":   ca.AccessToken,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&model.FightRankingUser{}).Where("connection_account_id = ?", old.ID).
			Update("score", ca.FollowerCount).Error
	})
}

func (r *ConnectionRepository) Delete(ctx context.Context, userID uint64, provider string) error {
	return NotFound(r.DB.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&model.ConnectionAccount{}))
}

// ScanBatch 按 id 游标分批遍历某个 provider 的绑定账号
func (r *ConnectionRepository) ScanBatch(ctx context.Context, provider string, lastID uint64, batchSize int) ([]model.ConnectionAccount, uint64, error) {
	var list []model.ConnectionAccount
	if err := r.DB.WithContext(ctx).
		Where("provider = ? AND id > ?", provider, lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

// UpdateScore 更新粉丝数，并同步到所有报名记录
func (r *ConnectionRepository) UpdateScore(ctx context.Context, id uint64, followerCount int64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ConnectionAccount{}).Where("id = ?", id).
			UpdateColumn("follower_count", followerCount).Error; err != nil {
			return err
		}
		return tx.Model(&model.FightRankingUser{}).Where("connection_account_id = ?", id).
			UpdateColumn("score", followerCount).Error
	})
}

type PhoneVerifyRepository struct {
	DB *gorm.DB
}

func (r *PhoneVerifyRepository) Create(ctx context.Context, req *model.PhoneVerifyRequest) error {
	return r.DB.WithContext(ctx).Create(req).Error
}

func (r *PhoneVerifyRepository) FindByID(ctx context.Context, id string) (*model.PhoneVerifyRequest, error) {
	var req model.PhoneVerifyRequest
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&req).Error
	return &req, err
}

func (r *PhoneVerifyRepository) MarkVerified(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&model.PhoneVerifyRequest{}).Where("id = ?", id).
		Update("verified", true).Error
}

// Delete 验证码使用一次后作废
func (r *PhoneVerifyRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.PhoneVerifyRequest{}).Error
}
