package model

import "time"

const (
	ProviderID              = "id"
	ProviderKakao           = "kakao"
	ProviderGoogle          = "google"
	ProviderApple           = "apple"
	ProviderInstagram       = "instagram"
	ProviderLeagueOfLegends = "leagueoflegends"
)

type User struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	Phone        *string   `gorm:"uniqueIndex;size:16" json:"phone"`
	Password     string    `gorm:"size:255" json:"-"`
	Name         string    `gorm:"size:32;not null" json:"name"`
	Provider     string    `gorm:"size:16;not null;default:id" json:"provider"`
	ProfileImage string    `gorm:"size:255" json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SocialLogin 登录用第三方身份，一个 (provider, social_id) 只对应一个用户
type SocialLogin struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	Provider     string    `gorm:"size:16;not null;uniqueIndex:uk_provider_social" json:"provider"`
	SocialID     string    `gorm:"size:128;not null;uniqueIndex:uk_provider_social" json:"socialId"`
	UserID       uint64    `gorm:"not null;index" json:"userId"`
	Name         string    `gorm:"size:64" json:"name"`
	Email        string    `gorm:"size:128" json:"email"`
	AccessToken  string    `gorm:"size:1024" json:"-"`
	RefreshToken string    `gorm:"size:1024" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ConnectionAccount 绑定的外部账号（fight 报名资格 + 分数来源）
type ConnectionAccount struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	UserID        uint64    `gorm:"not null;uniqueIndex:uk_user_provider" json:"userId"`
	Provider      string    `gorm:"size:32;not null;uniqueIndex:uk_user_provider;uniqueIndex:uk_provider_account" json:"provider"`
	AccountID     string    `gorm:"size:128;not null;uniqueIndex:uk_provider_account" json:"accountId"`
	Name          string    `gorm:"size:64" json:"name"`
	FollowerCount int64     `gorm:"not null;default:0" json:"followerCount"`
	AccessToken   string    `gorm:"size:1024" json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PhoneVerifyRequest ID 即客户端拿到的 token
type PhoneVerifyRequest struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Phone     string    `gorm:"size:16;not null;index" json:"phone"`
	Code      string    `gorm:"size:8;not null" json:"code"`
	Verified  bool      `gorm:"not null;default:false" json:"verified"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
