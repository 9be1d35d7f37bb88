package model

import "time"

// School NEIS 学校信息的本地缓存，按 (org_code, school_code) 去重
type School struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	OrgCode    string    `gorm:"size:16;not null;uniqueIndex:uk_school_code" json:"orgCode"`
	SchoolCode string    `gorm:"size:16;not null;uniqueIndex:uk_school_code" json:"schoolCode"`
	Name       string    `gorm:"size:64;not null;index" json:"name"`
	Kind       string    `gorm:"size:32" json:"kind"`
	Address    string    `gorm:"size:255" json:"address"`
	Homepage   string    `gorm:"size:255" json:"homepage"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UserSchool 审核通过后的在校信息，每个用户一条
type UserSchool struct {
	ID        uint64 `gorm:"primaryKey"`
	UserID    uint64 `gorm:"not null;uniqueIndex"`
	SchoolID  uint64 `gorm:"not null;index"`
	Grade     int    `gorm:"not null"`
	Class     string `gorm:"size:8"`
	Dept      string `gorm:"size:32"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserSchoolVerify struct {
	ID        uint64 `gorm:"primaryKey"`
	UserID    uint64 `gorm:"not null;index"`
	SchoolID  uint64 `gorm:"not null"`
	Grade     int    `gorm:"not null"`
	Class     string `gorm:"size:8"`
	Dept      string `gorm:"size:32"`
	ImageID   uint64 `gorm:"not null"`
	Status    string `gorm:"size:16;not null;default:pending;index"`
	Message   string `gorm:"size:255"`
	AdminID   uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}
