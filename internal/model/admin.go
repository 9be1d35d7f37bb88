package model

import "time"

// 管理员权限位
const (
	PermVerify int64 = 1 << iota
	PermReport
	PermBoard
	PermAd
	PermSuper int64 = 1 << 30
)

type Admin struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	Password   string    `gorm:"size:255;not null" json:"-"`
	Name       string    `gorm:"size:32" json:"name"`
	Permission int64     `gorm:"not null;default:0" json:"permission"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Can super 拥有全部权限
func (a *Admin) Can(perm int64) bool {
	return a.Permission&PermSuper != 0 || a.Permission&perm == perm
}

// 审核状态
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusDeny    = "deny"
)

type Report struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	UserID     uint64    `gorm:"not null;index" json:"userId"`
	TargetType string    `gorm:"size:16;not null;index:idx_report_target" json:"targetType"`
	TargetID   uint64    `gorm:"not null;index:idx_report_target" json:"targetId"`
	Message    string    `gorm:"type:text" json:"message"`
	Status     string    `gorm:"size:16;not null;default:pending;index" json:"status"`
	Reply      string    `gorm:"size:255" json:"reply"`
	AdminID    uint64    `json:"adminId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Ad struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	ImageURL  string    `gorm:"size:255;not null" json:"imageUrl"`
	Link      string    `gorm:"size:255" json:"link"`
	StartAt   time.Time `gorm:"index" json:"startAt"`
	EndAt     time.Time `gorm:"index" json:"endAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Image struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	UserID      uint64    `gorm:"not null;index" json:"userId"`
	Category    string    `gorm:"size:16;not null" json:"category"`
	Key         string    `gorm:"size:255;not null;uniqueIndex" json:"key"`
	URL         string    `gorm:"size:512;not null" json:"url"`
	ContentType string    `gorm:"size:64" json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}
