package model

import "time"

type AskedUser struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	UserID        uint64    `gorm:"not null;uniqueIndex" json:"userId"`
	CustomID      string    `gorm:"size:32;not null;uniqueIndex" json:"customId"`
	StatusMessage string    `gorm:"size:255" json:"statusMessage"`
	Tags          string    `gorm:"size:255" json:"tags"` // 逗号分隔
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Asked 提问，状态 pending -> success(已回答) / deny(拒绝)
type Asked struct {
	ID             uint64     `gorm:"primaryKey" json:"id"`
	TargetUserID   uint64     `gorm:"not null;index" json:"targetUserId"`
	QuestionUserID uint64     `gorm:"not null;index" json:"questionUserId"`
	Question       string     `gorm:"type:text;not null" json:"question"`
	Answer         string     `gorm:"type:text" json:"answer"`
	IsAnonymous    bool       `gorm:"not null" json:"isAnonymous"`
	Status         string     `gorm:"size:16;not null;default:pending;index" json:"status"`
	AnsweredAt     *time.Time `json:"answeredAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (Asked) TableName() string { return "asked" }
