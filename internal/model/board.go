package model

import "time"

// Board SchoolID 为空表示全站公共版块
type Board struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	SchoolID    *uint64   `gorm:"index" json:"schoolId"`
	Name        string    `gorm:"size:64;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type BoardRequest struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	UserID      uint64    `gorm:"not null;index" json:"userId"`
	SchoolID    *uint64   `gorm:"index" json:"schoolId"`
	Name        string    `gorm:"size:64;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	Status      string    `gorm:"size:16;not null;default:pending;index" json:"status"`
	Message     string    `gorm:"size:255" json:"message"`
	AdminID     uint64    `json:"adminId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Article struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	BoardID      uint64    `gorm:"not null;index:idx_board_time,priority:1" json:"boardId"`
	SchoolID     *uint64   `gorm:"index" json:"schoolId"`
	UserID       uint64    `gorm:"not null;index" json:"userId"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Content      string    `gorm:"type:text" json:"content"`
	Images       string    `gorm:"size:1024" json:"images"` // 逗号分隔的图片 URL
	IsAnonymous  bool      `gorm:"not null;default:false" json:"isAnonymous"`
	Views        int64     `gorm:"not null;default:0" json:"views"`
	LikeCount    int64     `gorm:"not null;default:0" json:"likeCount"`
	CommentCount int64     `gorm:"not null;default:0" json:"commentCount"`
	CreatedAt    time.Time `gorm:"index:idx_board_time,priority:2" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Comment struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	ArticleID   uint64    `gorm:"not null;index" json:"articleId"`
	UserID      uint64    `gorm:"not null;index" json:"userId"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	IsAnonymous bool      `gorm:"not null;default:false" json:"isAnonymous"`
	LikeCount   int64     `gorm:"not null;default:0" json:"likeCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ReComment struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	CommentID   uint64    `gorm:"not null;index" json:"commentId"`
	ArticleID   uint64    `gorm:"not null;index" json:"articleId"`
	UserID      uint64    `gorm:"not null;index" json:"userId"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	IsAnonymous bool      `gorm:"not null;default:false" json:"isAnonymous"`
	LikeCount   int64     `gorm:"not null;default:0" json:"likeCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
