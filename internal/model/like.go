package model

import "time"

// 点赞记录，唯一(target, user) 保证幂等
type ArticleLike struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ArticleID uint64    `gorm:"not null;uniqueIndex:uk_article_user" json:"articleId"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uk_article_user;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type CommentLike struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CommentID uint64    `gorm:"not null;uniqueIndex:uk_comment_user" json:"commentId"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uk_comment_user;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReCommentLike struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ReCommentID uint64    `gorm:"not null;uniqueIndex:uk_recomment_user" json:"reCommentId"`
	UserID      uint64    `gorm:"not null;uniqueIndex:uk_recomment_user;index" json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}
