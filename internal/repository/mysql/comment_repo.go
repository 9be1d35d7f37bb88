package mysql

import (
	"context"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	"gorm.io/gorm"
)

type CommentRepository struct {
	DB *gorm.DB
}

// Create 写评论并维护帖子评论数
func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Model(&model.Article{}).Where("id = ?", c.ArticleID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
}

func (r *CommentRepository) FindByID(ctx context.Context, id uint64) (*model.Comment, error) {
	var c model.Comment
	err := r.DB.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *CommentRepository) ListByArticle(ctx context.Context, articleID uint64, offset, limit int) ([]model.Comment, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Comment{}).Where("article_id = ?", articleID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Comment
	err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

// ReCommentsOf 一次查出多条评论下的全部回复
func (r *CommentRepository) ReCommentsOf(ctx context.Context, commentIDs []uint64) ([]model.ReComment, error) {
	var list []model.ReComment
	if len(commentIDs) == 0 {
		return list, nil
	}
	err := r.DB.WithContext(ctx).Where("comment_id IN ?", commentIDs).Order("id ASC").Find(&list).Error
	return list, err
}

// Delete 删除评论及其回复，帖子评论数按实际删除条数扣减
func (r *CommentRepository) Delete(ctx context.Context, c *model.Comment) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reIDs := tx.Model(&model.ReComment{}).Select("id").Where("comment_id = ?", c.ID)
		if err := tx.Where("re_comment_id IN (?)", reIDs).Delete(&model.ReCommentLike{}).Error; err != nil {
			return err
		}
		res := tx.Where("comment_id = ?", c.ID).Delete(&model.ReComment{})
		if res.Error != nil {
			return res.Error
		}
		removed := res.RowsAffected + 1
		if err := tx.Where("comment_id = ?", c.ID).Delete(&model.CommentLike{}).Error; err != nil {
			return err
		}
		if err := NotFound(tx.Delete(&model.Comment{}, c.ID)); err != nil {
			return err
		}
		return decrCommentCount(tx, c.ArticleID, removed)
	})
}

func (r *CommentRepository) CreateReComment(ctx context.Context, rc *model.ReComment) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rc).Error; err != nil {
			return err
		}
		return tx.Model(&model.Article{}).Where("id = ?", rc.ArticleID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
}

func (r *CommentRepository) FindReComment(ctx context.Context, id uint64) (*model.ReComment, error) {
	var rc model.ReComment
	err := r.DB.WithContext(ctx).First(&rc, id).Error
	return &rc, err
}

func (r *CommentRepository) DeleteReComment(ctx context.Context, rc *model.ReComment) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("re_comment_id = ?", rc.ID).Delete(&model.ReCommentLike{}).Error; err != nil {
			return err
		}
		if err := NotFound(tx.Delete(&model.ReComment{}, rc.ID)); err != nil {
			return err
		}
		return decrCommentCount(tx, rc.ArticleID, 1)
	})
}

// 计数防负数
func decrCommentCount(tx *gorm.DB, articleID uint64, n int64) error {
	return tx.Model(&model.Article{}).Where("id = ?", articleID).
		UpdateColumn("comment_count", gorm.Expr("CASE WHEN comment_count > ? THEN comment_count - ? ELSE 0 END", n, n)).Error
}
