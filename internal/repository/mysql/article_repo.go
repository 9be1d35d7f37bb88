package mysql

import (
	"context"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	"gorm.io/gorm"
)

type ArticleRepository struct {
	DB *gorm.DB
}

func (r *ArticleRepository) Create(ctx context.Context, a *model.Article) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *ArticleRepository) FindByID(ctx context.Context, id uint64) (*model.Article, error) {
	var a model.Article
	err := r.DB.WithContext(ctx).First(&a, id).Error
	return &a, err
}

// ListByBoard 基础分页查询，索引 (board_id, created_at)
func (r *ArticleRepository) ListByBoard(ctx context.Context, boardID uint64, offset, limit int) ([]model.Article, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Article{}).Where("board_id = ?", boardID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Article
	err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

// IncrViews 单条语句自增，并发下依赖数据库行级原子性
func (r *ArticleRepository) IncrViews(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.Article{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

func (r *ArticleRepository) Update(ctx context.Context, id uint64, fields map[string]any) error {
	return NotFound(r.DB.WithContext(ctx).Model(&model.Article{}).Where("id = ?", id).Updates(fields))
}

// Delete 连同评论、回复和点赞一起删除
func (r *ArticleRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&model.Comment{}).Select("id").Where("article_id = ?", id)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&model.CommentLike{}).Error; err != nil {
			return err
		}
		reIDs := tx.Model(&model.ReComment{}).Select("id").Where("article_id = ?", id)
		if err := tx.Where("re_comment_id IN (?)", reIDs).Delete(&model.ReCommentLike{}).Error; err != nil {
			return err
		}
		for _, m := range []any{&model.ReComment{}, &model.Comment{}, &model.ArticleLike{}} {
			if err := tx.Where("article_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return NotFound(tx.Delete(&model.Article{}, id))
	})
}

// Hot 某校最近一段时间点赞最多的帖子
func (r *ArticleRepository) Hot(ctx context.Context, schoolID uint64, since time.Time, limit int) ([]model.Article, error) {
	var list []model.Article
	err := r.DB.WithContext(ctx).
		Where("school_id = ? AND created_at >= ? AND like_count > 0", schoolID, since).
		Order("like_count DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
