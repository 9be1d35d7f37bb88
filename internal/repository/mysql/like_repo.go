package mysql

import (
	"context"
	"errors"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	"gorm.io/gorm"
)

// likeTarget 描述一种可点赞对象：点赞表、外键列和带 like_count 的父表
type likeTarget struct {
	column  string
	newLike func(targetID, userID uint64) any
	parent  func() any
}

var (
	articleLikes = likeTarget{
		column: "article_id",
		newLike: func(t, u uint64) any {
			return &model.ArticleLike{ArticleID: t, UserID: u}
		},
		parent: func() any { return &model.Article{} },
	}
	commentLikes = likeTarget{
		column: "comment_id",
		newLike: func(t, u uint64) any {
			return &model.CommentLike{CommentID: t, UserID: u}
		},
		parent: func() any { return &model.Comment{} },
	}
	reCommentLikes = likeTarget{
		column: "re_comment_id",
		newLike: func(t, u uint64) any {
			return &model.ReCommentLike{ReCommentID: t, UserID: u}
		},
		parent: func() any { return &model.ReComment{} },
	}
)

type LikeRepository struct {
	DB *gorm.DB
}

func (r *LikeRepository) ToggleArticle(ctx context.Context, articleID, userID uint64) (bool, int64, error) {
	return r.toggle(ctx, articleLikes, articleID, userID)
}

func (r *LikeRepository) ToggleComment(ctx context.Context, commentID, userID uint64) (bool, int64, error) {
	return r.toggle(ctx, commentLikes, commentID, userID)
}

func (r *LikeRepository) ToggleReComment(ctx context.Context, reCommentID, userID uint64) (bool, int64, error) {
	return r.toggle(ctx, reCommentLikes, reCommentID, userID)
}

// toggle 已点赞则取消，否则点赞；点赞记录和 like_count 在同一事务里变更
func (r *LikeRepository) toggle(ctx context.Context, t likeTarget, targetID, userID uint64) (bool, int64, error) {
	var liked bool
	var counts []int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where(t.column+" = ? AND user_id = ?", targetID, userID).Delete(t.newLike(0, 0))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			if err := tx.Model(t.parent()).Where("id = ?", targetID).
				UpdateColumn("like_count", gorm.Expr("CASE WHEN like_count > 0 THEN like_count - 1 ELSE 0 END")).Error; err != nil {
				return err
			}
		} else {
			err := tx.Create(t.newLike(targetID, userID)).Error
			switch {
			case errors.Is(err, gorm.ErrDuplicatedKey):
				// 并发的同一点赞已写入并计数，结果同样是已点赞
			case err != nil:
				return err
			default:
				if err := tx.Model(t.parent()).Where("id = ?", targetID).
					UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
					return err
				}
			}
			liked = true
		}
		if err := tx.Model(t.parent()).Where("id = ?", targetID).Pluck("like_count", &counts).Error; err != nil {
			return err
		}
		// 目标不存在时回滚刚写入的点赞记录
		if len(counts) == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return liked, counts[0], nil
}

func (r *LikeRepository) LikedArticles(ctx context.Context, userID uint64, articleIDs []uint64) (map[uint64]bool, error) {
	out := map[uint64]bool{}
	if userID == 0 || len(articleIDs) == 0 {
		return out, nil
	}
	var ids []uint64
	if err := r.DB.WithContext(ctx).Model(&model.ArticleLike{}).
		Where("user_id = ? AND article_id IN ?", userID, articleIDs).
		Pluck("article_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
