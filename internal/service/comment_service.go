package service

import (
	"context"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"

	"gorm.io/gorm"
)

const (
	msgCommentNotFound   = "댓글을 찾을 수 없습니다."
	msgReCommentNotFound = "답글을 찾을 수 없습니다."
)

type CommentService struct {
	boards   *BoardService
	comments *mysql.CommentRepository
	likes    *mysql.LikeRepository
	users    *mysql.UserRepository
}

func NewCommentService(db *gorm.DB, boards *BoardService) *CommentService {
	return &CommentService{
		boards:   boards,
		comments: &mysql.CommentRepository{DB: db},
		likes:    &mysql.LikeRepository{DB: db},
		users:    &mysql.UserRepository{DB: db},
	}
}

type CommentInput struct {
	Content     string
	IsAnonymous bool
}

func (s *CommentService) Create(ctx context.Context, userID, articleID uint64, in CommentInput) (*model.CommentView, error) {
	if _, err := s.boards.Article(ctx, userID, articleID); err != nil {
		return nil, err
	}
	c := &model.Comment{
		ArticleID:   articleID,
		UserID:      userID,
		Content:     in.Content,
		IsAnonymous: in.IsAnonymous,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, pkg.Internal(err)
	}
	author, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound)
	}
	return commentView(c, author, userID, []model.ReCommentView{}), nil
}

// List 评论分页，每条评论带全部回复
func (s *CommentService) List(ctx context.Context, viewerID, articleID uint64, page int) (*model.Page[model.CommentView], error) {
	if _, err := s.boards.Article(ctx, viewerID, articleID); err != nil {
		return nil, err
	}
	page, offset, size := pageOffset(page, DefaultPageSize)
	list, total, err := s.comments.ListByArticle(ctx, articleID, offset, size)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	ids := make([]uint64, 0, len(list))
	userIDs := make([]uint64, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
		userIDs = append(userIDs, c.UserID)
	}
	replies, err := s.comments.ReCommentsOf(ctx, ids)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	for _, rc := range replies {
		userIDs = append(userIDs, rc.UserID)
	}
	authors, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	grouped := map[uint64][]model.ReCommentView{}
	for i := range replies {
		rc := &replies[i]
		grouped[rc.CommentID] = append(grouped[rc.CommentID], *reCommentView(rc, authors[rc.UserID], viewerID))
	}
	items := make([]model.CommentView, 0, len(list))
	for i := range list {
		c := &list[i]
		rcs := grouped[c.ID]
		if rcs == nil {
			rcs = []model.ReCommentView{}
		}
		items = append(items, *commentView(c, authors[c.UserID], viewerID, rcs))
	}
	return &model.Page[model.CommentView]{Items: items, Total: total, Page: page}, nil
}

func (s *CommentService) Delete(ctx context.Context, userID, id uint64) error {
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, msgCommentNotFound)
	}
	if c.UserID != userID {
		return pkg.Forbidden("본인이 작성한 댓글만 삭제할 수 있습니다.")
	}
	if err := s.comments.Delete(ctx, c); err != nil {
		return notFoundOr(err, msgCommentNotFound)
	}
	return nil
}

func (s *CommentService) ToggleLike(ctx context.Context, userID, id uint64) (*model.LikeView, error) {
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, msgCommentNotFound)
	}
	if _, err := s.boards.Article(ctx, userID, c.ArticleID); err != nil {
		return nil, err
	}
	liked, count, err := s.likes.ToggleComment(ctx, id, userID)
	if err != nil {
		return nil, notFoundOr(err, msgCommentNotFound)
	}
	return &model.LikeView{Liked: liked, LikeCount: count}, nil
}

func (s *CommentService) CreateReComment(ctx context.Context, userID, commentID uint64, in CommentInput) (*model.ReCommentView, error) {
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, notFoundOr(err, msgCommentNotFound)
	}
	if _, err := s.boards.Article(ctx, userID, c.ArticleID); err != nil {
		return nil, err
	}
	rc := &model.ReComment{
		CommentID:   c.ID,
		ArticleID:   c.ArticleID,
		UserID:      userID,
		Content:     in.Content,
		IsAnonymous: in.IsAnonymous,
	}
	if err := s.comments.CreateReComment(ctx, rc); err != nil {
		return nil, pkg.Internal(err)
	}
	author, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound)
	}
	return reCommentView(rc, author, userID), nil
}

func (s *CommentService) DeleteReComment(ctx context.Context, userID, id uint64) error {
	rc, err := s.comments.FindReComment(ctx, id)
	if err != nil {
		return notFoundOr(err, msgReCommentNotFound)
	}
	if rc.UserID != userID {
		return pkg.Forbidden("본인이 작성한 답글만 삭제할 수 있습니다.")
	}
	if err := s.comments.DeleteReComment(ctx, rc); err != nil {
		return notFoundOr(err, msgReCommentNotFound)
	}
	return nil
}

func (s *CommentService) ToggleReCommentLike(ctx context.Context, userID, id uint64) (*model.LikeView, error) {
	rc, err := s.comments.FindReComment(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, msgReCommentNotFound)
	}
	if _, err := s.boards.Article(ctx, userID, rc.ArticleID); err != nil {
		return nil, err
	}
	liked, count, err := s.likes.ToggleReComment(ctx, id, userID)
	if err != nil {
		return nil, notFoundOr(err, msgReCommentNotFound)
	}
	return &model.LikeView{Liked: liked, LikeCount: count}, nil
}

func commentView(c *model.Comment, author *model.User, viewerID uint64, replies []model.ReCommentView) *model.CommentView {
	return &model.CommentView{
		ID:          c.ID,
		ArticleID:   c.ArticleID,
		Content:     c.Content,
		IsAnonymous: c.IsAnonymous,
		LikeCount:   c.LikeCount,
		Author:      model.NewAuthorView(author, c.IsAnonymous),
		IsMine:      viewerID != 0 && viewerID == c.UserID,
		ReComments:  replies,
		CreatedAt:   c.CreatedAt,
	}
}

func reCommentView(rc *model.ReComment, author *model.User, viewerID uint64) *model.ReCommentView {
	return &model.ReCommentView{
		ID:          rc.ID,
		CommentID:   rc.CommentID,
		Content:     rc.Content,
		IsAnonymous: rc.IsAnonymous,
		LikeCount:   rc.LikeCount,
		Author:      model.NewAuthorView(author, rc.IsAnonymous),
		IsMine:      viewerID != 0 && viewerID == rc.UserID,
		CreatedAt:   rc.CreatedAt,
	}
}
