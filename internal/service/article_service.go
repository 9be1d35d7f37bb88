package service

import (
	"context"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"

	"gorm.io/gorm"
)

const (
	HotWindow = 7 * 24 * time.Hour
	HotLimit  = 10

	msgArticleNotFound = "게시글을 찾을 수 없습니다."
)

type ArticleService struct {
	boards   *BoardService
	articles *mysql.ArticleRepository
	likes    *mysql.LikeRepository
	users    *mysql.UserRepository
	now      func() time.Time
}

func NewArticleService(db *gorm.DB, boards *BoardService) *ArticleService {
	return &ArticleService{
		boards:   boards,
		articles: &mysql.ArticleRepository{DB: db},
		likes:    &mysql.LikeRepository{DB: db},
		users:    &mysql.UserRepository{DB: db},
		now:      time.Now,
	}
}

type ArticleInput struct {
	Title       string
	Content     string
	Images      []string
	IsAnonymous bool
}

func (s *ArticleService) Create(ctx context.Context, userID, boardID uint64, in ArticleInput) (*model.ArticleView, error) {
	board, err := s.boards.Get(ctx, userID, boardID)
	if err != nil {
		return nil, err
	}
	a := &model.Article{
		BoardID:     board.ID,
		SchoolID:    board.SchoolID,
		UserID:      userID,
		Title:       in.Title,
		Content:     in.Content,
		Images:      model.JoinList(in.Images),
		IsAnonymous: in.IsAnonymous,
	}
	if err := s.articles.Create(ctx, a); err != nil {
		return nil, pkg.Internal(err)
	}
	author, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound)
	}
	return model.NewArticleView(a, author, userID), nil
}

// Get 读一次浏览数 +1
func (s *ArticleService) Get(ctx context.Context, userID, id uint64) (*model.ArticleView, error) {
	a, err := s.boards.Article(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.articles.IncrViews(ctx, id); err != nil {
		return nil, pkg.Internal(err)
	}
	a.Views++
	views, err := s.views(ctx, userID, []model.Article{*a})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *ArticleService) List(ctx context.Context, userID, boardID uint64, page int) (*model.Page[model.ArticleView], error) {
	if _, err := s.boards.Get(ctx, userID, boardID); err != nil {
		return nil, err
	}
	page, offset, size := pageOffset(page, DefaultPageSize)
	list, total, err := s.articles.ListByBoard(ctx, boardID, offset, size)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	views, err := s.views(ctx, userID, list)
	if err != nil {
		return nil, err
	}
	return &model.Page[model.ArticleView]{Items: views, Total: total, Page: page}, nil
}

// Hot 本校最近 7 天点赞最多的帖子
func (s *ArticleService) Hot(ctx context.Context, userID uint64) ([]model.ArticleView, error) {
	schoolID, err := schoolOf(ctx, s.boards.userSchools, userID)
	if err != nil {
		return nil, err
	}
	if schoolID == 0 {
		return nil, pkg.BadRequest("학교 인증이 필요합니다.")
	}
	list, err := s.articles.Hot(ctx, schoolID, s.now().Add(-HotWindow), HotLimit)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return s.views(ctx, userID, list)
}

type ArticlePatch struct {
	Title   *string
	Content *string
	Images  *[]string
}

func (s *ArticleService) Update(ctx context.Context, userID, id uint64, in ArticlePatch) (*model.ArticleView, error) {
	a, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Title != nil {
		fields["title"], a.Title = *in.Title, *in.Title
	}
	if in.Content != nil {
		fields["content"], a.Content = *in.Content, *in.Content
	}
	if in.Images != nil {
		a.Images = model.JoinList(*in.Images)
		fields["images"] = a.Images
	}
	if len(fields) > 0 {
		if err := s.articles.Update(ctx, id, fields); err != nil {
			return nil, notFoundOr(err, msgArticleNotFound)
		}
	}
	views, err := s.views(ctx, userID, []model.Article{*a})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *ArticleService) Delete(ctx context.Context, userID, id uint64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.articles.Delete(ctx, id); err != nil {
		return notFoundOr(err, msgArticleNotFound)
	}
	return nil
}

func (s *ArticleService) ToggleLike(ctx context.Context, userID, id uint64) (*model.LikeView, error) {
	if _, err := s.boards.Article(ctx, userID, id); err != nil {
		return nil, err
	}
	liked, count, err := s.likes.ToggleArticle(ctx, id, userID)
	if err != nil {
		return nil, notFoundOr(err, msgArticleNotFound)
	}
	return &model.LikeView{Liked: liked, LikeCount: count}, nil
}

func (s *ArticleService) owned(ctx context.Context, userID, id uint64) (*model.Article, error) {
	a, err := s.articles.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, msgArticleNotFound)
	}
	if a.UserID != userID {
		return nil, pkg.Forbidden("본인이 작성한 게시글만 수정할 수 있습니다.")
	}
	return a, nil
}

// views 批量取作者和点赞状态
func (s *ArticleService) views(ctx context.Context, viewerID uint64, list []model.Article) ([]model.ArticleView, error) {
	ids := make([]uint64, 0, len(list))
	userIDs := make([]uint64, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
		userIDs = append(userIDs, a.UserID)
	}
	authors, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	liked, err := s.likes.LikedArticles(ctx, viewerID, ids)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	out := make([]model.ArticleView, 0, len(list))
	for i := range list {
		v := model.NewArticleView(&list[i], authors[list[i].UserID], viewerID)
		v.IsLiked = liked[list[i].ID]
		out = append(out, *v)
	}
	return out, nil
}
