package service

import (
	"context"
	"errors"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"

	"gorm.io/gorm"
)

type BoardService struct {
	boards      *mysql.BoardRepository
	articles    *mysql.ArticleRepository
	requests    *mysql.BoardRequestRepository
	userSchools *mysql.UserSchoolRepository
}

func NewBoardService(db *gorm.DB) *BoardService {
	return &BoardService{
		boards:      &mysql.BoardRepository{DB: db},
		articles:    &mysql.ArticleRepository{DB: db},
		requests:    &mysql.BoardRequestRepository{DB: db},
		userSchools: &mysql.UserSchoolRepository{DB: db},
	}
}

// schoolOf 未认证学校返回 0
func schoolOf(ctx context.Context, repo *mysql.UserSchoolRepository, userID uint64) (uint64, error) {
	us, err := repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, pkg.Internal(err)
	}
	return us.SchoolID, nil
}

func (s *BoardService) List(ctx context.Context, userID uint64) ([]model.Board, error) {
	schoolID, err := schoolOf(ctx, s.userSchools, userID)
	if err != nil {
		return nil, err
	}
	list, err := s.boards.ListForSchool(ctx, schoolID)
	return list, pkg.Internal(err)
}

// Get 学校版块只对本校成员可见
func (s *BoardService) Get(ctx context.Context, userID, boardID uint64) (*model.Board, error) {
	b, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		return nil, notFoundOr(err, "게시판을 찾을 수 없습니다.")
	}
	if b.SchoolID == nil {
		return b, nil
	}
	schoolID, err := schoolOf(ctx, s.userSchools, userID)
	if err != nil {
		return nil, err
	}
	if schoolID != *b.SchoolID {
		return nil, pkg.Forbidden("해당 학교 학생만 이용할 수 있습니다.")
	}
	return b, nil
}

// Article 帖子、评论、回复和点赞都要经过所在版块的权限检查
func (s *BoardService) Article(ctx context.Context, userID, articleID uint64) (*model.Article, error) {
	a, err := s.articles.FindByID(ctx, articleID)
	if err != nil {
		return nil, notFoundOr(err, msgArticleNotFound)
	}
	if _, err := s.Get(ctx, userID, a.BoardID); err != nil {
		return nil, err
	}
	return a, nil
}

// Request 申请新版块；已认证学校的用户申请本校版块，否则申请公共版块
func (s *BoardService) Request(ctx context.Context, userID uint64, name, description string) (*model.BoardRequest, error) {
	schoolID, err := schoolOf(ctx, s.userSchools, userID)
	if err != nil {
		return nil, err
	}
	br := &model.BoardRequest{
		UserID:      userID,
		Name:        name,
		Description: description,
		Status:      model.StatusPending,
	}
	if schoolID > 0 {
		br.SchoolID = &schoolID
	}
	if err := s.requests.Create(ctx, br); err != nil {
		return nil, pkg.Internal(err)
	}
	return br, nil
}

func (s *BoardService) MyRequests(ctx context.Context, userID uint64) ([]model.BoardRequest, error) {
	list, err := s.requests.ListByUser(ctx, userID)
	return list, pkg.Internal(err)
}
