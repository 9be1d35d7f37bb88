package service

import (
	"context"
	"errors"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"

	"gorm.io/gorm"
)

const (
	msgAskedNotFound    = "에스크 프로필을 찾을 수 없습니다."
	msgQuestionNotFound = "질문을 찾을 수 없습니다."
)

type AskedService struct {
	asked *mysql.AskedRepository
	users *mysql.UserRepository
	now   func() time.Time
}

func NewAskedService(db *gorm.DB) *AskedService {
	return &AskedService{
		asked: &mysql.AskedRepository{DB: db},
		users: &mysql.UserRepository{DB: db},
		now:   time.Now,
	}
}

type AskedProfileInput struct {
	CustomID      string
	StatusMessage string
	Tags          []string
}

func (s *AskedService) CreateProfile(ctx context.Context, userID uint64, in AskedProfileInput) (*model.AskedUser, error) {
	_, err := s.asked.FindUserByUserID(ctx, userID)
	if err == nil {
		return nil, pkg.Conflict("이미 에스크 프로필이 있습니다.")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.Internal(err)
	}
	taken, err := s.asked.CustomIDTaken(ctx, in.CustomID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	if taken {
		return nil, pkg.Conflict("이미 사용 중인 아이디입니다.")
	}
	au := &model.AskedUser{
		UserID:        userID,
		CustomID:      in.CustomID,
		StatusMessage: in.StatusMessage,
		Tags:          model.JoinList(in.Tags),
	}
	if err := s.asked.CreateUser(ctx, au); err != nil {
		if isDuplicate(err) {
			return nil, pkg.Conflict("이미 사용 중인 아이디입니다.")
		}
		return nil, pkg.Internal(err)
	}
	return au, nil
}

// Profile 主人能看到全部提问，其他人只看到已回答的
func (s *AskedService) Profile(ctx context.Context, viewerID uint64, customID string, page int) (*model.AskedProfileView, error) {
	au, err := s.asked.FindUserByCustomID(ctx, customID)
	if err != nil {
		return nil, notFoundOr(err, msgAskedNotFound)
	}
	owner, err := s.users.FindByID(ctx, au.UserID)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound)
	}
	statuses := []string{model.StatusSuccess}
	if viewerID == au.UserID {
		statuses = nil
	}
	page, offset, size := pageOffset(page, DefaultPageSize)
	list, total, err := s.asked.ListQuestions(ctx, au.UserID, statuses, offset, size)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	askerIDs := make([]uint64, 0, len(list))
	for _, q := range list {
		askerIDs = append(askerIDs, q.QuestionUserID)
	}
	askers, err := s.users.FindByIDs(ctx, askerIDs)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	items := make([]model.AskedView, 0, len(list))
	for i := range list {
		items = append(items, *askedView(&list[i], askers[list[i].QuestionUserID]))
	}
	return &model.AskedProfileView{
		User:          model.NewPublicUserView(owner),
		CustomID:      au.CustomID,
		StatusMessage: au.StatusMessage,
		Tags:          model.SplitList(au.Tags),
		Questions:     &model.Page[model.AskedView]{Items: items, Total: total, Page: page},
	}, nil
}

type AskedPatch struct {
	StatusMessage *string
	Tags          *[]string
}

func (s *AskedService) UpdateMe(ctx context.Context, userID uint64, in AskedPatch) (*model.AskedUser, error) {
	fields := map[string]any{}
	if in.StatusMessage != nil {
		fields["status_message"] = *in.StatusMessage
	}
	if in.Tags != nil {
		fields["tags"] = model.JoinList(*in.Tags)
	}
	if len(fields) > 0 {
		if err := s.asked.UpdateUser(ctx, userID, fields); err != nil {
			return nil, notFoundOr(err, msgAskedNotFound)
		}
	}
	au, err := s.asked.FindUserByUserID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, msgAskedNotFound)
	}
	return au, nil
}

func (s *AskedService) Ask(ctx context.Context, userID uint64, customID, question string, anonymous bool) (*model.AskedView, error) {
	au, err := s.asked.FindUserByCustomID(ctx, customID)
	if err != nil {
		return nil, notFoundOr(err, msgAskedNotFound)
	}
	if au.UserID == userID {
		return nil, pkg.BadRequest("자기 자신에게는 질문할 수 없습니다.")
	}
	q := &model.Asked{
		TargetUserID:   au.UserID,
		QuestionUserID: userID,
		Question:       question,
		IsAnonymous:    anonymous,
		Status:         model.StatusPending,
	}
	if err := s.asked.CreateQuestion(ctx, q); err != nil {
		return nil, pkg.Internal(err)
	}
	asker, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound)
	}
	return askedView(q, asker), nil
}

func (s *AskedService) Reply(ctx context.Context, userID, id uint64, answer string) (*model.AskedView, error) {
	q, err := s.ownedQuestion(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.asked.UpdateQuestion(ctx, id, map[string]any{
		"answer":      answer,
		"status":      model.StatusSuccess,
		"answered_at": now,
	}); err != nil {
		return nil, notFoundOr(err, msgQuestionNotFound)
	}
	q.Answer, q.Status, q.AnsweredAt = answer, model.StatusSuccess, &now
	askers, err := s.users.FindByIDs(ctx, []uint64{q.QuestionUserID})
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return askedView(q, askers[q.QuestionUserID]), nil
}

func (s *AskedService) Deny(ctx context.Context, userID, id uint64) error {
	if _, err := s.ownedQuestion(ctx, userID, id); err != nil {
		return err
	}
	if err := s.asked.UpdateQuestion(ctx, id, map[string]any{"status": model.StatusDeny}); err != nil {
		return notFoundOr(err, msgQuestionNotFound)
	}
	return nil
}

func (s *AskedService) Delete(ctx context.Context, userID, id uint64) error {
	if _, err := s.ownedQuestion(ctx, userID, id); err != nil {
		return err
	}
	if err := s.asked.DeleteQuestion(ctx, id); err != nil {
		return notFoundOr(err, msgQuestionNotFound)
	}
	return nil
}

// ownedQuestion 只有被提问的人可以处理
func (s *AskedService) ownedQuestion(ctx context.Context, userID, id uint64) (*model.Asked, error) {
	q, err := s.asked.FindQuestion(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, msgQuestionNotFound)
	}
	if q.TargetUserID != userID {
		return nil, pkg.Forbidden("본인에게 온 질문만 처리할 수 있습니다.")
	}
	return q, nil
}

func askedView(q *model.Asked, asker *model.User) *model.AskedView {
	return &model.AskedView{
		ID:          q.ID,
		Question:    q.Question,
		Answer:      q.Answer,
		IsAnonymous: q.IsAnonymous,
		Status:      q.Status,
		Questioner:  model.NewAuthorView(asker, q.IsAnonymous),
		CreatedAt:   q.CreatedAt,
		AnsweredAt:  q.AnsweredAt,
	}
}
