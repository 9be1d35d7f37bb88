package service

import (
	"context"
	"errors"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/client"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"

	"gorm.io/gorm"
)

// ConnectProviders 可绑定为 fight 分数来源的第三方
var ConnectProviders = map[string]bool{
	model.ProviderInstagram:       true,
	model.ProviderLeagueOfLegends: true,
}

type ConnectionService struct {
	conns     *mysql.ConnectionRepository
	providers map[string]client.OAuthProvider
}

func NewConnectionService(db *gorm.DB, providers map[string]client.OAuthProvider) *ConnectionService {
	return &ConnectionService{
		conns:     &mysql.ConnectionRepository{DB: db},
		providers: providers,
	}
}

// Connect 一个外部账号只能绑定到一个用户
func (s *ConnectionService) Connect(ctx context.Context, userID uint64, provider, code string) (*model.ConnectionView, error) {
	p, ok := s.providers[provider]
	if !ok || !ConnectProviders[provider] {
		return nil, pkg.BadRequest("지원하지 않는 연동 서비스입니다.")
	}
	profile, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, pkg.Upstream(err)
	}
	bound, err := s.conns.FindByAccount(ctx, provider, profile.SocialID)
	switch {
	case err == nil && bound.UserID != userID:
		return nil, pkg.Conflict("이미 다른 계정에 연동된 계정입니다.")
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkg.Internal(err)
	}
	ca := &model.ConnectionAccount{
		UserID:        userID,
		Provider:      provider,
		AccountID:     profile.SocialID,
		Name:          profile.Name,
		FollowerCount: profile.FollowerCount,
		AccessToken:   profile.AccessToken,
	}
	if err := s.conns.Save(ctx, ca); err != nil {
		if isDuplicate(err) {
			return nil, pkg.Conflict("이미 다른 계정에 연동된 계정입니다.")
		}
		return nil, pkg.Internal(err)
	}
	v := model.NewConnectionView(ca)
	return &v, nil
}

func (s *ConnectionService) List(ctx context.Context, userID uint64) ([]model.ConnectionView, error) {
	list, err := s.conns.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	out := make([]model.ConnectionView, 0, len(list))
	for i := range list {
		out = append(out, model.NewConnectionView(&list[i]))
	}
	return out, nil
}

func (s *ConnectionService) Delete(ctx context.Context, userID uint64, provider string) error {
	if err := s.conns.Delete(ctx, userID, provider); err != nil {
		return notFoundOr(err, "연동된 계정이 없습니다.")
	}
	return nil
}
