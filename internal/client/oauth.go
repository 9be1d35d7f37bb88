package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

var ErrNoIDToken = errors.New("oauth: id_token missing")

// Profile 第三方账号资料；FollowerCount 用作 fight 分数
type Profile struct {
	Provider      string
	SocialID      string
	Name          string
	Email         string
	AccessToken   string
	RefreshToken  string
	FollowerCount int64
}

// OAuthProvider 用授权码换令牌并拉取资料
type OAuthProvider interface {
	Name() string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// ProfileFetcher 用已保存的 access token 重新拉取资料（分数刷新）
type ProfileFetcher interface {
	Fetch(ctx context.Context, accessToken string) (*Profile, error)
}

type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type Endpoints struct {
	AuthURL    string
	TokenURL   string
	ProfileURL string
	// ExtraURL 第二个资料接口（如召唤师信息），不需要时为空
	ExtraURL string
}

// Provider 基于 oauth2.Config 的通用实现，profile 的解析由各 provider 提供
type Provider struct {
	name    string
	cfg     *oauth2.Config
	ep      Endpoints
	hc      *http.Client
	profile func(ctx context.Context, p *Provider, tok *oauth2.Token) (*Profile, error)
}

func newProvider(name string, cred Credentials, ep Endpoints, style oauth2.AuthStyle, scopes []string) *Provider {
	return &Provider{
		name: name,
		cfg: &oauth2.Config{
			ClientID:     cred.ClientID,
			ClientSecret: cred.ClientSecret,
			RedirectURL:  cred.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   ep.AuthURL,
				TokenURL:  ep.TokenURL,
				AuthStyle: style,
			},
		},
		ep: ep,
		hc: newHTTPClient(),
	}
}

func (p *Provider) Name() string { return p.name }

// AuthCodeURL 前端跳转用的授权地址
func (p *Provider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

func (p *Provider) Exchange(ctx context.Context, code string) (*Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.hc)
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s exchange code: %w", p.name, err)
	}
	prof, err := p.profile(ctx, p, tok)
	if err != nil {
		return nil, fmt.Errorf("%s profile: %w", p.name, err)
	}
	prof.Provider = p.name
	prof.AccessToken = tok.AccessToken
	prof.RefreshToken = tok.RefreshToken
	return prof, nil
}

func (p *Provider) Fetch(ctx context.Context, accessToken string) (*Profile, error) {
	prof, err := p.profile(ctx, p, &oauth2.Token{AccessToken: accessToken})
	if err != nil {
		return nil, fmt.Errorf("%s profile: %w", p.name, err)
	}
	prof.Provider = p.name
	prof.AccessToken = accessToken
	return prof, nil
}

func bearer(tok *oauth2.Token) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+tok.AccessToken)
	return h
}

var KakaoEndpoints = Endpoints{
	AuthURL:    "https://kauth.kakao.com/oauth/authorize",
	TokenURL:   "https://kauth.kakao.com/oauth/token",
	ProfileURL: "https://kapi.kakao.com/v2/user/me",
}

func NewKakao(cred Credentials, ep Endpoints) *Provider {
	p := newProvider("kakao", cred, ep, oauth2.AuthStyleInParams, nil)
	p.profile = func(ctx context.Context, p *Provider, tok *oauth2.Token) (*Profile, error) {
		var res struct {
			ID           int64 `json:"id"`
			KakaoAccount struct {
				Email   string `json:"email"`
				Profile struct {
					Nickname string `json:"nickname"`
				} `json:"profile"`
			} `json:"kakao_account"`
		}
		if err := getJSON(ctx, p.hc, p.ep.ProfileURL, bearer(tok), &res); err != nil {
			return nil, err
		}
		return &Profile{
			SocialID: fmt.Sprintf("%d", res.ID),
			Name:     res.KakaoAccount.Profile.Nickname,
			Email:    res.KakaoAccount.Email,
		}, nil
	}
	return p
}

var GoogleEndpoints = Endpoints{
	AuthURL:    "https://accounts.google.com/o/oauth2/auth",
	TokenURL:   "https://oauth2.googleapis.com/token",
	ProfileURL: "https://www.googleapis.com/oauth2/v2/userinfo",
}

func NewGoogle(cred Credentials, ep Endpoints) *Provider {
	p := newProvider("google", cred, ep, oauth2.AuthStyleInParams, []string{"openid", "email", "profile"})
	p.profile = func(ctx context.Context, p *Provider, tok *oauth2.Token) (*Profile, error) {
		var res struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := getJSON(ctx, p.hc, p.ep.ProfileURL, bearer(tok), &res); err != nil {
			return nil, err
		}
		return &Profile{SocialID: res.ID, Name: res.Name, Email: res.Email}, nil
	}
	return p
}

var InstagramEndpoints = Endpoints{
	AuthURL:    "https://api.instagram.com/oauth/authorize",
	TokenURL:   "https://api.instagram.com/oauth/access_token",
	ProfileURL: "https://graph.instagram.com/me",
}

// NewInstagram followers_count 作为 fight 分数
func NewInstagram(cred Credentials, ep Endpoints) *Provider {
	p := newProvider("instagram", cred, ep, oauth2.AuthStyleInParams, []string{"user_profile"})
	p.profile = func(ctx context.Context, p *Provider, tok *oauth2.Token) (*Profile, error) {
		q := url.Values{}
		q.Set("fields", "id,username,followers_count")
		q.Set("access_token", tok.AccessToken)
		var res struct {
			ID             string `json:"id"`
			Username       string `json:"username"`
			FollowersCount int64  `json:"followers_count"`
		}
		if err := getJSON(ctx, p.hc, p.ep.ProfileURL+"?"+q.Encode(), nil, &res); err != nil {
			return nil, err
		}
		return &Profile{SocialID: res.ID, Name: res.Username, FollowerCount: res.FollowersCount}, nil
	}
	return p
}

var LeagueOfLegendsEndpoints = Endpoints{
	AuthURL:    "https://auth.riotgames.com/authorize",
	TokenURL:   "https://auth.riotgames.com/token",
	ProfileURL: "https://asia.api.riotgames.com/riot/account/v1/accounts/me",
	ExtraURL:   "https://kr.api.riotgames.com/lol/summoner/v4/summoners/by-puuid/",
}

// NewLeagueOfLegends Riot 账号 + 召唤师等级作为分数
func NewLeagueOfLegends(cred Credentials, ep Endpoints) *Provider {
	p := newProvider("leagueoflegends", cred, ep, oauth2.AuthStyleInHeader, []string{"openid", "cpid"})
	p.profile = func(ctx context.Context, p *Provider, tok *oauth2.Token) (*Profile, error) {
		var acc struct {
			PUUID    string `json:"puuid"`
			GameName string `json:"gameName"`
			TagLine  string `json:"tagLine"`
		}
		if err := getJSON(ctx, p.hc, p.ep.ProfileURL, bearer(tok), &acc); err != nil {
			return nil, err
		}
		prof := &Profile{SocialID: acc.PUUID, Name: acc.GameName + "#" + acc.TagLine}
		if p.ep.ExtraURL == "" {
			return prof, nil
		}
		var summoner struct {
			SummonerLevel int64 `json:"summonerLevel"`
		}
		if err := getJSON(ctx, p.hc, p.ep.ExtraURL+url.PathEscape(acc.PUUID), bearer(tok), &summoner); err != nil {
			return nil, err
		}
		prof.FollowerCount = summoner.SummonerLevel
		return prof, nil
	}
	return p
}
