package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/client"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/redis"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	PhoneCodeLength = 4
	PhoneCodeTTL    = 5 * time.Minute

	MsgCodeMismatch = "인증번호가 일치하지 않습니다."

	msgUnsupportedProvider = "지원하지 않는 로그인 방식입니다."
)

// LoginProviders 可直接用于登录的第三方
var LoginProviders = map[string]bool{
	model.ProviderKakao:  true,
	model.ProviderGoogle: true,
	model.ProviderApple:  true,
}

type AuthService struct {
	users     *mysql.UserRepository
	admins    *mysql.AdminRepository
	social    *mysql.SocialLoginRepository
	verify    *mysql.PhoneVerifyRepository
	phone     *redis.PhoneRepository
	sms       SMSSender
	tokens    *pkg.TokenIssuer
	providers map[string]client.OAuthProvider
	cooldown  time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewAuthService(db *gorm.DB, rdb *goredis.Client, sms SMSSender, tokens *pkg.TokenIssuer,
	providers map[string]client.OAuthProvider, cooldown time.Duration, log *zap.Logger) *AuthService {
	return &AuthService{
		users:     &mysql.UserRepository{DB: db},
		admins:    &mysql.AdminRepository{DB: db},
		social:    &mysql.SocialLoginRepository{DB: db},
		verify:    &mysql.PhoneVerifyRepository{DB: db},
		phone:     &redis.PhoneRepository{RDB: rdb},
		sms:       sms,
		tokens:    tokens,
		providers: providers,
		cooldown:  cooldown,
		log:       log,
		now:       time.Now,
	}
}

type SignupInput struct {
	Provider    string
	Phone       string
	Password    string
	Name        string
	Code        string
	Token       string
	SignupToken string
}

// SendPhoneCode 生成 4 位验证码并发短信，返回验证 token
func (s *AuthService) SendPhoneCode(ctx context.Context, phone string) (string, error) {
	ok, err := s.phone.AcquireCooldown(ctx, phone, s.cooldown)
	if err != nil {
		return "", pkg.Internal(err)
	}
	if !ok {
		return "", pkg.TooManyRequests("잠시 후 다시 인증번호를 요청해주세요.")
	}
	code, err := pkg.VerificationCode(PhoneCodeLength)
	if err != nil {
		return "", pkg.Internal(err)
	}
	req := &model.PhoneVerifyRequest{
		ID:        uuid.NewString(),
		Phone:     phone,
		Code:      code,
		ExpiresAt: s.now().Add(PhoneCodeTTL),
	}
	if err := s.verify.Create(ctx, req); err != nil {
		_ = s.phone.ReleaseCooldown(ctx, phone)
		return "", pkg.Internal(err)
	}
	if err := s.sms.Send(ctx, phone, fmt.Sprintf("[스쿨메이트] 인증번호는 [%s] 입니다.", code)); err != nil {
		_ = s.phone.ReleaseCooldown(ctx, phone)
		return "", pkg.Upstream(err)
	}
	return req.ID, nil
}

// VerifyPhone 单独校验验证码（前端分步流程）
func (s *AuthService) VerifyPhone(ctx context.Context, token, code string) error {
	req, err := s.checkCode(ctx, "", token, code)
	if err != nil {
		return err
	}
	return pkg.Internal(s.verify.MarkVerified(ctx, req.ID))
}

// checkCode phone 为空时不比对手机号；错误次数超过上限后 token 作废
func (s *AuthService) checkCode(ctx context.Context, phone, token, code string) (*model.PhoneVerifyRequest, error) {
	req, err := s.verify.FindByID(ctx, token)
	if err != nil {
		return nil, notFoundOr(err, "인증 요청을 찾을 수 없습니다.")
	}
	if phone != "" && req.Phone != phone {
		return nil, pkg.BadRequest("인증 요청의 전화번호가 일치하지 않습니다.")
	}
	if s.now().After(req.ExpiresAt) {
		return nil, pkg.BadRequest("인증번호가 만료되었습니다.")
	}
	if n, err := s.phone.FailedAttempts(ctx, token); err == nil && n >= redis.MaxVerifyAttempts {
		return nil, pkg.TooManyRequests("인증 시도 횟수를 초과했습니다.")
	}
	if req.Code != code {
		if _, err := s.phone.AddFailedAttempt(ctx, token, PhoneCodeTTL); err != nil {
			s.log.Warn("phone attempt counter failed", zap.Error(err))
		}
		return nil, pkg.BadRequest(MsgCodeMismatch)
	}
	return req, nil
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.AuthView, error) {
	if in.Provider != model.ProviderID && !LoginProviders[in.Provider] {
		return nil, pkg.BadRequest("지원하지 않는 가입 방식입니다.")
	}
	if in.Provider == model.ProviderID && in.Password == "" {
		return nil, pkg.BadRequest("비밀번호를 입력해주세요.")
	}
	if in.Provider != model.ProviderID && in.SignupToken == "" {
		return nil, pkg.BadRequest("소셜 로그인 정보가 필요합니다.")
	}
	req, err := s.checkCode(ctx, in.Phone, in.Token, in.Code)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByPhone(ctx, in.Phone); err == nil {
		return nil, pkg.Conflict("이미 가입된 전화번호입니다.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.Internal(err)
	}

	var user *model.User
	if in.Provider == model.ProviderID {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, pkg.Internal(err)
		}
		phone := in.Phone
		user = &model.User{Phone: &phone, Password: string(hash), Name: in.Name, Provider: model.ProviderID}
		if err := s.users.Create(ctx, user); err != nil {
			if isDuplicate(err) {
				return nil, pkg.Conflict("이미 가입된 전화번호입니다.")
			}
			return nil, pkg.Internal(err)
		}
	} else {
		if user, err = s.completeSocialSignup(ctx, in); err != nil {
			return nil, err
		}
	}
	_ = s.verify.Delete(ctx, req.ID)

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return &model.AuthView{Token: pair.AccessToken, RefreshToken: pair.RefreshToken, User: model.NewUserView(user)}, nil
}

// completeSocialSignup 回调时已建好用户，凭回调签发的 signupToken 补全手机号和昵称
func (s *AuthService) completeSocialSignup(ctx context.Context, in SignupInput) (*model.User, error) {
	claims, err := s.tokens.Parse(in.SignupToken, pkg.KindSignup)
	if err != nil {
		return nil, pkg.Unauthorized("소셜 로그인 인증이 만료되었거나 올바르지 않습니다.")
	}
	sl, err := s.social.FindByID(ctx, claims.ID)
	if err != nil {
		return nil, notFoundOr(err, "소셜 로그인 정보를 찾을 수 없습니다.")
	}
	if sl.Provider != in.Provider {
		return nil, pkg.BadRequest("소셜 로그인 정보가 일치하지 않습니다.")
	}
	user, err := s.users.FindByID(ctx, sl.UserID)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound)
	}
	if user.Phone != nil {
		return nil, pkg.Conflict("이미 가입이 완료된 계정입니다.")
	}
	fields := map[string]any{"phone": in.Phone}
	if in.Name != "" {
		fields["name"] = in.Name
		user.Name = in.Name
	}
	if err := s.users.Update(ctx, user.ID, fields); err != nil {
		if isDuplicate(err) {
			return nil, pkg.Conflict("이미 가입된 전화번호입니다.")
		}
		return nil, pkg.Internal(err)
	}
	phone := in.Phone
	user.Phone = &phone
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, phone, password string) (*model.AuthView, error) {
	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkg.Unauthorized("전화번호 또는 비밀번호가 올바르지 않습니다.")
		}
		return nil, pkg.Internal(err)
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, pkg.Unauthorized("전화번호 또는 비밀번호가 올바르지 않습니다.")
	}
	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return &model.AuthView{Token: pair.AccessToken, RefreshToken: pair.RefreshToken, User: model.NewUserView(user)}, nil
}

type authURLer interface {
	AuthCodeURL(state string) string
}

// LoginURL 第三方授权页地址，state 原样带回回调
func (s *AuthService) LoginURL(provider, state string) (string, error) {
	p, ok := s.providers[provider]
	if !ok || !LoginProviders[provider] {
		return "", pkg.NotFound(msgUnsupportedProvider)
	}
	u, ok := p.(authURLer)
	if !ok {
		return "", pkg.NotFound(msgUnsupportedProvider)
	}
	return u.AuthCodeURL(state), nil
}

// OAuthCallback 新的第三方身份：建用户和 SocialLogin，registered=false 并签发 signupToken；已存在：刷新资料并签发令牌
func (s *AuthService) OAuthCallback(ctx context.Context, provider, code string) (*model.OAuthCallbackView, error) {
	p, ok := s.providers[provider]
	if !ok || !LoginProviders[provider] {
		return nil, pkg.NotFound(msgUnsupportedProvider)
	}
	prof, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, pkg.Upstream(err)
	}

	sl, err := s.social.Find(ctx, provider, prof.SocialID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		name := prof.Name
		if name == "" {
			name = "사용자"
		}
		user := &model.User{Name: name, Provider: provider}
		sl = &model.SocialLogin{
			Provider:     provider,
			SocialID:     prof.SocialID,
			Name:         prof.Name,
			Email:        prof.Email,
			AccessToken:  prof.AccessToken,
			RefreshToken: prof.RefreshToken,
		}
		err := s.social.CreateWithUser(ctx, sl, user)
		if isDuplicate(err) {
			// 并发的首次回调已经建好，按已存在处理
			sl, err = s.social.Find(ctx, provider, prof.SocialID)
		}
		if err != nil {
			return nil, pkg.Internal(err)
		}
		signup, err := s.tokens.Issue(sl.ID, pkg.KindSignup)
		if err != nil {
			return nil, pkg.Internal(err)
		}
		return &model.OAuthCallbackView{Registered: false, SocialID: prof.SocialID, SignupToken: signup}, nil
	}
	if err != nil {
		return nil, pkg.Internal(err)
	}

	if err := s.social.UpdateProfile(ctx, sl.ID, prof.Name, prof.Email, prof.AccessToken, prof.RefreshToken); err != nil {
		return nil, pkg.Internal(err)
	}
	user, err := s.users.FindByID(ctx, sl.UserID)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound)
	}
	token, err := s.tokens.Issue(user.ID, pkg.KindUser)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return &model.OAuthCallbackView{Registered: true, SocialID: prof.SocialID, Token: token, User: model.NewUserView(user)}, nil
}

// Refresh 用刷新令牌换新的会话令牌
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.AuthView, error) {
	claims, err := s.tokens.Parse(refreshToken, pkg.KindRefresh)
	if err != nil {
		return nil, pkg.Unauthorized("유효하지 않은 토큰입니다.")
	}
	user, err := s.users.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkg.Unauthorized("유효하지 않은 토큰입니다.")
		}
		return nil, pkg.Internal(err)
	}
	token, err := s.tokens.Issue(user.ID, pkg.KindUser)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return &model.AuthView{Token: token, User: model.NewUserView(user)}, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, phone, token, code, password string) error {
	req, err := s.checkCode(ctx, phone, token, code)
	if err != nil {
		return err
	}
	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		return notFoundOr(err, "가입되지 않은 전화번호입니다.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return pkg.Internal(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return pkg.Internal(err)
	}
	_ = s.verify.Delete(ctx, req.ID)
	return nil
}

func (s *AuthService) AdminLogin(ctx context.Context, username, password string) (string, *model.AdminView, error) {
	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, pkg.Unauthorized("아이디 또는 비밀번호가 올바르지 않습니다.")
		}
		return "", nil, pkg.Internal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)) != nil {
		return "", nil, pkg.Unauthorized("아이디 또는 비밀번호가 올바르지 않습니다.")
	}
	token, err := s.tokens.Issue(admin.ID, pkg.KindAdmin)
	if err != nil {
		return "", nil, pkg.Internal(err)
	}
	return token, model.NewAdminView(admin), nil
}

// Tokens handler 需要用它生成 cookie 指令
func (s *AuthService) Tokens() *pkg.TokenIssuer { return s.tokens }
