package service

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/client"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var smsCode = regexp.MustCompile(`\[(\d{4})\]`)

type authFixture struct {
	db     *gorm.DB
	mr     *miniredis.Miniredis
	svc    *AuthService
	sms    *fakeSMS
	tokens *pkg.TokenIssuer
	kakao  *fakeProvider
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := newTestDB(t)
	mr, rdb := newTestRedis(t)
	f := &authFixture{
		db:     db,
		mr:     mr,
		sms:    &fakeSMS{},
		tokens: pkg.NewTokenIssuer("test-secret", time.Hour, time.Hour, 24*time.Hour, ""),
		kakao: &fakeProvider{name: model.ProviderKakao, profiles: map[string]*client.Profile{
			"good": {Provider: model.ProviderKakao, SocialID: "k-1", Name: "카카오", AccessToken: "at"},
		}},
	}
	f.svc = NewAuthService(db, rdb, f.sms, f.tokens,
		map[string]client.OAuthProvider{model.ProviderKakao: f.kakao}, time.Minute, zap.NewNop())
	return f
}

// sendCode 发送验证码并从短信正文取出 4 位数字
func (f *authFixture) sendCode(t *testing.T, phone string) (token, code string) {
	t.Helper()
	token, err := f.svc.SendPhoneCode(context.Background(), phone)
	require.NoError(t, err)
	m := smsCode.FindStringSubmatch(f.sms.text)
	require.Len(t, m, 2, f.sms.text)
	assert.Equal(t, phone, f.sms.to)
	return token, m[1]
}

func TestAuth_SignupAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	token, code := f.sendCode(t, "01012345678")

	view, err := f.svc.Signup(ctx, SignupInput{
		Provider: model.ProviderID,
		Phone:    "01012345678",
		Password: "secret123",
		Name:     "홍길동",
		Code:     code,
		Token:    token,
	})
	require.NoError(t, err)
	require.NotNil(t, view.User)
	assert.Equal(t, "홍길동", view.User.Name)
	assert.NotEmpty(t, view.RefreshToken)

	claims, err := f.tokens.Parse(view.Token, pkg.KindUser)
	require.NoError(t, err)
	assert.Equal(t, view.User.ID, claims.ID)

	login, err := f.svc.Login(ctx, "01012345678", "secret123")
	require.NoError(t, err)
	assert.Equal(t, view.User.ID, login.User.ID)

	_, err = f.svc.Login(ctx, "01012345678", "wrong")
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_SignupCodeMismatch(t *testing.T) {
	f := newAuthFixture(t)
	token, code := f.sendCode(t, "01011112222")
	wrong := "0000"
	if code == wrong {
		wrong = "1111"
	}
	_, err := f.svc.Signup(context.Background(), SignupInput{
		Provider: model.ProviderID, Phone: "01011112222", Password: "secret123", Code: wrong, Token: token,
	})
	appErr := assertStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, MsgCodeMismatch, appErr.Message)
}

func TestAuth_VerifyAttemptsExhausted(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	token, code := f.sendCode(t, "01033334444")
	wrong := "0000"
	if code == wrong {
		wrong = "1111"
	}
	for i := 0; i < redis.MaxVerifyAttempts; i++ {
		assertStatus(t, f.svc.VerifyPhone(ctx, token, wrong), http.StatusBadRequest)
	}
	// 次数用尽后正确的验证码也不再接受
	assertStatus(t, f.svc.VerifyPhone(ctx, token, code), http.StatusTooManyRequests)
}

func TestAuth_SendCodeCooldown(t *testing.T) {
	f := newAuthFixture(t)
	f.sendCode(t, "01055556666")
	_, err := f.svc.SendPhoneCode(context.Background(), "01055556666")
	assertStatus(t, err, http.StatusTooManyRequests)
}

func TestAuth_SendCodeSMSFailureReleasesCooldown(t *testing.T) {
	f := newAuthFixture(t)
	f.sms.err = assert.AnError
	_, err := f.svc.SendPhoneCode(context.Background(), "01077778888")
	assertStatus(t, err, http.StatusBadGateway)

	f.sms.err = nil
	f.sendCode(t, "01077778888")
}

func TestAuth_DuplicatePhone(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	token, code := f.sendCode(t, "01099990000")
	_, err := f.svc.Signup(ctx, SignupInput{Provider: model.ProviderID, Phone: "01099990000", Password: "secret123", Code: code, Token: token})
	require.NoError(t, err)

	f.mr.FastForward(time.Minute)
	token, code = f.sendCode(t, "01099990000")
	_, err = f.svc.Signup(ctx, SignupInput{Provider: model.ProviderID, Phone: "01099990000", Password: "secret123", Code: code, Token: token})
	assertStatus(t, err, http.StatusConflict)
}

func TestAuth_OAuthCallback(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	first, err := f.svc.OAuthCallback(ctx, model.ProviderKakao, "good")
	require.NoError(t, err)
	assert.False(t, first.Registered)
	assert.Equal(t, "k-1", first.SocialID)
	assert.Empty(t, first.Token)
	claims, err := f.tokens.Parse(first.SignupToken, pkg.KindSignup)
	require.NoError(t, err)
	var sl model.SocialLogin
	require.NoError(t, f.db.Where("social_id = ?", "k-1").First(&sl).Error)
	assert.Equal(t, sl.ID, claims.ID)

	second, err := f.svc.OAuthCallback(ctx, model.ProviderKakao, "good")
	require.NoError(t, err)
	assert.True(t, second.Registered)
	require.NotNil(t, second.User)
	assert.Equal(t, "카카오", second.User.Name)
	_, err = f.tokens.Parse(second.Token, pkg.KindUser)
	assert.NoError(t, err)

	_, err = f.svc.OAuthCallback(ctx, model.ProviderKakao, "bad")
	assertStatus(t, err, http.StatusBadGateway)

	_, err = f.svc.OAuthCallback(ctx, model.ProviderInstagram, "good")
	assertStatus(t, err, http.StatusNotFound)
}

func TestAuth_SocialSignupCompletesUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	cb, err := f.svc.OAuthCallback(ctx, model.ProviderKakao, "good")
	require.NoError(t, err)

	token, code := f.sendCode(t, "01024682468")
	view, err := f.svc.Signup(ctx, SignupInput{
		Provider: model.ProviderKakao, Phone: "01024682468", Name: "새이름", Code: code, Token: token, SignupToken: cb.SignupToken,
	})
	require.NoError(t, err)
	assert.Equal(t, "새이름", view.User.Name)
	assert.Equal(t, "01024682468", view.User.Phone)

	again, err := f.svc.OAuthCallback(ctx, model.ProviderKakao, "good")
	require.NoError(t, err)
	assert.True(t, again.Registered)
	assert.Equal(t, view.User.ID, again.User.ID)
}

func TestAuth_SocialSignupRequiresSignupToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	cb, err := f.svc.OAuthCallback(ctx, model.ProviderKakao, "good")
	require.NoError(t, err)
	var sl model.SocialLogin
	require.NoError(t, f.db.Where("social_id = ?", "k-1").First(&sl).Error)

	forged, err := pkg.NewTokenIssuer("other-secret", time.Hour, time.Hour, time.Hour, "").Issue(sl.ID, pkg.KindSignup)
	require.NoError(t, err)
	session, err := f.tokens.Issue(sl.ID, pkg.KindUser)
	require.NoError(t, err)

	cases := []struct {
		name     string
		provider string
		token    string
		status   int
	}{
		{"missing", model.ProviderKakao, "", http.StatusBadRequest},
		{"raw social id", model.ProviderKakao, "k-1", http.StatusUnauthorized},
		{"foreign secret", model.ProviderKakao, forged, http.StatusUnauthorized},
		{"session token", model.ProviderKakao, session, http.StatusUnauthorized},
		{"other provider", model.ProviderGoogle, cb.SignupToken, http.StatusBadRequest},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			phone := fmt.Sprintf("0109000000%d", i)
			token, code := f.sendCode(t, phone)
			_, err := f.svc.Signup(ctx, SignupInput{
				Provider: tc.provider, Phone: phone, Name: "공격자", Code: code, Token: token, SignupToken: tc.token,
			})
			assertStatus(t, err, tc.status)
		})
	}

	// 占位账号没有被认领
	var user model.User
	require.NoError(t, f.db.First(&user, sl.UserID).Error)
	assert.Nil(t, user.Phone)
	assert.Equal(t, "카카오", user.Name)
}

func TestAuth_OAuthCallbackConcurrentFirstSight(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	// 查询未命中之后、写入之前，另一个回调先建好了同一身份
	raced := false
	require.NoError(t, f.db.Callback().Query().After("gorm:query").Register("test:oauth_race", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "social_logins" {
			return
		}
		raced = true
		other := &model.User{Name: "카카오", Provider: model.ProviderKakao}
		require.NoError(t, f.db.Create(other).Error)
		require.NoError(t, f.db.Create(&model.SocialLogin{UserID: other.ID, Provider: model.ProviderKakao, SocialID: "k-1"}).Error)
	}))

	cb, err := f.svc.OAuthCallback(ctx, model.ProviderKakao, "good")
	require.NoError(t, err)
	assert.True(t, raced)
	assert.False(t, cb.Registered)

	var rows []model.SocialLogin
	require.NoError(t, f.db.Where("social_id = ?", "k-1").Find(&rows).Error)
	require.Len(t, rows, 1)
	claims, err := f.tokens.Parse(cb.SignupToken, pkg.KindSignup)
	require.NoError(t, err)
	assert.Equal(t, rows[0].ID, claims.ID)
}

func TestAuth_Refresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	token, code := f.sendCode(t, "01013571357")
	signup, err := f.svc.Signup(ctx, SignupInput{Provider: model.ProviderID, Phone: "01013571357", Password: "secret123", Code: code, Token: token})
	require.NoError(t, err)

	view, err := f.svc.Refresh(ctx, signup.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, view.User.ID)

	// 会话令牌不能当作刷新令牌
	_, err = f.svc.Refresh(ctx, signup.Token)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_LoginURL(t *testing.T) {
	f := newAuthFixture(t)
	google := client.NewGoogle(client.Credentials{ClientID: "gid", RedirectURL: "https://schoolmate.kr/auth/google/callback"}, client.GoogleEndpoints)
	f.svc.providers[model.ProviderGoogle] = google

	u, err := f.svc.LoginURL(model.ProviderGoogle, "back")
	require.NoError(t, err)
	assert.Contains(t, u, client.GoogleEndpoints.AuthURL)
	assert.Contains(t, u, "client_id=gid")
	assert.Contains(t, u, "state=back")

	// 测试替身没有授权页
	_, err = f.svc.LoginURL(model.ProviderKakao, "")
	assertStatus(t, err, http.StatusNotFound)
	_, err = f.svc.LoginURL(model.ProviderInstagram, "")
	assertStatus(t, err, http.StatusNotFound)
}
