package pkg

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenKind    = errors.New("token kind mismatch")
)

const CookieName = "Authorization"

// TokenKind 区分用户会话、管理员会话和刷新令牌
type TokenKind string

const (
	KindUser    TokenKind = "user"
	KindAdmin   TokenKind = "admin"
	KindRefresh TokenKind = "refresh"
	// KindSignup 第三方首次登录后补全注册用，ID 是 SocialLogin 的 id
	KindSignup TokenKind = "signup"
)

const SignupTTL = 15 * time.Minute

type Claims struct {
	ID   uint64    `json:"id"`
	Kind TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// TokenIssuer 签发和校验 HS256 会话令牌；没有吊销列表，登出只清 cookie
type TokenIssuer struct {
	Secret       []byte
	UserTTL      time.Duration
	AdminTTL     time.Duration
	RefreshTTL   time.Duration
	CookieDomain string
	now          func() time.Time
}

func NewTokenIssuer(secret string, userTTL, adminTTL, refreshTTL time.Duration, cookieDomain string) *TokenIssuer {
	return &TokenIssuer{
		Secret:       []byte(secret),
		UserTTL:      userTTL,
		AdminTTL:     adminTTL,
		RefreshTTL:   refreshTTL,
		CookieDomain: cookieDomain,
		now:          time.Now,
	}
}

func (t *TokenIssuer) TTL(kind TokenKind) time.Duration {
	switch kind {
	case KindAdmin:
		return t.AdminTTL
	case KindRefresh:
		return t.RefreshTTL
	case KindSignup:
		return SignupTTL
	default:
		return t.UserTTL
	}
}

func (t *TokenIssuer) Issue(id uint64, kind TokenKind) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:   id,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL(kind))),
			Subject:   fmt.Sprintf("%d", id),
		},
	})
	return token.SignedString(t.Secret)
}

// IssuePair 用户登录：会话令牌 + 15 天刷新令牌
func (t *TokenIssuer) IssuePair(userID uint64) (*Pair, error) {
	access, err := t.Issue(userID, KindUser)
	if err != nil {
		return nil, err
	}
	refresh, err := t.Issue(userID, KindRefresh)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Parse 签名、过期、类型任一不通过都视为失败
func (t *TokenIssuer) Parse(tokenStr string, kind TokenKind) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return t.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != kind {
		return nil, ErrTokenKind
	}
	return claims, nil
}

// Cookie 生成 Set-Cookie 指令，Max-Age 与令牌有效期一致
func (t *TokenIssuer) Cookie(token string, kind TokenKind) string {
	return fmt.Sprintf("%s=%s; Path=/; Domain=%s; Max-Age=%d; HttpOnly",
		CookieName, token, t.CookieDomain, int(t.TTL(kind).Seconds()))
}

func (t *TokenIssuer) ClearCookie() string {
	return fmt.Sprintf("%s=; Path=/; Domain=%s; Max-Age=0; HttpOnly", CookieName, t.CookieDomain)
}
