package client

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

var AppleEndpoints = Endpoints{
	AuthURL:  "https://appleid.apple.com/auth/authorize",
	TokenURL: "https://appleid.apple.com/auth/token",
}

const appleAudience = "https://appleid.apple.com"

type AppleCredentials struct {
	ClientID    string
	TeamID      string
	KeyID       string
	PrivateKey  string // PEM
	RedirectURL string
}

// AppleProvider client_secret 是每次用 ES256 私钥现签的 JWT；资料取自 token 接口返回的 id_token
type AppleProvider struct {
	cred AppleCredentials
	key  *ecdsa.PrivateKey
	ep   Endpoints
	hc   *http.Client
	now  func() time.Time
}

func NewApple(cred AppleCredentials, ep Endpoints) (*AppleProvider, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(cred.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("apple private key: %w", err)
	}
	return &AppleProvider{cred: cred, key: key, ep: ep, hc: newHTTPClient(), now: time.Now}, nil
}

func (a *AppleProvider) Name() string { return "apple" }

// AuthCodeURL 不申请 scope，回调才能走 GET query
func (a *AppleProvider) AuthCodeURL(state string) string {
	cfg := &oauth2.Config{
		ClientID:    a.cred.ClientID,
		RedirectURL: a.cred.RedirectURL,
		Endpoint:    oauth2.Endpoint{AuthURL: a.ep.AuthURL, TokenURL: a.ep.TokenURL},
	}
	return cfg.AuthCodeURL(state)
}

func (a *AppleProvider) clientSecret() (string, error) {
	now := a.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.RegisteredClaims{
		Issuer:    a.cred.TeamID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		Audience:  jwt.ClaimStrings{appleAudience},
		Subject:   a.cred.ClientID,
	})
	tok.Header["kid"] = a.cred.KeyID
	return tok.SignedString(a.key)
}

func (a *AppleProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	secret, err := a.clientSecret()
	if err != nil {
		return nil, fmt.Errorf("apple client secret: %w", err)
	}
	cfg := &oauth2.Config{
		ClientID:     a.cred.ClientID,
		ClientSecret: secret,
		RedirectURL:  a.cred.RedirectURL,
		Scopes:       []string{"name", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.ep.AuthURL,
			TokenURL:  a.ep.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.hc)
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("apple exchange code: %w", err)
	}
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, ErrNoIDToken
	}
	// id_token 直接来自 Apple token 接口（TLS），这里只解析不验签
	var claims struct {
		Email string `json:"email"`
		jwt.RegisteredClaims
	}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("apple id_token: %w", err)
	}
	return &Profile{
		Provider:     "apple",
		SocialID:     claims.Subject,
		Email:        claims.Email,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}, nil
}
