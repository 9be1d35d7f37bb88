package handler

import (
	"net/http"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type PhoneCodeReq struct {
	Phone string `json:"phone" binding:"required,phone"`
}

type PhoneVerifyReq struct {
	Token string `json:"token" binding:"required"`
	Code  string `json:"code" binding:"required,len=4,numeric"`
}

// SignupReq provider=id 时必须有密码；第三方注册用回调返回的 signupToken
type SignupReq struct {
	Provider    string `json:"provider" binding:"required"`
	Phone       string `json:"phone" binding:"required,phone"`
	Password    string `json:"password" binding:"omitempty,min=6,max=64"`
	Name        string `json:"name" binding:"max=32"`
	Code        string `json:"code" binding:"required,len=4,numeric"`
	Token       string `json:"token" binding:"required"`
	SignupToken string `json:"signupToken"`
}

type LoginReq struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshReq struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type ResetPasswordReq struct {
	Phone    string `json:"phone" binding:"required,phone"`
	Token    string `json:"token" binding:"required"`
	Code     string `json:"code" binding:"required,len=4,numeric"`
	Password string `json:"password" binding:"required,min=6,max=64"`
}

type AdminLoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SendPhoneCode 发送短信验证码，返回验证 token
func (h *AuthHandler) SendPhoneCode(c *gin.Context) {
	var req PhoneCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	token, err := h.svc.SendPhoneCode(c.Request.Context(), req.Phone)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, gin.H{"token": token})
}

func (h *AuthHandler) VerifyPhone(c *gin.Context) {
	var req PhoneVerifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	if err := h.svc.VerifyPhone(c.Request.Context(), req.Token, req.Code); err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, gin.H{"verified": true})
}

// Signup 注册接口
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	view, err := h.svc.Signup(c.Request.Context(), service.SignupInput{
		Provider:    req.Provider,
		Phone:       req.Phone,
		Password:    req.Password,
		Name:        req.Name,
		Code:        req.Code,
		Token:       req.Token,
		SignupToken: req.SignupToken,
	})
	if err != nil {
		fail(c, err)
		return
	}
	setAuthCookie(c, h.svc.Tokens(), view.Token, pkg.KindUser)
	pkg.Created(c, view)
}

// Login 登录接口
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	view, err := h.svc.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	setAuthCookie(c, h.svc.Tokens(), view.Token, pkg.KindUser)
	pkg.OK(c, view)
}

// LoginRedirect 跳转到第三方授权页
func (h *AuthHandler) LoginRedirect(c *gin.Context) {
	url, err := h.svc.LoginURL(c.Param("provider"), c.Query("state"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		fail(c, pkg.BadRequest("인증 코드가 없습니다."))
		return
	}
	view, err := h.svc.OAuthCallback(c.Request.Context(), c.Param("provider"), code)
	if err != nil {
		fail(c, err)
		return
	}
	if view.Registered {
		setAuthCookie(c, h.svc.Tokens(), view.Token, pkg.KindUser)
	}
	pkg.OK(c, view)
}

// Refresh 利用 refresh token 换新的会话令牌
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	view, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	setAuthCookie(c, h.svc.Tokens(), view.Token, pkg.KindUser)
	pkg.OK(c, view)
}

// Logout 令牌无状态，只清 cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	c.Header("Set-Cookie", h.svc.Tokens().ClearCookie())
	pkg.Respond(c, http.StatusOK, "로그아웃 되었습니다.", nil)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req.Phone, req.Token, req.Code, req.Password); err != nil {
		fail(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, "비밀번호가 변경되었습니다.", nil)
}

func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req AdminLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	token, admin, err := h.svc.AdminLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	setAuthCookie(c, h.svc.Tokens(), token, pkg.KindAdmin)
	pkg.OK(c, gin.H{"token": token, "admin": admin})
}
