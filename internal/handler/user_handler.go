package handler

import (
	"net/http"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/middleware"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc    *service.UserService
	images *service.ImageService
	tokens *pkg.TokenIssuer
}

type UpdateNameReq struct {
	Name string `json:"name" binding:"required,min=1,max=32"`
}

type ChangePasswordReq struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=64"`
}

func NewUserHandler(svc *service.UserService, images *service.ImageService, tokens *pkg.TokenIssuer) *UserHandler {
	return &UserHandler{svc: svc, images: images, tokens: tokens}
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.svc.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, user)
}

// Get 公开资料
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, user)
}

func (h *UserHandler) UpdateName(c *gin.Context) {
	var req UpdateNameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	user, err := h.svc.UpdateName(c.Request.Context(), middleware.UserID(c), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, user)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), middleware.UserID(c), req.OldPassword, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, "비밀번호가 변경되었습니다.", nil)
}

// Delete 注销账号并清 cookie
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.Header("Set-Cookie", h.tokens.ClearCookie())
	pkg.Respond(c, http.StatusOK, "탈퇴되었습니다.", nil)
}

func (h *UserHandler) UploadProfileImage(c *gin.Context) {
	up, ok := formUpload(c)
	if !ok {
		return
	}
	defer up.close()
	img, err := h.images.UploadProfile(c.Request.Context(), middleware.UserID(c), up.Upload)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, img)
}
