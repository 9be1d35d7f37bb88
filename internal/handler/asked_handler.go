package handler

import (
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/middleware"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type AskedHandler struct {
	svc *service.AskedService
}

func NewAskedHandler(svc *service.AskedService) *AskedHandler {
	return &AskedHandler{svc: svc}
}

type AskedProfileReq struct {
	CustomID      string   `json:"customId" binding:"required,min=3,max=32,alphanum"`
	StatusMessage string   `json:"statusMessage" binding:"max=100"`
	Tags          []string `json:"tags" binding:"max=5,dive,max=16"`
}

type AskedPatchReq struct {
	StatusMessage *string   `json:"statusMessage" binding:"omitempty,max=100"`
	Tags          *[]string `json:"tags" binding:"omitempty,max=5,dive,max=16"`
}

type AskReq struct {
	Question    string `json:"question" binding:"required,max=500"`
	IsAnonymous bool   `json:"isAnonymous"`
}

type ReplyReq struct {
	Answer string `json:"answer" binding:"required,max=1000"`
}

func (h *AskedHandler) CreateProfile(c *gin.Context) {
	var req AskedProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	au, err := h.svc.CreateProfile(c.Request.Context(), middleware.UserID(c), service.AskedProfileInput{
		CustomID:      req.CustomID,
		StatusMessage: req.StatusMessage,
		Tags:          req.Tags,
	})
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, au)
}

// Profile 个人提问箱主页
func (h *AskedHandler) Profile(c *gin.Context) {
	view, err := h.svc.Profile(c.Request.Context(), middleware.UserID(c), c.Param("customId"), queryPage(c))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, view)
}

func (h *AskedHandler) UpdateMe(c *gin.Context) {
	var req AskedPatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	au, err := h.svc.UpdateMe(c.Request.Context(), middleware.UserID(c), service.AskedPatch{
		StatusMessage: req.StatusMessage,
		Tags:          req.Tags,
	})
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, au)
}

func (h *AskedHandler) Ask(c *gin.Context) {
	var req AskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	view, err := h.svc.Ask(c.Request.Context(), middleware.UserID(c), c.Param("customId"), req.Question, req.IsAnonymous)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, view)
}

func (h *AskedHandler) Reply(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ReplyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	view, err := h.svc.Reply(c.Request.Context(), middleware.UserID(c), id, req.Answer)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, view)
}

// Deny 拒绝回答，提问不再公开
func (h *AskedHandler) Deny(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Deny(c.Request.Context(), middleware.UserID(c), id); err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, nil)
}

func (h *AskedHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, nil)
}
