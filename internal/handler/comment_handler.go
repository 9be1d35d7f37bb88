package handler

import (
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/middleware"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	svc *service.CommentService
}

func NewCommentHandler(svc *service.CommentService) *CommentHandler {
	return &CommentHandler{svc: svc}
}

type CommentReq struct {
	Content     string `json:"content" binding:"required,max=1000"`
	IsAnonymous bool   `json:"isAnonymous"`
}

func (r CommentReq) input() service.CommentInput {
	return service.CommentInput{Content: r.Content, IsAnonymous: r.IsAnonymous}
}

func (h *CommentHandler) Create(c *gin.Context) {
	articleID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	view, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), articleID, req.input())
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, view)
}

// List 评论分页，回复挂在各自评论下
func (h *CommentHandler) List(c *gin.Context) {
	articleID, ok := paramID(c, "id")
	if !ok {
		return
	}
	page, err := h.svc.List(c.Request.Context(), middleware.UserID(c), articleID, queryPage(c))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, page)
}

func (h *CommentHandler) Delete(c *gin.Context) {
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

func (h *CommentHandler) Like(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.ToggleLike(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, view)
}

func (h *CommentHandler) CreateReComment(c *gin.Context) {
	commentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	view, err := h.svc.CreateReComment(c.Request.Context(), middleware.UserID(c), commentID, req.input())
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, view)
}

func (h *CommentHandler) DeleteReComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteReComment(c.Request.Context(), middleware.UserID(c), id); err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, nil)
}

func (h *CommentHandler) LikeReComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.ToggleReCommentLike(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, view)
}
