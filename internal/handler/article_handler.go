package handler

import (
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/middleware"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type ArticleHandler struct {
	svc *service.ArticleService
}

func NewArticleHandler(svc *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{svc: svc}
}

type CreateArticleReq struct {
	Title       string   `json:"title" binding:"required,max=100"`
	Content     string   `json:"content" binding:"required,max=5000"`
	Images      []string `json:"images" binding:"max=10"`
	IsAnonymous bool     `json:"isAnonymous"`
}

// UpdateArticleReq 只更新传入的字段
type UpdateArticleReq struct {
	Title   *string   `json:"title" binding:"omitempty,min=1,max=100"`
	Content *string   `json:"content" binding:"omitempty,min=1,max=5000"`
	Images  *[]string `json:"images" binding:"omitempty,max=10"`
}

// Create 在板块下发帖
func (h *ArticleHandler) Create(c *gin.Context) {
	boardID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CreateArticleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	view, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), boardID, service.ArticleInput{
		Title:       req.Title,
		Content:     req.Content,
		Images:      req.Images,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, view)
}

func (h *ArticleHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, view)
}

func (h *ArticleHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateArticleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	view, err := h.svc.Update(c.Request.Context(), middleware.UserID(c), id, service.ArticlePatch{
		Title:   req.Title,
		Content: req.Content,
		Images:  req.Images,
	})
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, view)
}

func (h *ArticleHandler) Delete(c *gin.Context) {
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

// Like 点赞/取消点赞
func (h *ArticleHandler) Like(c *gin.Context) {
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

// Hot 本校近一周热门
func (h *ArticleHandler) Hot(c *gin.Context) {
	list, err := h.svc.Hot(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, list)
}
