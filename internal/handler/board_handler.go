package handler

import (
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/middleware"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type BoardHandler struct {
	svc      *service.BoardService
	articles *service.ArticleService
}

func NewBoardHandler(svc *service.BoardService, articles *service.ArticleService) *BoardHandler {
	return &BoardHandler{svc: svc, articles: articles}
}

type BoardRequestReq struct {
	Name        string `json:"name" binding:"required,max=32"`
	Description string `json:"description" binding:"max=255"`
}

// List 公共板块加上本人学校的板块
func (h *BoardHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, list)
}

func (h *BoardHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	board, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, board)
}

func (h *BoardHandler) Articles(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	page, err := h.articles.List(c.Request.Context(), middleware.UserID(c), id, queryPage(c))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, page)
}

func (h *BoardHandler) Request(c *gin.Context) {
	var req BoardRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	r, err := h.svc.Request(c.Request.Context(), middleware.UserID(c), req.Name, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, r)
}

func (h *BoardHandler) MyRequests(c *gin.Context) {
	list, err := h.svc.MyRequests(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, list)
}
