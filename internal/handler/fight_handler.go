package handler

import (
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/middleware"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type FightHandler struct {
	svc         *service.FightService
	connections *service.ConnectionService
}

func NewFightHandler(svc *service.FightService, connections *service.ConnectionService) *FightHandler {
	return &FightHandler{svc: svc, connections: connections}
}

type ConnectReq struct {
	Code string `json:"code" binding:"required"`
}

func (h *FightHandler) List(c *gin.Context) {
	list, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, list)
}

// Detail 排行榜和本校名次
func (h *FightHandler) Detail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.Detail(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, view)
}

func (h *FightHandler) Register(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.Register(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, view)
}

// Connect 绑定参赛用的外部账号
func (h *FightHandler) Connect(c *gin.Context) {
	var req ConnectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	view, err := h.connections.Connect(c.Request.Context(), middleware.UserID(c), c.Param("provider"), req.Code)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, view)
}

func (h *FightHandler) Connections(c *gin.Context) {
	list, err := h.connections.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, list)
}

func (h *FightHandler) Disconnect(c *gin.Context) {
	if err := h.connections.Delete(c.Request.Context(), middleware.UserID(c), c.Param("provider")); err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, nil)
}
