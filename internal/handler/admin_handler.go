package handler

import (
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/middleware"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler 后台审核、广告、大赛和管理员账号
type AdminHandler struct {
	mod    *service.ModerationService
	ads    *service.AdService
	fights *service.FightService
	cache  *service.CacheService
}

func NewAdminHandler(mod *service.ModerationService, ads *service.AdService, fights *service.FightService,
	cache *service.CacheService) *AdminHandler {
	return &AdminHandler{mod: mod, ads: ads, fights: fights, cache: cache}
}

type ProcessReq struct {
	Status  string `json:"status" binding:"required,oneof=success deny"`
	Message string `json:"message" binding:"max=255"`
}

type AdReq struct {
	Title    string    `json:"title" binding:"required,max=100"`
	ImageURL string    `json:"imageUrl" binding:"required,url"`
	Link     string    `json:"link" binding:"omitempty,url"`
	StartAt  time.Time `json:"startAt" binding:"required"`
	EndAt    time.Time `json:"endAt" binding:"required"`
}

type FightReq struct {
	Title       string    `json:"title" binding:"required,max=100"`
	Description string    `json:"description" binding:"max=1000"`
	Requirement string    `json:"requirement" binding:"required"`
	StartAt     time.Time `json:"startAt" binding:"required"`
	EndAt       time.Time `json:"endAt" binding:"required"`
}

type CreateAdminReq struct {
	Username   string `json:"username" binding:"required,min=3,max=32"`
	Password   string `json:"password" binding:"required,min=8,max=64"`
	Name       string `json:"name" binding:"required,max=32"`
	Permission int64  `json:"permission" binding:"min=0"`
}

func (h *AdminHandler) Me(c *gin.Context) {
	admin, err := h.mod.Admin(c.Request.Context(), middleware.AdminID(c))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, admin)
}

// ListVerifies status 为空时不过滤
func (h *AdminHandler) ListVerifies(c *gin.Context) {
	page, err := h.mod.ListVerifies(c.Request.Context(), c.Query("status"), queryPage(c))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, page)
}

func (h *AdminHandler) ProcessVerify(c *gin.Context) {
	id, req, ok := bindProcess(c)
	if !ok {
		return
	}
	v, err := h.mod.ProcessVerify(c.Request.Context(), middleware.AdminID(c), id, req.Status, req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, v)
}

func (h *AdminHandler) ListReports(c *gin.Context) {
	page, err := h.mod.ListReports(c.Request.Context(), c.Query("status"), queryPage(c))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, page)
}

func (h *AdminHandler) ProcessReport(c *gin.Context) {
	id, req, ok := bindProcess(c)
	if !ok {
		return
	}
	r, err := h.mod.ProcessReport(c.Request.Context(), middleware.AdminID(c), id, req.Status, req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, r)
}

func (h *AdminHandler) ListBoardRequests(c *gin.Context) {
	page, err := h.mod.ListBoardRequests(c.Request.Context(), c.Query("status"), queryPage(c))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, page)
}

// ProcessBoardRequest 通过时同时建板块
func (h *AdminHandler) ProcessBoardRequest(c *gin.Context) {
	id, req, ok := bindProcess(c)
	if !ok {
		return
	}
	br, err := h.mod.ProcessBoardRequest(c.Request.Context(), middleware.AdminID(c), id, req.Status, req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, br)
}

func (h *AdminHandler) ListAds(c *gin.Context) {
	list, err := h.ads.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, list)
}

func (h *AdminHandler) CreateAd(c *gin.Context) {
	var req AdReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	ad, err := h.ads.Create(c.Request.Context(), service.AdInput{
		Title:    req.Title,
		ImageURL: req.ImageURL,
		Link:     req.Link,
		StartAt:  req.StartAt,
		EndAt:    req.EndAt,
	})
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, ad)
}

func (h *AdminHandler) DeleteAd(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.ads.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, nil)
}

func (h *AdminHandler) CreateFight(c *gin.Context) {
	var req FightReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	f, err := h.fights.Create(c.Request.Context(), service.FightInput{
		Title:       req.Title,
		Description: req.Description,
		Requirement: req.Requirement,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	})
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, f)
}

func (h *AdminHandler) ListAdmins(c *gin.Context) {
	list, err := h.mod.ListAdmins(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, list)
}

func (h *AdminHandler) CreateAdmin(c *gin.Context) {
	var req CreateAdminReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	admin, err := h.mod.CreateAdmin(c.Request.Context(), req.Username, req.Password, req.Name, req.Permission)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, admin)
}

func (h *AdminHandler) CacheExists(c *gin.Context) {
	ok, err := h.cache.Exists(c.Request.Context(), c.Param("key"))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, gin.H{"exists": ok})
}

func (h *AdminHandler) DeleteCache(c *gin.Context) {
	if err := h.cache.Delete(c.Request.Context(), c.Param("key")); err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, nil)
}

func (h *AdminHandler) FlushCache(c *gin.Context) {
	n, err := h.cache.Flush(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, gin.H{"deleted": n})
}

func bindProcess(c *gin.Context) (uint64, ProcessReq, bool) {
	var req ProcessReq
	id, ok := paramID(c, "id")
	if !ok {
		return 0, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return 0, req, false
	}
	return id, req, true
}
