package handler

import (
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/middleware"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type SchoolHandler struct {
	svc *service.SchoolService
}

func NewSchoolHandler(svc *service.SchoolService) *SchoolHandler {
	return &SchoolHandler{svc: svc}
}

type VerifyReq struct {
	SchoolID uint64 `json:"schoolId" binding:"required"`
	Grade    int    `json:"grade" binding:"required,min=1,max=6"`
	Class    string `json:"class" binding:"required,max=8"`
	Dept     string `json:"dept" binding:"max=32"`
	ImageID  uint64 `json:"imageId" binding:"required"`
}

// Search 按学校名搜索，结果会顺带缓存到本地
func (h *SchoolHandler) Search(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		badParams(c)
		return
	}
	list, err := h.svc.Search(c.Request.Context(), name)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, list)
}

func (h *SchoolHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	school, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, school)
}

// Meals date 缺省为今天，格式 YYYYMMDD
func (h *SchoolHandler) Meals(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	date := c.DefaultQuery("date", time.Now().Format("20060102"))
	if _, err := time.Parse("20060102", date); err != nil {
		fail(c, pkg.BadRequest("날짜 형식이 올바르지 않습니다."))
		return
	}
	meals, err := h.svc.Meals(c.Request.Context(), id, date)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, meals)
}

func (h *SchoolHandler) RequestVerify(c *gin.Context) {
	var req VerifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	v, err := h.svc.RequestVerify(c.Request.Context(), middleware.UserID(c), service.VerifyInput{
		SchoolID: req.SchoolID,
		Grade:    req.Grade,
		Class:    req.Class,
		Dept:     req.Dept,
		ImageID:  req.ImageID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, v)
}

func (h *SchoolHandler) MyVerifies(c *gin.Context) {
	list, err := h.svc.MyVerifies(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, list)
}

func (h *SchoolHandler) MySchool(c *gin.Context) {
	v, err := h.svc.MySchool(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, v)
}
