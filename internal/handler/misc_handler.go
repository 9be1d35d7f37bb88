package handler

import (
	"strconv"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/middleware"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// MiscHandler 举报、广告、图片和公交这些零散接口
type MiscHandler struct {
	reports *service.ReportService
	ads     *service.AdService
	images  *service.ImageService
	bus     *service.BusService
}

func NewMiscHandler(reports *service.ReportService, ads *service.AdService, images *service.ImageService, bus *service.BusService) *MiscHandler {
	return &MiscHandler{reports: reports, ads: ads, images: images, bus: bus}
}

type ReportReq struct {
	TargetType string `json:"targetType" binding:"required"`
	TargetID   uint64 `json:"targetId" binding:"required"`
	Message    string `json:"message" binding:"required,max=500"`
}

func (h *MiscHandler) Report(c *gin.Context) {
	var req ReportReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	r, err := h.reports.Create(c.Request.Context(), middleware.UserID(c), req.TargetType, req.TargetID, req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, r)
}

// RandomAd 随机取一条投放中的广告
func (h *MiscHandler) RandomAd(c *gin.Context) {
	ad, err := h.ads.Random(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, ad)
}

func (h *MiscHandler) UploadImage(c *gin.Context) {
	up, ok := formUpload(c)
	if !ok {
		return
	}
	defer up.close()
	category := c.DefaultPostForm("category", service.CategoryArticle)
	img, err := h.images.Upload(c.Request.Context(), middleware.UserID(c), category, up.Upload)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.Created(c, img)
}

func (h *MiscHandler) GetImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	img, err := h.images.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, img)
}

func (h *MiscHandler) DeleteImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.images.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, nil)
}

// BusStops 缺省坐标时用本校坐标
func (h *MiscHandler) BusStops(c *gin.Context) {
	lat, ok := queryFloat(c, "lat")
	if !ok {
		return
	}
	lng, ok := queryFloat(c, "lng")
	if !ok {
		return
	}
	stops, err := h.bus.Stops(c.Request.Context(), middleware.UserID(c), lat, lng)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, stops)
}

func (h *MiscHandler) BusArrivals(c *gin.Context) {
	list, err := h.bus.Arrivals(c.Request.Context(), c.Query("cityCode"), c.Query("nodeId"))
	if err != nil {
		fail(c, err)
		return
	}
	pkg.OK(c, list)
}

func queryFloat(c *gin.Context, name string) (*float64, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		badParams(c)
		return nil, false
	}
	return &v, true
}
