package pkg

import (
	"github.com/gin-gonic/gin"
)

const ContextRequestIDKey = "request_id"

// Response 所有接口统一的响应信封
type Response struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Path      string `json:"path"`
	RequestID string `json:"requestId"`
}

func Respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{
		Status:    status,
		Message:   message,
		Data:      data,
		Path:      c.Request.URL.Path,
		RequestID: c.GetString(ContextRequestIDKey),
	})
}

func OK(c *gin.Context, data any) {
	Respond(c, 200, "요청에 성공하였습니다.", data)
}

func Created(c *gin.Context, data any) {
	Respond(c, 201, "생성되었습니다.", data)
}
