package handler

import (
	"strconv"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

const msgInvalidParams = "잘못된 요청입니다."

// fail 交给 ErrorHandler 统一输出
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

func badParams(c *gin.Context) {
	fail(c, pkg.BadRequest(msgInvalidParams))
}

// paramID 路径参数必须是正整数
func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		fail(c, pkg.BadRequest("잘못된 ID 입니다."))
		return 0, false
	}
	return id, true
}

func queryPage(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// setAuthCookie 会话令牌同时写入 Authorization cookie
func setAuthCookie(c *gin.Context, tokens *pkg.TokenIssuer, token string, kind pkg.TokenKind) {
	c.Header("Set-Cookie", tokens.Cookie(token, kind))
}

type formFile struct {
	service.Upload
	close func() error
}

// formUpload 读取 multipart 表单里的 file 字段
func formUpload(c *gin.Context) (*formFile, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, pkg.BadRequest("이미지 파일이 필요합니다."))
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, pkg.BadRequest("이미지 파일을 읽을 수 없습니다."))
		return nil, false
	}
	return &formFile{
		Upload: service.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		},
		close: f.Close,
	}, true
}
