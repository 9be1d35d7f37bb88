package pkg

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError 服务层唯一的错误类型，携带 HTTP 状态码和可展示的消息
type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

const InternalMessage = "서버 오류가 발생했습니다."

func BadRequest(msg string) error      { return &AppError{Status: http.StatusBadRequest, Message: msg} }
func Unauthorized(msg string) error    { return &AppError{Status: http.StatusUnauthorized, Message: msg} }
func Forbidden(msg string) error       { return &AppError{Status: http.StatusForbidden, Message: msg} }
func NotFound(msg string) error        { return &AppError{Status: http.StatusNotFound, Message: msg} }
func Conflict(msg string) error        { return &AppError{Status: http.StatusConflict, Message: msg} }
func TooManyRequests(msg string) error { return &AppError{Status: http.StatusTooManyRequests, Message: msg} }

// Upstream 外部 API 调用失败，不重试
func Upstream(err error) error {
	return &AppError{Status: http.StatusBadGateway, Message: "외부 서비스 요청에 실패했습니다.", Err: err}
}

// Internal 包装未预期的错误，对外只暴露通用消息
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Status: http.StatusInternalServerError, Message: InternalMessage, Err: err}
}

// AsAppError 把任意错误规整成 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Status: http.StatusInternalServerError, Message: InternalMessage, Err: err}
}
