package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mssola/user_agent"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// RequestID 沿用上游传入的请求 id，没有则生成
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(pkg.ContextRequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ua := user_agent.New(c.Request.UserAgent())
		browser, _ := ua.Browser()
		fields := []zap.Field{
			zap.String("request_id", c.GetString(pkg.ContextRequestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("browser", browser),
			zap.String("os", ua.OS()),
			zap.Bool("mobile", ua.Mobile()),
		}
		if id := UserID(c); id != 0 {
			fields = append(fields, zap.Uint64("user_id", id))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request completed", fields...)
		case ua.Bot():
			log.Debug("request completed", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}

// ErrorHandler 把 handler 通过 c.Error 记录的错误统一写成响应信封
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr := pkg.AsAppError(c.Errors.Last().Err)
		fields := []zap.Field{
			zap.String("request_id", c.GetString(pkg.ContextRequestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", appErr.Status),
			zap.String("message", appErr.Message),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if id := UserID(c); id != 0 {
			fields = append(fields, zap.Uint64("user_id", id))
		}
		if id := AdminID(c); id != 0 {
			fields = append(fields, zap.Uint64("admin_id", id))
		}
		if appErr.Err != nil {
			fields = append(fields, zap.NamedError("cause", appErr.Err))
		}
		// 4xx 是调用方的问题，只记 warn
		if appErr.Status >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Warn("request rejected", fields...)
		}
		pkg.Respond(c, appErr.Status, appErr.Message, nil)
	}
}

func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic recovered",
					zap.Any("error", err),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
				)
				c.Abort()
				pkg.Respond(c, http.StatusInternalServerError, pkg.InternalMessage, nil)
			}
		}()
		c.Next()
	}
}
