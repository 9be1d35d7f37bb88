package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/redis"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*redis.RateResult, error)
}

type RateRule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// ClientKey 代理头的第一跳，没有时用连接的远端地址
func ClientKey(c *gin.Context, header string) string {
	if header != "" {
		if v := c.GetHeader(header); v != "" {
			if first := strings.TrimSpace(strings.Split(v, ",")[0]); first != "" {
				return first
			}
		}
	}
	return c.RemoteIP()
}

// RateLimit 固定窗口限流；redis 出错时放行并记录日志
func RateLimit(limiter Limiter, rule RateRule, proxyHeader, message string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rule.Name + ":" + ClientKey(c, proxyHeader)
		res, err := limiter.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(res.ResetIn.Round(time.Second).Seconds())))
			abort(c, &pkg.AppError{Status: http.StatusTooManyRequests, Message: message})
			return
		}
		c.Next()
	}
}
