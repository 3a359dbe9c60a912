package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/logger"
)

// RequestIDHeader 请求ID头
const RequestIDHeader = "X-Request-ID"

// RequestID 为每个请求分配ID并回写到响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(RequestIDHeader, id)
		}
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger 请求日志
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 长连接的耗时没有意义，由 Hub 记录连接日志
		if c.IsWebsocket() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		logger.LogRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}

// Recovery 捕获 panic 并返回 500
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.LogPanic(recovered, debug.Stack())
		err := apperrors.New(apperrors.ErrUnknown, "服务器内部错误")
		err.Stack = nil
		c.AbortWithStatusJSON(http.StatusInternalServerError, apperrors.NewErrorResponse(err, c.GetHeader(RequestIDHeader)))
	})
}
