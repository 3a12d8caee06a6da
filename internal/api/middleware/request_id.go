package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	applogger "github.com/Avstn1/shearworkWEB-sub002/pkg/logger"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	// 外部传入的 ID 超过该长度时重新生成，避免污染日志
	requestIDMaxLen = 64
)

// RequestID 请求追踪 ID 中间件
//
// 沿用上游网关的 X-Request-ID，缺失时生成 UUID。ID 同时写入 gin.Context、
// 响应头和 Request.Context()，服务层按平台记录的拉取日志由此带上 request_id
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.NewString()
		}

		c.Set(requestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Request = c.Request.WithContext(applogger.WithRequestID(c.Request.Context(), rid))

		c.Next()
	}
}
