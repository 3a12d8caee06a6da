package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Avstn1/shearworkWEB-sub002/pkg/response"
)

// BodyLimit 请求体大小限制中间件
//
// 拉取请求体只有几个开关字段。声明的 Content-Length 超限时直接 413；
// 未声明长度（chunked）时由 MaxBytesReader 截断，处理器绑定参数时识别 *http.MaxBytesError
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
