package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Avstn1/shearworkWEB-sub002/pkg/monitoring"
)

// Metrics HTTP 请求指标中间件
// endpoint 使用路由模板，未匹配路由统一记为 "unmatched"，避免标签基数膨胀
func Metrics(collector *monitoring.MetricsCollector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		collector.RecordHTTPRequest(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
