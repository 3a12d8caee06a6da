package logger

import (
	"context"

	"go.uber.org/zap"
)

type requestIDKey struct{}

// WithRequestID 将请求 ID 放入 ctx，随拉取流程传递到各平台流水线
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestIDFromContext 取出请求 ID，不存在时返回空串
func RequestIDFromContext(ctx context.Context) string {
	rid, _ := ctx.Value(requestIDKey{}).(string)
	return rid
}

// FromContext 为 logger 附加 ctx 中的请求 ID；定时任务等无请求 ID 时原样返回
func FromContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if rid := RequestIDFromContext(ctx); rid != "" {
		return logger.With(zap.String("request_id", rid))
	}
	return logger
}
