package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext_AttachesRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := WithRequestID(context.Background(), "rid-1")
	FromContext(ctx, base).Info("with id")
	FromContext(context.Background(), base).Info("without id")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("期望 2 条日志，实际 %d", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "rid-1" {
		t.Errorf("期望 request_id=rid-1，实际 %v", got)
	}
	if _, ok := entries[1].ContextMap()["request_id"]; ok {
		t.Error("ctx 中没有请求 ID 时不应附加字段")
	}
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	if rid := RequestIDFromContext(context.Background()); rid != "" {
		t.Errorf("期望空串，实际 %q", rid)
	}
}
