package xutil

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// GetTraceIDFromCtx 从ctx获取TraceID，ctx 中无有效 span 时返回空字符串
func GetTraceIDFromCtx(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanIDFromCtx 从ctx获取SpanID，ctx 中无有效 span 时返回空字符串
func GetSpanIDFromCtx(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}
