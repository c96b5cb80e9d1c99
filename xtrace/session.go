package xtrace

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/propagation"
)

const defaultSessionHeader = "X-Scan-Session"

type sessionKey struct{}

// ContextWithSession 在 ctx 中记录扫描会话ID，出站 HTTP 请求会通过 SessionPropagator 携带
func ContextWithSession(ctx context.Context, sessionID string) context.Context {
	if sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFromContext 获取扫描会话ID，不存在时返回空字符串
func SessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// SessionPropagator 在 ctx 与指定 Header 之间传递扫描会话ID
type SessionPropagator struct {
	header string
}

var _ propagation.TextMapPropagator = (*SessionPropagator)(nil)

func NewSessionPropagator(header string) *SessionPropagator {
	if header == "" {
		header = defaultSessionHeader
	}
	return &SessionPropagator{header: http.CanonicalHeaderKey(header)}
}

func (p *SessionPropagator) Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	if id := SessionFromContext(ctx); id != "" {
		carrier.Set(p.header, id)
	}
}

func (p *SessionPropagator) Extract(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return ContextWithSession(ctx, carrier.Get(p.header))
}

func (p *SessionPropagator) Fields() []string {
	return []string{p.header}
}
