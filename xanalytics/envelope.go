package xanalytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xiaoshicae/xdocscan/xconfig"
	"github.com/xiaoshicae/xdocscan/xscan"
	"github.com/xiaoshicae/xdocscan/xtrace"
	"github.com/xiaoshicae/xdocscan/xutil"

	"github.com/google/uuid"
)

// Envelope 上报格式，Payload 为事件本身的 json
type Envelope struct {
	ID        string          `json:"id" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	App       string          `json:"app,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	TraceID   string          `json:"traceId,omitempty"`
	Time      time.Time       `json:"time"`
	Payload   json.RawMessage `json:"payload"`
}

// Batch 一次上报请求
type Batch struct {
	Events []Envelope `json:"events" binding:"required,min=1,dive"`
}

func newEnvelope(ctx context.Context, event xscan.Event, now time.Time) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:        uuid.NewString(),
		Name:      event.EventName(),
		App:       xconfig.GetAppName(),
		SessionID: xtrace.SessionFromContext(ctx),
		TraceID:   xutil.GetTraceIDFromCtx(ctx),
		Time:      now,
		Payload:   payload,
	}, nil
}
