package xscan

import (
	"context"
	"sync"

	"github.com/xiaoshicae/xdocscan/xlog"
)

// Event 分析事件
type Event interface {
	EventName() string
}

const (
	EventEngineAvailability = "xscan.engine_availability"
	EventEngineError        = "xscan.engine_error"
)

// EngineAvailabilityEvent 引擎构造结果，每个 Scanner 只记录一次
type EngineAvailabilityEvent struct {
	Required      bool   `json:"required"`
	InitSuccess   bool   `json:"initSuccess"`
	FailureReason string `json:"failureReason,omitempty"`
}

func (EngineAvailabilityEvent) EventName() string { return EventEngineAvailability }

// EngineErrorEvent 引擎运行期错误
type EngineErrorEvent struct {
	ErrorKind EngineErrorKind `json:"errorKind"`
}

func (EngineErrorEvent) EventName() string { return EventEngineError }

// AnalyticsSink 分析事件接收方，Record 不应阻塞帧处理
type AnalyticsSink interface {
	Record(ctx context.Context, event Event)
}

// AnalyticsSinkFunc 函数适配为 AnalyticsSink
type AnalyticsSinkFunc func(ctx context.Context, event Event)

func (f AnalyticsSinkFunc) Record(ctx context.Context, event Event) {
	f(ctx, event)
}

var (
	defaultSink   AnalyticsSink = logSink{}
	defaultSinkMu sync.RWMutex
)

// SetDefaultAnalyticsSink 替换未显式指定 sink 时使用的全局 sink，传 nil 恢复为日志输出
func SetDefaultAnalyticsSink(s AnalyticsSink) {
	defaultSinkMu.Lock()
	defer defaultSinkMu.Unlock()
	if s == nil {
		s = logSink{}
	}
	defaultSink = s
}

func getDefaultAnalyticsSink() AnalyticsSink {
	defaultSinkMu.RLock()
	defer defaultSinkMu.RUnlock()
	return defaultSink
}

type logSink struct{}

func (logSink) Record(ctx context.Context, event Event) {
	xlog.Info(ctx, "[xscan] analytics event=[%s]", event.EventName(), xlog.KV("event", event))
}
