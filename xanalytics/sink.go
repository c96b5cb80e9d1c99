package xanalytics

import (
	"context"

	"github.com/xiaoshicae/xdocscan/xlog"
	"github.com/xiaoshicae/xdocscan/xscan"
)

// LogSink 事件写入日志
type LogSink struct{}

func (LogSink) Record(ctx context.Context, event xscan.Event) {
	xlog.Info(ctx, "[xanalytics] event=[%s]", event.EventName(), xlog.KV("event", event))
}

// MultiSink 依次投递给每个 sink，nil 会被忽略
type MultiSink []xscan.AnalyticsSink

func (m MultiSink) Record(ctx context.Context, event xscan.Event) {
	for _, s := range m {
		if s != nil {
			s.Record(ctx, event)
		}
	}
}
