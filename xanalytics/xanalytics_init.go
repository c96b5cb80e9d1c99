package xanalytics

import (
	"sync"

	"github.com/xiaoshicae/xdocscan/xconfig"
	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xhook"
	"github.com/xiaoshicae/xdocscan/xhttp"
	"github.com/xiaoshicae/xdocscan/xscan"
	"github.com/xiaoshicae/xdocscan/xutil"
)

var (
	defaultSink *HTTPSink
	sinkMu      sync.Mutex
)

func init() {
	xhook.BeforeStart(initXAnalytics, xhook.Order(6))
	xhook.BeforeStop(closeXAnalytics, xhook.Order(800))
}

// initXAnalytics 配置了 XAnalytics 时将 HTTPSink 设为 xscan 的默认 sink
func initXAnalytics() error {
	if !xconfig.ContainKey(XAnalyticsConfigKey) {
		xutil.InfoIfEnableDebug("xdocscan initXAnalytics skipped, config key [%s] not exists", XAnalyticsConfigKey)
		return nil
	}

	c := &Config{}
	if err := xconfig.UnmarshalConfig(XAnalyticsConfigKey, c); err != nil {
		return xerror.Newf("xanalytics", "init", "unmarshal config failed, err=[%w]", err)
	}
	c = configMergeDefault(c)
	xutil.InfoIfEnableDebug("xdocscan initXAnalytics got config: %s", xutil.ToJsonString(c))

	sink, err := NewHTTPSink(c, xhttp.C())
	if err != nil {
		return err
	}

	sinkMu.Lock()
	defaultSink = sink
	sinkMu.Unlock()

	if c.Console {
		xscan.SetDefaultAnalyticsSink(MultiSink{LogSink{}, sink})
	} else {
		xscan.SetDefaultAnalyticsSink(sink)
	}
	return nil
}

func closeXAnalytics() error {
	sinkMu.Lock()
	sink := defaultSink
	defaultSink = nil
	sinkMu.Unlock()
	if sink == nil {
		return nil
	}

	xscan.SetDefaultAnalyticsSink(nil)
	err := sink.Close()
	sent, dropped, failed := sink.Stats()
	xutil.InfoIfEnableDebug("xdocscan closeXAnalytics, sent=[%d], dropped=[%d], failed=[%d]", sent, dropped, failed)
	return err
}
