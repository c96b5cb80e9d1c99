package xhttp

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/xiaoshicae/xdocscan/xconfig"
	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xhook"
	"github.com/xiaoshicae/xdocscan/xutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	defaultClient *resty.Client
	clientMu      sync.RWMutex
)

func init() {
	xhook.BeforeStart(initXHttp, xhook.Order(5))
}

func initXHttp() error {
	c := &Config{}
	if err := xconfig.UnmarshalConfig(XHttpConfigKey, c); err != nil {
		return xerror.Newf("xhttp", "init", "unmarshal config failed, err=[%w]", err)
	}
	c = configMergeDefault(c)
	xutil.InfoIfEnableDebug("xdocscan initXHttp got config: %s", xutil.ToJsonString(c))

	client := NewClient(c)
	clientMu.Lock()
	defaultClient = client
	clientMu.Unlock()
	return nil
}

// NewClient 按配置创建 resty client，底层 transport 带 otel 埋点，请求会透传 trace 与扫描会话ID
func NewClient(c *Config) *resty.Client {
	c = configMergeDefault(c)

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = c.MaxIdleConnsPerHost
	transport.IdleConnTimeout = xutil.ToDuration(c.IdleConnTimeout)
	transport.DialContext = (&net.Dialer{Timeout: xutil.ToDuration(c.DialTimeout)}).DialContext

	raw := &http.Client{
		Transport: otelhttp.NewTransport(transport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "HTTP " + r.Method + " " + r.URL.Path
			}),
		),
		Timeout: xutil.ToDuration(c.Timeout),
	}

	client := resty.NewWithClient(raw)
	if c.RetryCount > 0 {
		client.
			SetRetryCount(c.RetryCount).
			SetRetryWaitTime(xutil.ToDuration(c.RetryWaitTime)).
			SetRetryMaxWaitTime(xutil.ToDuration(c.RetryMaxWaitTime)).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= http.StatusInternalServerError
			})
	}
	return client
}

// C 全局 client，未初始化时按默认配置懒加载
func C() *resty.Client {
	clientMu.RLock()
	client := defaultClient
	clientMu.RUnlock()
	if client != nil {
		return client
	}

	clientMu.Lock()
	defer clientMu.Unlock()
	if defaultClient == nil {
		defaultClient = NewClient(nil)
	}
	return defaultClient
}

// RWithCtx 创建携带 ctx 的请求，保证 trace 等信息能传递到下游
func RWithCtx(ctx context.Context) *resty.Request {
	return C().R().SetContext(ctx)
}
