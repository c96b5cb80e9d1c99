package xtrace

import (
	"context"
	"sync"
	"time"

	"github.com/xiaoshicae/xdocscan/xconfig"
	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xhook"
	"github.com/xiaoshicae/xdocscan/xutil"

	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	instrumentationName     = "github.com/xiaoshicae/xdocscan"
	defaultShutdownTimeout = 5 * time.Second
)

var (
	shutdownFunc func(context.Context) error
	shutdownMu   sync.Mutex
)

func init() {
	xhook.BeforeStart(initXTrace, xhook.Order(3))
	xhook.BeforeStop(shutdownXTrace, xhook.Order(900))
}

// Tracer 返回 xdocscan 使用的 tracer，未初始化时为 otel 全局默认实现
func Tracer() oteltrace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Enabled 是否已安装 sdk TracerProvider
func Enabled() bool {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	return shutdownFunc != nil
}

func initXTrace() error {
	c := &Config{}
	if err := xconfig.UnmarshalConfig(XTraceConfigKey, c); err != nil {
		return xerror.Newf("xtrace", "init", "unmarshal config failed, err=[%w]", err)
	}
	c = configMergeDefault(c)

	otel.SetTextMapPropagator(newPropagator(c.SessionHeader))

	if !*c.Enable {
		otel.SetTracerProvider(noop.NewTracerProvider())
		xutil.InfoIfEnableDebug("xdocscan initXTrace skipped, XTrace.Enable=false")
		return nil
	}
	return initXTraceByConfig(c, xconfig.GetAppName(), xconfig.GetAppVersion())
}

// newPropagator tracecontext + baggage + b3 + 会话ID
func newPropagator(sessionHeader string) propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
		b3.New(b3.WithInjectEncoding(b3.B3MultipleHeader)),
		NewSessionPropagator(sessionHeader),
	)
}

func initXTraceByConfig(c *Config, appName, appVersion string) error {
	res, err := resource.New(
		context.Background(),
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", appName),
			attribute.String("service.version", appVersion),
		),
	)
	if err != nil {
		return xerror.Newf("xtrace", "init", "create resource failed, err=[%w]", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithResource(res),
	}
	if c.Console {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return xerror.Newf("xtrace", "init", "create stdout exporter failed, err=[%w]", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	shutdownMu.Lock()
	shutdownFunc = tp.Shutdown
	shutdownMu.Unlock()
	return nil
}

func shutdownXTrace() error {
	shutdownMu.Lock()
	fn := shutdownFunc
	shutdownFunc = nil
	shutdownMu.Unlock()
	if fn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	return fn(ctx)
}
