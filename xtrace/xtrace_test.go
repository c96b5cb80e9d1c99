package xtrace

import (
	"context"
	"net/http"
	"testing"

	"github.com/xiaoshicae/xdocscan/xconfig"
	"github.com/xiaoshicae/xdocscan/xutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"

	. "github.com/bytedance/mockey"
	. "github.com/smartystreets/goconvey/convey"
)

func TestConfigMergeDefault(t *testing.T) {
	PatchConvey("TestConfigMergeDefault", t, func() {
		c := configMergeDefault(nil)
		So(*c.Enable, ShouldBeTrue)
		So(c.Console, ShouldBeFalse)
		So(c.SessionHeader, ShouldEqual, "X-Scan-Session")

		c = configMergeDefault(&Config{Enable: xutil.ToPtr(false), SessionHeader: "X-Sid"})
		So(*c.Enable, ShouldBeFalse)
		So(c.SessionHeader, ShouldEqual, "X-Sid")
	})
}

func TestSessionPropagator(t *testing.T) {
	PatchConvey("TestSessionPropagator", t, func() {
		p := NewSessionPropagator("x-scan-session")
		So(p.Fields(), ShouldResemble, []string{"X-Scan-Session"})

		header := http.Header{}
		p.Inject(context.Background(), propagation.HeaderCarrier(header))
		So(header.Get("X-Scan-Session"), ShouldEqual, "")

		ctx := ContextWithSession(context.Background(), "s-42")
		p.Inject(ctx, propagation.HeaderCarrier(header))
		So(header.Get("X-Scan-Session"), ShouldEqual, "s-42")

		extracted := p.Extract(context.Background(), propagation.HeaderCarrier(header))
		So(SessionFromContext(extracted), ShouldEqual, "s-42")
		So(SessionFromContext(nil), ShouldEqual, "")
		So(ContextWithSession(context.Background(), ""), ShouldEqual, context.Background())
	})
}

func TestCompositePropagator(t *testing.T) {
	PatchConvey("TestCompositePropagator", t, func() {
		tp := trace.NewTracerProvider()
		defer func() { _ = tp.Shutdown(context.Background()) }()
		ctx, span := tp.Tracer("test").Start(context.Background(), "op")
		defer span.End()
		ctx = ContextWithSession(ctx, "s-1")

		header := http.Header{}
		newPropagator("").Inject(ctx, propagation.HeaderCarrier(header))
		So(header.Get("traceparent"), ShouldNotBeEmpty)
		So(header.Get("X-B3-Traceid"), ShouldEqual, span.SpanContext().TraceID().String())
		So(header.Get("X-Scan-Session"), ShouldEqual, "s-1")
	})
}

func TestInitXTrace(t *testing.T) {
	PatchConvey("TestInitXTrace-Disabled", t, func() {
		Mock(xconfig.UnmarshalConfig).To(func(key string, conf any) error {
			conf.(*Config).Enable = xutil.ToPtr(false)
			return nil
		}).Build()
		So(initXTrace(), ShouldBeNil)
		_, span := Tracer().Start(context.Background(), "noop")
		So(span.SpanContext().IsValid(), ShouldBeFalse)
		So(shutdownXTrace(), ShouldBeNil)
	})

	PatchConvey("TestInitXTrace-Enabled", t, func() {
		defer otel.SetTracerProvider(otel.GetTracerProvider())
		So(initXTraceByConfig(configMergeDefault(&Config{Console: true}), "xdocscan", "v0.0.1"), ShouldBeNil)
		_, span := Tracer().Start(context.Background(), "real")
		So(span.SpanContext().IsValid(), ShouldBeTrue)
		span.End()
		So(shutdownXTrace(), ShouldBeNil)
		So(shutdownXTrace(), ShouldBeNil)
	})
}
