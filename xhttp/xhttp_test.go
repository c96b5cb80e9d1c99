package xhttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xiaoshicae/xdocscan/xconfig"
	"github.com/xiaoshicae/xdocscan/xtrace"

	"github.com/bytedance/mockey"
	c "github.com/smartystreets/goconvey/convey"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestConfigMergeDefault(t *testing.T) {
	mockey.PatchConvey("TestConfigMergeDefault", t, func() {
		c.So(configMergeDefault(nil), c.ShouldResemble, &Config{
			Timeout:             "5s",
			DialTimeout:         "3s",
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     "90s",
			RetryWaitTime:       "200ms",
			RetryMaxWaitTime:    "2s",
		})
		cfg := configMergeDefault(&Config{Timeout: "1s", RetryCount: 3})
		c.So(cfg.Timeout, c.ShouldEqual, "1s")
		c.So(cfg.RetryCount, c.ShouldEqual, 3)
	})
}

func TestNewClient(t *testing.T) {
	mockey.PatchConvey("TestNewClient", t, func() {
		client := NewClient(&Config{Timeout: "2s"})
		c.So(client.GetClient().Timeout, c.ShouldEqual, 2*time.Second)
		c.So(client.RetryCount, c.ShouldEqual, 0)
	})
}

func TestRetryOnServerError(t *testing.T) {
	mockey.PatchConvey("TestRetryOnServerError", t, func() {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		client := NewClient(&Config{RetryCount: 3, RetryWaitTime: "1ms", RetryMaxWaitTime: "5ms"})
		resp, err := client.R().Post(srv.URL)
		c.So(err, c.ShouldBeNil)
		c.So(resp.StatusCode(), c.ShouldEqual, http.StatusAccepted)
		c.So(hits.Load(), c.ShouldEqual, 3)
	})
}

func TestSessionHeaderPropagation(t *testing.T) {
	mockey.PatchConvey("TestSessionHeaderPropagation", t, func() {
		old := otel.GetTextMapPropagator()
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(xtrace.NewSessionPropagator("")))
		defer otel.SetTextMapPropagator(old)

		got := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got <- r.Header.Get("X-Scan-Session")
		}))
		defer srv.Close()

		ctx := xtrace.ContextWithSession(context.Background(), "s-9")
		_, err := NewClient(nil).R().SetContext(ctx).Get(srv.URL)
		c.So(err, c.ShouldBeNil)
		c.So(<-got, c.ShouldEqual, "s-9")
	})
}

func TestDefaultClient(t *testing.T) {
	mockey.PatchConvey("TestDefaultClient", t, func() {
		clientMu.Lock()
		defaultClient = nil
		clientMu.Unlock()

		lazy := C()
		c.So(lazy, c.ShouldNotBeNil)
		c.So(C(), c.ShouldEqual, lazy)
		c.So(RWithCtx(context.Background()), c.ShouldNotBeNil)

		mockey.Mock(xconfig.UnmarshalConfig).Return(nil).Build()
		c.So(initXHttp(), c.ShouldBeNil)
		c.So(C(), c.ShouldNotEqual, lazy)
	})
}
