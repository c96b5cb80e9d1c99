package xgin

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xiaoshicae/xdocscan/xconfig"
	"github.com/xiaoshicae/xdocscan/xtrace"

	. "github.com/bytedance/mockey"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfig(t *testing.T) {
	PatchConvey("TestConfig", t, func() {
		So(configMergeDefault(nil), ShouldResemble, &Config{Host: "0.0.0.0", Port: 8000})

		Mock(xconfig.UnmarshalConfig).To(func(key string, conf any) error {
			conf.(*Config).Port = 9100
			return nil
		}).Build()
		So(GetConfig(), ShouldResemble, &Config{Host: "0.0.0.0", Port: 9100})
	})
}

func TestShouldSkipLog(t *testing.T) {
	PatchConvey("TestShouldSkipLog", t, func() {
		skip := []string{"/healthz", "/internal/"}
		So(shouldSkipLog("/healthz", skip), ShouldBeTrue)
		So(shouldSkipLog("/healthz/x", skip), ShouldBeFalse)
		So(shouldSkipLog("/internal/a/b", skip), ShouldBeTrue)
		So(shouldSkipLog("/v1/events", skip), ShouldBeFalse)
	})
}

func TestXGinEngine(t *testing.T) {
	PatchConvey("TestXGinEngine", t, func() {
		prevProvider := otel.GetTracerProvider()
		prevPropagator := otel.GetTextMapPropagator()
		sr := tracetest.NewSpanRecorder()
		otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
		otel.SetTextMapPropagator(xtrace.NewSessionPropagator(""))
		defer func() {
			otel.SetTracerProvider(prevProvider)
			otel.SetTextMapPropagator(prevPropagator)
		}()

		var session string
		g := New(LogSkipPaths("/healthz")).WithRouteRegister(func(e *gin.Engine) {
			e.GET("/panic", func(*gin.Context) { panic("boom") })
			e.GET("/session", func(c *gin.Context) {
				session = xtrace.SessionFromContext(c.Request.Context())
				c.String(http.StatusOK, "ok")
			})
		})
		engine := g.Engine()
		So(g.Engine(), ShouldEqual, engine)

		PatchConvey("TestXGinEngine-Healthz", func() {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get(traceIDHeader), ShouldNotBeEmpty)
		})

		PatchConvey("TestXGinEngine-Recover", func() {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})

		PatchConvey("TestXGinEngine-Session", func() {
			req := httptest.NewRequest(http.MethodGet, "/session", nil)
			req.Header.Set("X-Scan-Session", "s-42")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(session, ShouldEqual, "s-42")

			spans := sr.Ended()
			So(len(spans), ShouldBeGreaterThan, 0)
			So(spans[len(spans)-1].Name(), ShouldEqual, "GET /session")
		})

		PatchConvey("TestXGinEngine-MethodNotAllowed", func() {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/healthz", nil))
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestXGinRunStop(t *testing.T) {
	PatchConvey("TestXGinRunStop", t, func() {
		g := New(WithConfig(&Config{Host: "127.0.0.1", Port: 18931}), EnableLogMiddleware(false), EnableTraceMiddleware(false))
		So(g.Stop(), ShouldBeNil)

		errCh := make(chan error, 1)
		go func() { errCh <- g.Run() }()

		var resp *http.Response
		var err error
		for range 50 {
			resp, err = http.Get("http://127.0.0.1:18931/healthz")
			if err == nil {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		So(err, ShouldBeNil)
		resp.Body.Close()
		So(resp.StatusCode, ShouldEqual, http.StatusOK)

		So(g.Stop(), ShouldBeNil)
		So(<-errCh, ShouldBeNil)
	})
}
