package xanalytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xiaoshicae/xdocscan/xconfig"
	"github.com/xiaoshicae/xdocscan/xhttp"
	"github.com/xiaoshicae/xdocscan/xscan"
	"github.com/xiaoshicae/xdocscan/xtrace"

	. "github.com/bytedance/mockey"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/gin-gonic/gin"
)

func newCollectorServer(collector *Collector) *httptest.Server {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	collector.Register(engine)
	return httptest.NewServer(engine)
}

func TestConfigMergeDefault(t *testing.T) {
	PatchConvey("TestConfigMergeDefault", t, func() {
		So(configMergeDefault(nil), ShouldResemble, &Config{
			Path:          "/v1/events",
			BatchSize:     32,
			QueueSize:     1024,
			FlushInterval: "1s",
		})
	})
}

func TestHTTPSink(t *testing.T) {
	PatchConvey("TestHTTPSink", t, func() {
		collector := NewCollector("", 10, nil)
		srv := newCollectorServer(collector)
		defer srv.Close()

		PatchConvey("TestHTTPSink-Deliver", func() {
			sink, err := NewHTTPSink(&Config{Endpoint: srv.URL, BatchSize: 2, FlushInterval: "20ms"}, xhttp.NewClient(nil))
			So(err, ShouldBeNil)

			ctx := xtrace.ContextWithSession(context.Background(), "session-1")
			sink.Record(ctx, xscan.EngineAvailabilityEvent{Required: true, InitSuccess: true})
			sink.Record(ctx, xscan.EngineErrorEvent{ErrorKind: xscan.EngineErrorRunner})
			sink.Record(ctx, xscan.EngineAvailabilityEvent{Required: false})
			So(sink.Close(), ShouldBeNil)
			So(sink.Close(), ShouldBeNil)

			sent, dropped, failed := sink.Stats()
			So(sent, ShouldEqual, 3)
			So(dropped, ShouldEqual, 0)
			So(failed, ShouldEqual, 0)
			So(collector.Counts(), ShouldResemble, map[string]int64{
				xscan.EventEngineAvailability: 2,
				xscan.EventEngineError:        1,
			})

			recent := collector.Recent()
			So(recent[0].ID, ShouldNotBeEmpty)
			So(recent[0].ID, ShouldNotEqual, recent[1].ID)
			So(recent[0].SessionID, ShouldEqual, "session-1")
			var ev xscan.EngineErrorEvent
			So(json.Unmarshal(recent[1].Payload, &ev), ShouldBeNil)
			So(ev.ErrorKind, ShouldEqual, xscan.EngineErrorRunner)

			// 关闭后的事件直接丢弃
			sink.Record(ctx, xscan.EngineErrorEvent{ErrorKind: xscan.EngineErrorTimeout})
			_, dropped, _ = sink.Stats()
			So(dropped, ShouldEqual, 1)
		})

		PatchConvey("TestHTTPSink-Rejected", func() {
			bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			}))
			defer bad.Close()

			sink, err := NewHTTPSink(&Config{Endpoint: bad.URL}, xhttp.NewClient(nil))
			So(err, ShouldBeNil)
			sink.Record(context.Background(), xscan.EngineErrorEvent{ErrorKind: xscan.EngineErrorUnknown})
			So(sink.Close(), ShouldBeNil)
			_, _, failed := sink.Stats()
			So(failed, ShouldEqual, 1)
		})

		PatchConvey("TestHTTPSink-InvalidConfig", func() {
			_, err := NewHTTPSink(&Config{}, xhttp.NewClient(nil))
			So(err, ShouldNotBeNil)
			_, err = NewHTTPSink(&Config{Endpoint: srv.URL}, nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestCollector(t *testing.T) {
	PatchConvey("TestCollector", t, func() {
		var handled []string
		collector := NewCollector("/events", 2, func(_ context.Context, env Envelope) {
			handled = append(handled, env.ID)
		})
		srv := newCollectorServer(collector)
		defer srv.Close()

		post := func(body string) int {
			resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			return resp.StatusCode
		}

		So(post(`{"events":[]}`), ShouldEqual, http.StatusBadRequest)
		So(post(`{"events":[{"id":"a"}]}`), ShouldEqual, http.StatusBadRequest)
		So(post(`not json`), ShouldEqual, http.StatusBadRequest)

		So(post(`{"events":[{"id":"a","name":"x"},{"id":"b","name":"x"},{"id":"c","name":"y"}]}`), ShouldEqual, http.StatusOK)
		So(handled, ShouldResemble, []string{"a", "b", "c"})
		So(collector.Counts(), ShouldResemble, map[string]int64{"x": 2, "y": 1})

		recent := collector.Recent()
		So(len(recent), ShouldEqual, 2)
		So(recent[0].ID, ShouldEqual, "b")

		resp, err := http.Get(srv.URL + "/events/stats")
		So(err, ShouldBeNil)
		defer resp.Body.Close()
		var stats struct {
			Counts map[string]int64 `json:"counts"`
		}
		So(json.NewDecoder(resp.Body).Decode(&stats), ShouldBeNil)
		So(stats.Counts["x"], ShouldEqual, 2)
	})
}

func TestMultiSink(t *testing.T) {
	PatchConvey("TestMultiSink", t, func() {
		var names []string
		record := xscan.AnalyticsSinkFunc(func(_ context.Context, e xscan.Event) {
			names = append(names, e.EventName())
		})
		MultiSink{record, nil, LogSink{}, record}.Record(context.Background(), xscan.EngineErrorEvent{ErrorKind: xscan.EngineErrorTimeout})
		So(names, ShouldResemble, []string{xscan.EventEngineError, xscan.EventEngineError})
	})
}

func TestInitXAnalytics(t *testing.T) {
	PatchConvey("TestInitXAnalytics-NoConfig", t, func() {
		Mock(xconfig.ContainKey).Return(false).Build()
		So(initXAnalytics(), ShouldBeNil)
		So(defaultSink, ShouldBeNil)
		So(closeXAnalytics(), ShouldBeNil)
	})

	PatchConvey("TestInitXAnalytics-WithConfig", t, func() {
		collector := NewCollector("", 10, nil)
		srv := newCollectorServer(collector)
		defer srv.Close()

		Mock(xconfig.ContainKey).Return(true).Build()
		Mock(xconfig.UnmarshalConfig).To(func(key string, conf any) error {
			conf.(*Config).Endpoint = srv.URL
			conf.(*Config).Console = true
			return nil
		}).Build()

		So(initXAnalytics(), ShouldBeNil)
		So(defaultSink, ShouldNotBeNil)
		defaultSink.Record(context.Background(), xscan.EngineAvailabilityEvent{Required: true})
		So(closeXAnalytics(), ShouldBeNil)
		So(defaultSink, ShouldBeNil)
		So(collector.Counts()[xscan.EventEngineAvailability], ShouldEqual, 1)
	})
}
