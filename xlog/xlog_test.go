package xlog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/mockey"
	c "github.com/smartystreets/goconvey/convey"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/sdk/trace"
)

type memWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
	block  chan struct{}
}

func (w *memWriter) Write(p []byte) (int, error) {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *memWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *memWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestConfigMergeDefault(t *testing.T) {
	mockey.PatchConvey("TestConfigMergeDefault", t, func() {
		c.So(configMergeDefault(nil), c.ShouldResemble, &Config{
			Level:      "info",
			Name:       "xdocscan",
			Path:       "./log",
			MaxAge:     "7d",
			RotateTime: "1d",
			BufferSize: 4096,
			Timezone:   "Local",
		})

		cfg := configMergeDefault(&Config{Level: "debug", Name: "replay", Path: "/tmp/x", Console: true, BufferSize: 8, Timezone: "UTC"})
		c.So(cfg.Level, c.ShouldEqual, "debug")
		c.So(cfg.Name, c.ShouldEqual, "replay")
		c.So(cfg.BufferSize, c.ShouldEqual, 8)
		c.So(cfg.Timezone, c.ShouldEqual, "UTC")
	})
}

func TestLevels(t *testing.T) {
	mockey.PatchConvey("TestLevels", t, func() {
		c.So(parseLevel("WARN"), c.ShouldEqual, logrus.WarnLevel)
		c.So(parseLevel("bogus"), c.ShouldEqual, logrus.InfoLevel)
		c.So(levelsAtOrAbove("error"), c.ShouldResemble, []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel})
		c.So(len(levelsAtOrAbove("debug")), c.ShouldEqual, 6)
	})
}

func TestCtxWithKV(t *testing.T) {
	mockey.PatchConvey("TestCtxWithKV", t, func() {
		ctx1 := CtxWithKV(context.Background(), map[string]any{"session": "s1"})
		ctx2 := CtxWithKV(ctx1, map[string]any{"frame": 3})
		c.So(kvFromCtx(ctx1), c.ShouldResemble, map[string]any{"session": "s1"})
		c.So(kvFromCtx(ctx2), c.ShouldResemble, map[string]any{"session": "s1", "frame": 3})
		c.So(kvFromCtx(nil), c.ShouldBeNil)
	})
}

func TestRawLogWithHook(t *testing.T) {
	mockey.PatchConvey("TestRawLogWithHook", t, func() {
		std := logrus.StandardLogger()
		out := &bytes.Buffer{}
		console := &bytes.Buffer{}
		oldOut, oldFormatter := std.Out, std.Formatter
		std.SetOutput(out)
		std.SetFormatter(locationFormatter{Formatter: &logrus.JSONFormatter{}, loc: time.UTC})
		hooks := make(logrus.LevelHooks)
		hooks.Add(&fieldHook{app: "xdocscan", host: "h", pid: "1", console: console})
		oldHooks := std.ReplaceHooks(hooks)
		defer func() {
			std.ReplaceHooks(oldHooks)
			std.SetOutput(oldOut)
			std.SetFormatter(oldFormatter)
		}()

		tp := trace.NewTracerProvider()
		ctx, span := tp.Tracer("test").Start(context.Background(), "op")
		defer span.End()
		ctx = CtxWithKV(ctx, map[string]any{"session": "s1"})

		Info(ctx, "[xscan] state=[%s]", "warming_up", KV("frame", 7))

		line := out.String()
		c.So(line, c.ShouldContainSubstring, `"msg":"[xscan] state=[warming_up]"`)
		c.So(line, c.ShouldContainSubstring, `"frame":7`)
		c.So(line, c.ShouldContainSubstring, `"session":"s1"`)
		c.So(line, c.ShouldContainSubstring, `"app":"xdocscan"`)
		c.So(line, c.ShouldContainSubstring, span.SpanContext().TraceID().String())
		c.So(console.String(), c.ShouldContainSubstring, "INFO")
		c.So(console.String(), c.ShouldContainSubstring, "[xscan] state=[warming_up]")
	})
}

func TestAsyncWriter(t *testing.T) {
	mockey.PatchConvey("TestAsyncWriter", t, func() {
		mockey.PatchConvey("TestAsyncWriter-FlushOnClose", func() {
			w := &memWriter{}
			aw := newAsyncWriter(w, 16)
			for i := 0; i < 10; i++ {
				_, err := aw.Write([]byte("line\n"))
				c.So(err, c.ShouldBeNil)
			}
			c.So(aw.Close(), c.ShouldBeNil)
			c.So(aw.Close(), c.ShouldBeNil)
			c.So(strings.Count(w.String(), "line"), c.ShouldEqual, 10)
			c.So(w.closed, c.ShouldBeTrue)

			_, err := aw.Write([]byte("late"))
			c.So(errors.Is(err, io.ErrClosedPipe), c.ShouldBeTrue)
		})

		mockey.PatchConvey("TestAsyncWriter-DropWhenFull", func() {
			w := &memWriter{block: make(chan struct{})}
			aw := newAsyncWriter(w, 1)
			for i := 0; i < 20; i++ {
				_, _ = aw.Write([]byte("x"))
			}
			c.So(aw.Dropped(), c.ShouldBeGreaterThan, 0)
			close(w.block)
			c.So(aw.Close(), c.ShouldBeNil)
		})
	})
}
