package xdocscan

import (
	"errors"
	"testing"

	"github.com/xiaoshicae/xdocscan/xhook"
	"github.com/xiaoshicae/xdocscan/xserver"

	. "github.com/bytedance/mockey"
	. "github.com/smartystreets/goconvey/convey"
)

type stubServer struct{}

func (stubServer) Run() error  { return nil }
func (stubServer) Stop() error { return nil }

func TestR(t *testing.T) {
	PatchConvey("TestR", t, func() {
		PatchConvey("Success", func() {
			start := Mock(xhook.InvokeBeforeStartHook).Return(nil).Build()
			So(R(), ShouldBeNil)
			So(start.Times(), ShouldEqual, 1)
		})

		PatchConvey("HookErr", func() {
			Mock(xhook.InvokeBeforeStartHook).Return(errors.New("hook err")).Build()
			So(R(), ShouldNotBeNil)
		})
	})
}

func TestRunServer(t *testing.T) {
	PatchConvey("TestRunServer", t, func() {
		run := Mock(xserver.Run).Return(nil).Build()
		So(RunServer(stubServer{}), ShouldBeNil)
		So(run.Times(), ShouldEqual, 1)
	})
}

func TestShutdown(t *testing.T) {
	PatchConvey("TestShutdown", t, func() {
		stop := Mock(xhook.InvokeBeforeStopHook).Return(errors.New("stop err")).Build()
		So(Shutdown(), ShouldNotBeNil)
		So(stop.Times(), ShouldEqual, 1)
	})
}
