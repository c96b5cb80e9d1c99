package xhook

import (
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/bytedance/mockey"
	. "github.com/smartystreets/goconvey/convey"
)

func okHook() error { return nil }

func panicHook() error {
	panic("for test")
}

func TestFuncFullName(t *testing.T) {
	PatchConvey("TestFuncFullName", t, func() {
		name := funcFullName(okHook)
		So(strings.Contains(name, "xhook_test.go"), ShouldBeTrue)
		So(strings.Contains(name, "okHook"), ShouldBeTrue)
	})
}

func TestSafeInvoke(t *testing.T) {
	PatchConvey("TestSafeInvoke", t, func() {
		err := safeInvoke(panicHook)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldEqual, "panic occurred, for test")
	})
}

func TestRegister(t *testing.T) {
	PatchConvey("TestRegister", t, func() {
		defer startStage.reset()
		startStage.reset()

		var h HookFunc
		So(func() { BeforeStart(h) }, ShouldPanicWith, "xdocscan BeforeStart hook can not be nil")

		BeforeStart(okHook)
		BeforeStart(okHook)
		So(len(startStage.sorted()), ShouldEqual, 1)
	})
}

func TestInvokeBeforeStartHook(t *testing.T) {
	PatchConvey("TestInvokeBeforeStartHook", t, func() {
		defer startStage.reset()
		startStage.reset()

		PatchConvey("按 Order 顺序执行", func() {
			var order []string
			BeforeStart(func() error { order = append(order, "c"); return nil }, Order(3))
			BeforeStart(func() error { order = append(order, "a"); return nil }, Order(1))
			BeforeStart(func() error { order = append(order, "b"); return errors.New("b") }, Order(2), MustInvokeSuccess(false))
			So(InvokeBeforeStartHook(), ShouldBeNil)
			So(order, ShouldResemble, []string{"a", "b", "c"})
		})

		PatchConvey("必须成功的钩子失败时中断", func() {
			ran := false
			BeforeStart(func() error { return errors.New("boom") }, Order(1))
			BeforeStart(func() error { ran = true; return nil }, Order(2))
			err := InvokeBeforeStartHook()
			So(err, ShouldNotBeNil)
			So(strings.Contains(err.Error(), "boom"), ShouldBeTrue)
			So(ran, ShouldBeFalse)
		})

		PatchConvey("单个钩子超时", func() {
			BeforeStart(func() error { time.Sleep(200 * time.Millisecond); return nil }, Timeout(10*time.Millisecond))
			err := InvokeBeforeStartHook()
			So(err, ShouldNotBeNil)
			So(strings.Contains(err.Error(), "timeout"), ShouldBeTrue)
		})
	})
}

func TestInvokeBeforeStopHook(t *testing.T) {
	PatchConvey("TestInvokeBeforeStopHook", t, func() {
		defer stopStage.reset()
		stopStage.reset()

		PatchConvey("无钩子", func() {
			So(InvokeBeforeStopHook(), ShouldBeNil)
		})

		PatchConvey("失败不影响后续钩子", func() {
			ran := false
			BeforeStop(func() error { return errors.New("first") }, Order(1))
			BeforeStop(panicHook, Order(2))
			BeforeStop(func() error { ran = true; return nil }, Order(3))
			err := InvokeBeforeStopHook()
			So(err, ShouldNotBeNil)
			So(strings.Contains(err.Error(), "first"), ShouldBeTrue)
			So(strings.Contains(err.Error(), "panic occurred"), ShouldBeTrue)
			So(ran, ShouldBeTrue)
		})

		PatchConvey("整体超时", func() {
			SetStopTimeout(20 * time.Millisecond)
			defer SetStopTimeout(30 * time.Second)
			BeforeStop(func() error { time.Sleep(300 * time.Millisecond); return nil }, Timeout(0))
			err := InvokeBeforeStopHook()
			So(err, ShouldNotBeNil)
			So(strings.Contains(err.Error(), "timeout"), ShouldBeTrue)
		})
	})
}
