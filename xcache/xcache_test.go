package xcache

import (
	"testing"
	"time"

	"github.com/xiaoshicae/xdocscan/xconfig"

	. "github.com/bytedance/mockey"
	convey "github.com/smartystreets/goconvey/convey"
)

func TestConfigMergeDefault(t *testing.T) {
	PatchConvey("TestConfigMergeDefault", t, func() {
		convey.So(configMergeDefault(nil), convey.ShouldResemble, &Config{
			NumCounters: 10000,
			MaxCost:     1000,
			BufferItems: 64,
			DefaultTTL:  "30m",
		})
		c := configMergeDefault(&Config{MaxCost: 5, DefaultTTL: "1d"})
		convey.So(c.MaxCost, convey.ShouldEqual, 5)
		convey.So(c.DefaultTTL, convey.ShouldEqual, "1d")
	})
}

func TestCache(t *testing.T) {
	PatchConvey("TestCache", t, func() {
		cache, err := New(nil)
		convey.So(err, convey.ShouldBeNil)
		defer cache.Close()
		convey.So(cache.defaultTTL, convey.ShouldEqual, 30*time.Minute)

		convey.So(cache.Set("a", 1), convey.ShouldBeTrue)
		cache.Wait()
		v, ok := cache.Get("a")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(v, convey.ShouldEqual, 1)

		cache.Del("a")
		_, ok = cache.Get("a")
		convey.So(ok, convey.ShouldBeFalse)

		cache.SetWithTTL("b", "x", -time.Second)
		cache.Wait()
		_, ok = cache.Get("b")
		convey.So(ok, convey.ShouldBeTrue)

		cache.Clear()
		_, ok = cache.Get("b")
		convey.So(ok, convey.ShouldBeFalse)
	})
}

func TestNamespace(t *testing.T) {
	PatchConvey("TestNamespace", t, func() {
		cache, err := New(nil)
		convey.So(err, convey.ShouldBeNil)
		defer cache.Close()

		licenses := NewNamespace[string](cache, "license")
		counts := NewNamespace[int](cache, "count")

		convey.So(licenses.SetWithTTL("k1", "expired", time.Minute), convey.ShouldBeTrue)
		v, ok := licenses.Get("k1")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(v, convey.ShouldEqual, "expired")

		_, ok = counts.Get("k1")
		convey.So(ok, convey.ShouldBeFalse)

		raw, ok := cache.Get("license:k1")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(raw, convey.ShouldEqual, "expired")

		PatchConvey("类型不匹配", func() {
			cache.SetWithTTL("count:k2", "not-int", time.Minute)
			cache.Wait()
			_, ok := counts.Get("k2")
			convey.So(ok, convey.ShouldBeFalse)
		})

		PatchConvey("过期", func() {
			licenses.SetWithTTL("short", "x", 20*time.Millisecond)
			time.Sleep(60 * time.Millisecond)
			_, ok := licenses.Get("short")
			convey.So(ok, convey.ShouldBeFalse)
		})

		licenses.Del("k1")
		_, ok = licenses.Get("k1")
		convey.So(ok, convey.ShouldBeFalse)
	})

	PatchConvey("TestNamespace-NilCache", t, func() {
		n := &Namespace[int]{}
		_, ok := n.Get("x")
		convey.So(ok, convey.ShouldBeFalse)
		convey.So(n.SetWithTTL("x", 1, time.Second), convey.ShouldBeFalse)
		n.Del("x")
	})
}

func TestInitAndLazyDefault(t *testing.T) {
	PatchConvey("TestInitAndLazyDefault", t, func() {
		defer func() { _ = closeXCache() }()

		convey.So(closeXCache(), convey.ShouldBeNil)
		lazy := C()
		convey.So(lazy, convey.ShouldNotBeNil)
		convey.So(C(), convey.ShouldEqual, lazy)

		Mock(xconfig.UnmarshalConfig).Return(nil).Build()
		convey.So(initXCache(), convey.ShouldBeNil)
		convey.So(C(), convey.ShouldNotEqual, lazy)
	})
}
