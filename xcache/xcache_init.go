package xcache

import (
	"sync"

	"github.com/xiaoshicae/xdocscan/xconfig"
	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xhook"
	"github.com/xiaoshicae/xdocscan/xutil"
)

var (
	defaultCache *Cache
	cacheMu      sync.Mutex
)

func init() {
	xhook.BeforeStart(initXCache, xhook.Order(4))
	xhook.BeforeStop(closeXCache)
}

func initXCache() error {
	c := &Config{}
	if err := xconfig.UnmarshalConfig(XCacheConfigKey, c); err != nil {
		return xerror.Newf("xcache", "init", "unmarshal config failed, err=[%w]", err)
	}
	c = configMergeDefault(c)
	xutil.InfoIfEnableDebug("xdocscan initXCache got config: %s", xutil.ToJsonString(c))

	cache, err := New(c)
	if err != nil {
		return err
	}

	cacheMu.Lock()
	old := defaultCache
	defaultCache = cache
	cacheMu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// C 获取全局缓存，未通过 xdocscan.R() 初始化时按默认配置懒加载
// 懒加载失败时返回 nil，调用方需容忍缓存不可用
func C() *Cache {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if defaultCache != nil {
		return defaultCache
	}
	cache, err := New(nil)
	if err != nil {
		xutil.ErrorIfEnableDebug("xdocscan lazy init xcache failed, err=[%v]", err)
		return nil
	}
	defaultCache = cache
	return defaultCache
}

func closeXCache() error {
	cacheMu.Lock()
	cache := defaultCache
	defaultCache = nil
	cacheMu.Unlock()
	if cache != nil {
		cache.Close()
	}
	return nil
}
