package xscan

import (
	"time"

	"github.com/xiaoshicae/xdocscan/xcache"
	"github.com/xiaoshicae/xdocscan/xutil"
)

type options struct {
	config        *Config
	barcodeReader BarcodeReader
	engineFactory EngineFactory
	sink          AnalyticsSink
	callbackPool  *xutil.Pool
	scheduler     Scheduler
	now           func() time.Time
	licenseCache  *xcache.Cache
}

type Option func(*options)

// WithConfig 不指定时从 XScan 配置读取
func WithConfig(c *Config) Option {
	return func(o *options) {
		o.config = c
	}
}

// WithBarcodeReader 不指定时不做条码解码
func WithBarcodeReader(r BarcodeReader) Option {
	return func(o *options) {
		o.barcodeReader = r
	}
}

// WithEngineFactory 配置了 XScan.Engine 时用于创建分析引擎
func WithEngineFactory(f EngineFactory) Option {
	return func(o *options) {
		o.engineFactory = f
	}
}

// WithAnalyticsSink 不指定时使用 SetDefaultAnalyticsSink 设置的全局 sink
func WithAnalyticsSink(s AnalyticsSink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithCallbackPool 指定结果回调所在的任务池，不指定时 Scanner 自建单 worker 串行池
func WithCallbackPool(p *xutil.Pool) Option {
	return func(o *options) {
		o.callbackPool = p
	}
}

// WithScheduler 替换预热定时器的实现
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithClock 替换耗时统计与无时间戳帧使用的时钟
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLicenseCache 指定授权失败缓存，不指定时使用 xcache 全局缓存
func WithLicenseCache(c *xcache.Cache) Option {
	return func(o *options) {
		o.licenseCache = c
	}
}
