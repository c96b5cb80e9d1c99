package xgin

type Option func(*options)

type options struct {
	enableLogMiddleware   bool
	enableTraceMiddleware bool
	logSkipPaths          []string
	config                *Config
}

func defaultOptions() *options {
	return &options{
		enableLogMiddleware:   true,
		enableTraceMiddleware: true,
	}
}

func EnableLogMiddleware(enable bool) Option {
	return func(o *options) {
		o.enableLogMiddleware = enable
	}
}

func EnableTraceMiddleware(enable bool) Option {
	return func(o *options) {
		o.enableTraceMiddleware = enable
	}
}

// LogSkipPaths 日志中间件忽略的路由，以 / 结尾时按前缀匹配
func LogSkipPaths(paths ...string) Option {
	return func(o *options) {
		o.logSkipPaths = append(o.logSkipPaths, paths...)
	}
}

// WithConfig 指定监听配置，不指定时 Run 时读取 XGin 配置
func WithConfig(c *Config) Option {
	return func(o *options) {
		o.config = c
	}
}
