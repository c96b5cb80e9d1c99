package xhook

import "time"

const (
	defaultOrder       = 100
	defaultHookTimeout = 10 * time.Second
)

type options struct {
	Order             int           // 执行顺序，越小越先执行
	MustInvokeSuccess bool          // BeforeStart 阶段失败时是否中断启动
	Timeout           time.Duration // 单个 hook 的超时，<=0 表示不限制
}

type Option func(*options)

func defaultOptions() *options {
	return &options{
		Order:             defaultOrder,
		MustInvokeSuccess: true,
		Timeout:           defaultHookTimeout,
	}
}

func Order(order int) Option {
	return func(o *options) {
		o.Order = order
	}
}

func MustInvokeSuccess(must bool) Option {
	return func(o *options) {
		o.MustInvokeSuccess = must
	}
}

func Timeout(timeout time.Duration) Option {
	return func(o *options) {
		o.Timeout = timeout
	}
}
