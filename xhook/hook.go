package xhook

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xutil"

	"golang.org/x/exp/slices"
)

const maxHookNum = 256

var defaultStopTimeout = 30 * time.Second

// HookFunc 启动或停止阶段执行的钩子
type HookFunc func() error

type hook struct {
	fn   HookFunc
	name string
	opts *options
}

// stage 一个阶段（启动/停止）的钩子集合
type stage struct {
	name  string
	mu    sync.Mutex
	hooks []hook
	seen  map[uintptr]struct{}
	dirty bool
}

var (
	startStage = newStage("BeforeStart")
	stopStage  = newStage("BeforeStop")
	timeoutMu  sync.RWMutex
)

func newStage(name string) *stage {
	return &stage{name: name, seen: make(map[uintptr]struct{})}
}

// BeforeStart 注册启动钩子，xdocscan.R() 时按 Order 顺序执行
func BeforeStart(f HookFunc, opts ...Option) {
	startStage.register(f, opts)
}

// BeforeStop 注册停止钩子，xdocscan.Shutdown() 时按 Order 顺序执行
func BeforeStop(f HookFunc, opts ...Option) {
	stopStage.register(f, opts)
}

// SetStopTimeout 设置停止阶段的整体超时
func SetStopTimeout(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	timeoutMu.Lock()
	defaultStopTimeout = timeout
	timeoutMu.Unlock()
}

func (s *stage) register(f HookFunc, opts []Option) {
	if f == nil {
		panic(fmt.Sprintf("xdocscan %s hook can not be nil", s.name))
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.hooks) >= maxHookNum {
		panic(fmt.Sprintf("xdocscan %s hook can not be more than %d", s.name, maxHookNum))
	}
	fp := reflect.ValueOf(f).Pointer()
	if _, ok := s.seen[fp]; ok {
		xutil.WarnIfEnableDebug("xdocscan %s hook registered twice, skip, func=[%s]", s.name, funcFullName(f))
		return
	}
	s.seen[fp] = struct{}{}
	s.hooks = append(s.hooks, hook{fn: f, name: funcFullName(f), opts: o})
	s.dirty = true
}

// sorted 返回按 Order 稳定排序后的副本
func (s *stage) sorted() []hook {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		slices.SortStableFunc(s.hooks, func(a, b hook) int { return a.opts.Order - b.opts.Order })
		s.dirty = false
	}
	return slices.Clone(s.hooks)
}

func (s *stage) reset() {
	s.mu.Lock()
	s.hooks = nil
	s.seen = make(map[uintptr]struct{})
	s.dirty = false
	s.mu.Unlock()
}

// InvokeBeforeStartHook 依次执行启动钩子，MustInvokeSuccess 的钩子失败时立即返回
func InvokeBeforeStartHook() error {
	for _, h := range startStage.sorted() {
		err := invokeWithTimeout(h, h.opts.Timeout)
		if err == nil {
			xutil.InfoIfEnableDebug("xdocscan invoke before start hook success, func=[%s]", h.name)
			continue
		}
		if h.opts.MustInvokeSuccess {
			xutil.ErrorIfEnableDebug("xdocscan invoke before start hook failed, func=[%s], err=[%v]", h.name, err)
			return xerror.Newf("xhook", "BeforeStart", "func=[%s], err=[%w]", h.name, err)
		}
		xutil.WarnIfEnableDebug("xdocscan invoke before start hook failed, continue, func=[%s], err=[%v]", h.name, err)
	}
	return nil
}

// InvokeBeforeStopHook 依次执行全部停止钩子，单个失败不影响后续，整体受 stop timeout 限制
func InvokeBeforeStopHook() error {
	hooks := stopStage.sorted()
	if len(hooks) == 0 {
		return nil
	}

	timeoutMu.RLock()
	timeout := defaultStopTimeout
	timeoutMu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- invokeStopHooks(ctx, hooks) }()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return xerror.Newf("xhook", "BeforeStop", "timeout after %v", timeout)
	}
}

func invokeStopHooks(ctx context.Context, hooks []hook) error {
	var errs []error
	for i, h := range hooks {
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("interrupted, completed %d/%d hooks", i, len(hooks)))
			break
		}
		timeout := h.opts.Timeout
		if deadline, ok := ctx.Deadline(); ok {
			if left := time.Until(deadline); timeout <= 0 || left < timeout {
				timeout = left
			}
		}
		if err := invokeWithTimeout(h, timeout); err != nil {
			xutil.ErrorIfEnableDebug("xdocscan invoke before stop hook failed, func=[%s], err=[%v]", h.name, err)
			errs = append(errs, fmt.Errorf("func=[%s], err=[%w]", h.name, err))
			continue
		}
		xutil.InfoIfEnableDebug("xdocscan invoke before stop hook success, func=[%s]", h.name)
	}
	return xerror.Join("xhook", "BeforeStop", errs...)
}

// invokeWithTimeout 超时只代表放弃等待，钩子本身的 goroutine 会继续运行到返回
func invokeWithTimeout(h hook, timeout time.Duration) error {
	if timeout <= 0 {
		return safeInvoke(h.fn)
	}

	ch := make(chan error, 1)
	go func() { ch <- safeInvoke(h.fn) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-ch:
		return err
	case <-timer.C:
		return fmt.Errorf("hook timeout after %v", timeout)
	}
}

func safeInvoke(f HookFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred, %v", r)
		}
	}()
	return f()
}

func funcFullName(f HookFunc) string {
	file, line, name := xutil.GetFuncInfo(f)
	return fmt.Sprintf("%s:%d %s()", file, line, name)
}
