package xutil

import (
	"context"
	"sync"
	"time"
)

// Future 表示一个异步计算的结果，支持阻塞等待、超时等待以及完成回调
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error

	mu        sync.Mutex
	completed bool
	callbacks []futureCallback[T]
}

type futureCallback[T any] struct {
	pool *Pool
	fn   func(T, error)
}

// NewPromise 创建一个未完成的 Future，以及用于完成它的函数
// complete 只有首次调用生效
func NewPromise[T any]() (*Future[T], func(T, error)) {
	f := newFuture[T]()
	return f, f.complete
}

// Completed 返回一个已完成的 Future
func Completed[T any](val T, err error) *Future[T] {
	f := newFuture[T]()
	f.complete(val, err)
	return f
}

// Async 启动一个异步任务，返回 Future 用于获取结果
func Async[T any](fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		f.complete(fn())
	}()
	return f
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(val T, err error) {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	f.val, f.err = val, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb.dispatch(val, err)
	}
}

func (cb futureCallback[T]) dispatch(val T, err error) {
	if cb.pool == nil {
		cb.fn(val, err)
		return
	}
	cb.pool.Submit(func() { cb.fn(val, err) })
}

// OnComplete 注册完成回调，回调通过 pool 执行；pool 为 nil 时在完成方的 goroutine 中直接执行
// 已完成的 Future 会立即投递回调
func (f *Future[T]) OnComplete(pool *Pool, fn func(T, error)) {
	cb := futureCallback[T]{pool: pool, fn: fn}

	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	val, err := f.val, f.err
	f.mu.Unlock()

	cb.dispatch(val, err)
}

// Get 阻塞等待异步任务完成，返回结果和错误
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.val, f.err
}

// GetWithTimeout 等待异步任务完成，超时返回 context.DeadlineExceeded
func (f *Future[T]) GetWithTimeout(timeout time.Duration) (T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.val, f.err
	case <-timer.C:
		var zero T
		return zero, context.DeadlineExceeded
	}
}

// GetWithContext 等待异步任务完成，ctx 结束时返回 ctx.Err()
func (f *Future[T]) GetWithContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// IsDone 非阻塞检查异步任务是否已完成
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
