package xutil

import (
	"errors"
	"sync"
)

var ErrPoolClosed = errors.New("pool closed")

// DefaultPoolSize 默认任务池 worker 数量
const DefaultPoolSize = 32

var (
	defaultPool     *Pool
	defaultPoolOnce sync.Once
)

// Submit 向全局默认任务池提交一个任务
func Submit(task func()) {
	defaultPoolOnce.Do(func() { defaultPool = NewPool(DefaultPoolSize) })
	defaultPool.Submit(task)
}

// Pool 是一个固定 worker 数量的异步任务池
// worker 数量为 1 时，任务严格按提交顺序串行执行
type Pool struct {
	tasks    chan func()
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

// NewPool 创建一个包含指定数量 worker 的任务池，workerCount 小于 1 时按 1 处理
func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		tasks: make(chan func(), workerCount*16),
	}
	p.wg.Add(workerCount)
	for range workerCount {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		runTask(task)
	}
}

func runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			ErrorIfEnableDebug("pool task panic, err=[%v]", r)
		}
	}()
	task()
}

// Submit 提交一个任务到任务池，队列满时阻塞
// 返回 false 表示任务池已关闭，任务被丢弃
func (p *Pool) Submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	p.tasks <- task
	return true
}

// Go 提交一个返回结果的任务，返回 Future 用于异步获取结果
// 任务池已关闭时返回的 Future 携带 ErrPoolClosed
func Go[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f, complete := NewPromise[T]()
	if !p.Submit(func() { complete(fn()) }) {
		var zero T
		complete(zero, ErrPoolClosed)
	}
	return f
}

// Shutdown 停止接收新任务，等待已提交的任务全部完成，多次调用安全
func (p *Pool) Shutdown() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
	})
	p.wg.Wait()
}
