package xlog

import (
	"io"
	"sync"
	"sync/atomic"
)

// asyncWriter 把日志写入转为异步，队列满时丢弃并计数
// 扫描流水线按帧实时运行，日志落盘慢时宁可丢日志也不阻塞帧处理
type asyncWriter struct {
	ch      chan []byte
	w       io.WriteCloser
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	once    sync.Once
	err     error
}

func newAsyncWriter(w io.WriteCloser, size int) *asyncWriter {
	aw := &asyncWriter{ch: make(chan []byte, size), w: w}
	aw.wg.Add(1)
	go aw.loop()
	return aw
}

func (aw *asyncWriter) Write(p []byte) (int, error) {
	// 调用方可能复用 p
	buf := append([]byte(nil), p...)

	aw.mu.RLock()
	defer aw.mu.RUnlock()
	if aw.closed {
		return 0, io.ErrClosedPipe
	}
	select {
	case aw.ch <- buf:
	default:
		aw.dropped.Add(1)
	}
	return len(p), nil
}

// Dropped 因队列满被丢弃的日志条数
func (aw *asyncWriter) Dropped() int64 {
	return aw.dropped.Load()
}

// Close 等待队列中的日志写完再关闭底层 writer，多次调用安全
func (aw *asyncWriter) Close() error {
	aw.once.Do(func() {
		aw.mu.Lock()
		aw.closed = true
		close(aw.ch)
		aw.mu.Unlock()

		aw.wg.Wait()
		aw.err = aw.w.Close()
	})
	return aw.err
}

func (aw *asyncWriter) loop() {
	defer aw.wg.Done()
	for buf := range aw.ch {
		_, _ = aw.w.Write(buf)
	}
}
