package xscan

import (
	"sync"
	"time"
)

// Scheduler 延迟 d 后执行 fn，返回的 stop 用于取消
type Scheduler func(d time.Duration, fn func()) (stop func())

func timeScheduler(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Gate 预热门控：首帧时安排一次定时器，到期前所有帧都不放行
type Gate struct {
	delay    time.Duration
	schedule Scheduler
	state    *SessionState

	mu   sync.Mutex
	stop func()
}

func NewGate(state *SessionState, delay time.Duration, schedule Scheduler) *Gate {
	if schedule == nil {
		schedule = timeScheduler
	}
	return &Gate{delay: delay, schedule: schedule, state: state}
}

// Admit 本帧是否放行，同一会话只会安排一次定时器
func (g *Gate) Admit() bool {
	if g.state.scanningEnabled.Load() {
		return true
	}
	if g.state.scheduledStartupTimer.CompareAndSwap(false, true) {
		g.scheduleWarmUp()
	}
	return g.state.scanningEnabled.Load()
}

func (g *Gate) scheduleWarmUp() {
	gen := g.state.generation.Load()
	open := func() {
		// Reset 之后旧定时器不能打开新会话的门控
		if g.state.generation.Load() == gen {
			g.state.scanningEnabled.Store(true)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.delay <= 0 {
		open()
		return
	}
	g.stop = g.schedule(g.delay, open)
}

func (g *Gate) Reset() {
	g.mu.Lock()
	stop := g.stop
	g.stop = nil
	g.mu.Unlock()
	if stop != nil {
		stop()
	}
	g.state.resetSession()
}
