package xreplay

import (
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

// VirtualClock 重放用的虚拟时钟，定时器只在 AdvanceTo/Sleep 推进时间时触发
type VirtualClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*virtualTimer
}

type virtualTimer struct {
	seq     int
	due     time.Time
	fn      func()
	stopped bool
}

func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Schedule 签名与 xscan.Scheduler 一致
func (c *VirtualClock) Schedule(d time.Duration, fn func()) func() {
	c.mu.Lock()
	c.seq++
	t := &virtualTimer{seq: c.seq, due: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		t.stopped = true
		c.mu.Unlock()
	}
}

// Sleep 推进 d
func (c *VirtualClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	c.AdvanceTo(c.Now().Add(d))
}

// AdvanceTo 时间只前进不后退，到期定时器按到期时间顺序在调用方 goroutine 上执行
func (c *VirtualClock) AdvanceTo(t time.Time) {
	c.mu.Lock()
	if t.After(c.now) {
		c.now = t
	}
	var due, pending []*virtualTimer
	for _, timer := range c.timers {
		switch {
		case timer.stopped:
		case !timer.due.After(c.now):
			due = append(due, timer)
		default:
			pending = append(pending, timer)
		}
	}
	c.timers = pending
	c.mu.Unlock()

	slices.SortFunc(due, func(a, b *virtualTimer) int {
		if n := a.due.Compare(b.due); n != 0 {
			return n
		}
		return a.seq - b.seq
	})
	for _, timer := range due {
		timer.fn()
	}
}

// Pending 未触发且未取消的定时器数量
func (c *VirtualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}
