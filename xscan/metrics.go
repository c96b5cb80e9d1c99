package xscan

import (
	"sync"
	"time"
)

// MetricsTracker 统计一类推理调用的耗时，只读暴露给调用方
type MetricsTracker struct {
	name string

	mu     sync.Mutex
	count  int64
	errors int64
	total  time.Duration
	last   time.Duration
	max    time.Duration
}

// MetricsSnapshot MetricsTracker 某一时刻的值
type MetricsSnapshot struct {
	Name   string        `json:"name"`
	Count  int64         `json:"count"`
	Errors int64         `json:"errors"`
	Total  time.Duration `json:"total"`
	Last   time.Duration `json:"last"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
}

func NewMetricsTracker(name string) *MetricsTracker {
	return &MetricsTracker{name: name}
}

func (m *MetricsTracker) Name() string {
	return m.name
}

// Track 记录一次耗时为 d 的调用
func (m *MetricsTracker) Track(d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	if err != nil {
		m.errors++
	}
	m.total += d
	m.last = d
	if d > m.max {
		m.max = d
	}
}

func (m *MetricsTracker) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := MetricsSnapshot{
		Name:   m.name,
		Count:  m.count,
		Errors: m.errors,
		Total:  m.total,
		Last:   m.last,
		Max:    m.max,
	}
	if m.count > 0 {
		s.Mean = m.total / time.Duration(m.count)
	}
	return s
}
