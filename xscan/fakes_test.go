package xscan

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/xiaoshicae/xdocscan/xcache"
)

var docBounds = Bounds{X: 0.1, Y: 0.2, Width: 0.6, Height: 0.4}

// checkerboard 1px 黑白格，拉普拉斯方差远高于阈值
func checkerboard(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func uniform(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// manualScheduler 手动触发的预热定时器
type manualScheduler struct {
	mu      sync.Mutex
	pending []func()
	calls   int
	stops   int
}

func (m *manualScheduler) schedule(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.pending = append(m.pending, fn)
	return func() {
		m.mu.Lock()
		m.stops++
		m.mu.Unlock()
	}
}

func (m *manualScheduler) fire() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

func (m *manualScheduler) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeModel 依次返回 script 中的结果，用完后重复最后一个
type fakeModel struct {
	mu     sync.Mutex
	script []modelStep
	calls  int
}

type modelStep struct {
	predictions []Prediction
	err         error
}

func (m *fakeModel) Infer(_ context.Context, _ Frame) ([]Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.script) == 0 {
		return nil, nil
	}
	i := min(m.calls-1, len(m.script)-1)
	return m.script[i].predictions, m.script[i].err
}

func alwaysDetect(cls Classification) *fakeModel {
	return &fakeModel{script: []modelStep{{predictions: []Prediction{{Classification: cls, Bounds: docBounds, Confidence: 0.9}}}}}
}

type fakeReader struct {
	mu      sync.Mutex
	calls   int
	clock   *fakeClock
	cost    time.Duration
	payload string
	err     error
}

func (r *fakeReader) Decode(_ context.Context, _ Frame, _ Bounds, symbology Symbology) (*BarcodeOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.clock != nil {
		r.clock.Advance(r.cost)
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.payload == "" {
		return nil, nil
	}
	return &BarcodeOutput{Payload: r.payload, Symbology: symbology}, nil
}

func (r *fakeReader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// fakeEngine 第 n 次调用返回 errs[n]（越界或为 nil 时成功）
type fakeEngine struct {
	mu     sync.Mutex
	calls  int
	errs   []error
	closed bool
}

func (e *fakeEngine) Analyze(_ context.Context, _ Frame, c Classified) (EngineResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if i := e.calls - 1; i < len(e.errs) && e.errs[i] != nil {
		return EngineResult{}, e.errs[i]
	}
	return EngineResult{DocumentType: c.Classification.String(), Confidence: 0.99}, nil
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *fakeEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func engineFactoryOf(e Engine, err error) EngineFactory {
	return func(context.Context, EngineConfig) (Engine, error) {
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Record(_ context.Context, e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func (s *recordingSink) count(name string) int {
	n := 0
	for _, e := range s.Events() {
		if e.EventName() == name {
			n++
		}
	}
	return n
}

func newTestCache() *xcache.Cache {
	c, err := xcache.New(nil)
	if err != nil {
		panic(err)
	}
	return c
}

var errBoom = errors.New("boom")
