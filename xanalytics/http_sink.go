package xanalytics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xlog"
	"github.com/xiaoshicae/xdocscan/xscan"
	"github.com/xiaoshicae/xdocscan/xutil"

	"github.com/go-resty/resty/v2"
)

// HTTPSink 异步批量上报事件
//
// Record 只入队不阻塞，队列满时丢弃并计数；后台 goroutine 攒批后 POST 到 Endpoint+Path。
type HTTPSink struct {
	cfg    *Config
	client *resty.Client
	url    string
	now    func() time.Time

	queue chan Envelope
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once

	sent    atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

func NewHTTPSink(c *Config, client *resty.Client) (*HTTPSink, error) {
	c = configMergeDefault(c)
	if c.Endpoint == "" {
		return nil, xerror.Newf("xanalytics", "new", "Endpoint can not be empty")
	}
	if client == nil {
		return nil, xerror.Newf("xanalytics", "new", "http client can not be nil")
	}
	s := &HTTPSink{
		cfg:    c,
		client: client,
		url:    c.Endpoint + c.Path,
		now:    time.Now,
		queue:  make(chan Envelope, c.QueueSize),
		done:   make(chan struct{}),
	}
	go s.loop()
	return s, nil
}

func (s *HTTPSink) Record(ctx context.Context, event xscan.Event) {
	env, err := newEnvelope(ctx, event, s.now())
	if err != nil {
		xlog.Warn(ctx, "[xanalytics] marshal event failed, event=[%s], err=[%v]", event.EventName(), err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- env:
	default:
		s.dropped.Add(1)
	}
}

func (s *HTTPSink) loop() {
	defer close(s.done)

	ticker := time.NewTicker(xutil.ToDuration(s.cfg.FlushInterval))
	defer ticker.Stop()

	batch := make([]Envelope, 0, s.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.send(batch)
		batch = make([]Envelope, 0, s.cfg.BatchSize)
	}

	for {
		select {
		case env, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, env)
			if len(batch) >= s.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (s *HTTPSink) send(events []Envelope) {
	ctx := context.Background()
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(Batch{Events: events}).
		Post(s.url)
	if err != nil {
		s.failed.Add(int64(len(events)))
		xlog.Warn(ctx, "[xanalytics] post events failed, count=[%d], err=[%v]", len(events), err)
		return
	}
	if resp.IsError() {
		s.failed.Add(int64(len(events)))
		xlog.Warn(ctx, "[xanalytics] post events rejected, count=[%d], status=[%d], body=[%s]", len(events), resp.StatusCode(), resp.String())
		return
	}
	s.sent.Add(int64(len(events)))
}

// Close 停止接收事件，发送队列中剩余事件后返回，多次调用安全
func (s *HTTPSink) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
	})
	<-s.done
	return nil
}

// Stats 已发送、丢弃、发送失败的事件数
func (s *HTTPSink) Stats() (sent, dropped, failed int64) {
	return s.sent.Load(), s.dropped.Load(), s.failed.Load()
}
