package xreplay

import (
	"context"

	"github.com/xiaoshicae/xdocscan/xcache"
	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xlog"
	"github.com/xiaoshicae/xdocscan/xscan"
	"github.com/xiaoshicae/xdocscan/xtrace"

	"github.com/google/uuid"
)

// Result 一帧的重放结果
type Result struct {
	Seq     int                 `json:"seq"`
	FrameID string              `json:"frameId"`
	Output  xscan.Output        `json:"output,omitempty"`
	Err     error               `json:"-"`
	State   xscan.PipelineState `json:"-"`
}

// Report 一次重放的汇总
type Report struct {
	SessionID        string                  `json:"sessionId"`
	Results          []Result                `json:"results"`
	Counts           map[string]int          `json:"counts"`
	Errors           int                     `json:"errors"`
	EngineDowngraded bool                    `json:"engineDowngraded"`
	Metrics          []xscan.MetricsSnapshot `json:"metrics"`
}

type Option func(*options)

type options struct {
	sink         xscan.AnalyticsSink
	licenseCache *xcache.Cache
	onResult     func(Result)
}

// WithAnalyticsSink 重放期间的分析事件接收方
func WithAnalyticsSink(s xscan.AnalyticsSink) Option {
	return func(o *options) { o.sink = s }
}

func WithLicenseCache(c *xcache.Cache) Option {
	return func(o *options) { o.licenseCache = c }
}

// WithOnResult 每帧完成后回调，按帧顺序调用
func WithOnResult(fn func(Result)) Option {
	return func(o *options) { o.onResult = fn }
}

// Run 用录制结果驱动一个 Scanner，逐帧等待结果后再推进虚拟时钟
func Run(ctx context.Context, session *Session, cfg *xscan.Config, opts ...Option) (*Report, error) {
	if session == nil {
		return nil, xerror.Newf("xreplay", "run", "session can not be nil")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	m := session.Manifest

	sessionID := m.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	ctx = xtrace.ContextWithSession(ctx, sessionID)
	ctx = xlog.CtxWithKV(ctx, map[string]any{"replay": session.Dir})

	clock := NewVirtualClock(m.StartTime)
	scanOpts := []xscan.Option{
		xscan.WithConfig(scannerConfig(cfg, m)),
		xscan.WithClock(clock.Now),
		xscan.WithScheduler(clock.Schedule),
	}
	if m.Barcode {
		scanOpts = append(scanOpts, xscan.WithBarcodeReader(&fixtureBarcodeReader{session: session, clock: clock}))
	}
	if m.Engine != nil {
		scanOpts = append(scanOpts, xscan.WithEngineFactory(engineFactory(session, clock)))
	}
	if o.sink != nil {
		scanOpts = append(scanOpts, xscan.WithAnalyticsSink(o.sink))
	}
	if o.licenseCache != nil {
		scanOpts = append(scanOpts, xscan.WithLicenseCache(o.licenseCache))
	}

	scanner, err := xscan.New(ctx, &fixtureModel{session: session, clock: clock}, scanOpts...)
	if err != nil {
		return nil, xerror.Newf("xreplay", "run", "create scanner failed, err=[%w]", err)
	}
	defer func() {
		if err := scanner.Close(); err != nil {
			xlog.Warn(ctx, "[xreplay] close scanner failed, err=[%v]", err)
		}
	}()

	report := &Report{SessionID: sessionID, Counts: make(map[string]int)}
	for i := range session.Len() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		frame, err := session.Frame(i)
		if err != nil {
			return report, err
		}
		if m.Frames[i].Reset {
			scanner.Reset()
		}
		clock.AdvanceTo(frame.Timestamp)

		out, err := scanner.ScanImage(ctx, frame, m.DeviceProperties).GetWithContext(ctx)
		r := Result{Seq: i, FrameID: frame.ID, Output: out, Err: err, State: scanner.State()}
		if err != nil {
			report.Errors++
			xlog.Warn(ctx, "[xreplay] frame failed, seq=[%d], frame=[%s], err=[%v]", i, frame.ID, err)
		} else {
			report.Counts[out.OutputType()]++
		}
		report.Results = append(report.Results, r)
		if o.onResult != nil {
			o.onResult(r)
		}
	}

	report.EngineDowngraded = scanner.Session().HasSeenUnrecoverableEngineError()
	for _, t := range scanner.MetricsTrackers() {
		report.Metrics = append(report.Metrics, t.Snapshot())
	}
	xlog.Info(ctx, "[xreplay] replay done, frames=[%d], counts=[%v], errors=[%d], downgraded=[%v]",
		len(report.Results), report.Counts, report.Errors, report.EngineDowngraded)
	return report, nil
}

// scannerConfig 录制了引擎但配置未启用时补一个引擎配置，license 取清单中的值
func scannerConfig(cfg *xscan.Config, m *Manifest) *xscan.Config {
	c := &xscan.Config{}
	if cfg != nil {
		copied := *cfg
		c = &copied
	}
	if m.Engine != nil && c.Engine == nil {
		key := m.Engine.LicenseKey
		if key == "" {
			key = "replay"
		}
		c.Engine = &xscan.EngineConfig{LicenseKey: key}
	}
	return c
}
