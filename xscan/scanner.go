package xscan

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xlog"
	"github.com/xiaoshicae/xdocscan/xtrace"
	"github.com/xiaoshicae/xdocscan/xutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Scanner 单个扫描会话的逐帧决策流水线
//
// 每帧依次经过：预热门控 -> 主分类器 -> (分析引擎 | legacy) -> 质量检测器，
// 最终产出一个 Output。帧按提交顺序在单 worker 任务池上串行处理。
type Scanner struct {
	cfg   *Config
	state *SessionState
	now   func() time.Time
	sink  AnalyticsSink

	gate       *Gate
	classifier *Classifier
	motionBlur *MotionBlurDetector
	sharpness  *SharpnessScorer
	barcode    *BarcodeDetector // nil 表示不做条码解码
	engine     *engineAdapter   // nil 表示本会话不使用引擎

	legacy legacyStrategy
	modern modernStrategy

	framePool    *xutil.Pool
	callbackPool *xutil.Pool
	ownsPool     bool

	closeMu sync.RWMutex
	closed  atomic.Bool
}

// New 创建 Scanner，配置在此时确定且之后不再变化
// 引擎构造失败不会导致 New 失败，只会让本会话以 legacy 方式运行
func New(ctx context.Context, model Model, opts ...Option) (*Scanner, error) {
	if model == nil {
		return nil, xerror.Newf("xscan", "new", "model can not be nil")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.config
	if cfg == nil {
		loaded, err := LoadConfig()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = configMergeDefault(cfg)
		if err := validateConfig(cfg); err != nil {
			return nil, err
		}
	}

	s := &Scanner{
		cfg:   cfg,
		state: &SessionState{},
		now:   xutil.GetOrDefault(o.now, time.Now),
		sink:  o.sink,
	}
	if s.sink == nil {
		s.sink = getDefaultAnalyticsSink()
	}

	s.gate = NewGate(s.state, cfg.warmUpDelay(), o.scheduler)
	s.classifier = NewClassifier(model, cfg.Classifier)
	s.classifier.now = s.now
	s.motionBlur = NewMotionBlurDetector(cfg.MotionBlur)
	s.sharpness = NewSharpnessScorer(cfg.Sharpness)
	if o.barcodeReader != nil {
		s.barcode = NewBarcodeDetector(o.barcodeReader, cfg.Barcode)
		s.barcode.now = s.now
	}
	s.engine = newEngineAdapter(ctx, cfg.Engine, o.engineFactory, s.sink, o.licenseCache)
	if s.engine != nil {
		s.engine.now = s.now
	}

	s.legacy = legacyStrategy{s: s}
	s.modern = modernStrategy{s: s, legacy: s.legacy}

	s.framePool = xutil.NewPool(1)
	s.callbackPool = o.callbackPool
	if s.callbackPool == nil {
		s.callbackPool = xutil.NewPool(1)
		s.ownsPool = true
	}

	xlog.Info(ctx, "[xscan] scanner created, engine=[%v], barcode=[%v], warmup=[%s]",
		s.engine != nil, s.barcode != nil, cfg.WarmUpDelay)
	return s, nil
}

// ScanImage 异步处理一帧，返回的 Future 恰好完成一次，并在回调任务池上完成
// 分类模型失败时 Future 携带 *InferenceError，其余错误都降级处理
func (s *Scanner) ScanImage(ctx context.Context, frame Frame, props *DeviceProperties) *xutil.Future[Output] {
	future, complete := xutil.NewPromise[Output]()

	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed.Load() {
		complete(nil, ErrScannerClosed)
		return future
	}

	s.framePool.Submit(func() {
		out, err := s.scan(ctx, frame, props)
		if !s.callbackPool.Submit(func() { complete(out, err) }) {
			complete(out, err)
		}
	})
	return future
}

func (s *Scanner) scan(ctx context.Context, frame Frame, props *DeviceProperties) (out Output, err error) {
	ctx, span := xtrace.Tracer().Start(ctx, "xscan.ScanImage")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = xerror.Newf("xscan", "scan", "panic: %v\n%s", r, debug.Stack())
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scan failed")
			xlog.Error(ctx, "[xscan] scan frame failed, frame=[%s], err=[%v]", frame.ID, err)
			return
		}
		span.SetAttributes(attribute.String("xscan.output", out.OutputType()))
	}()

	return s.processFrame(ctx, frame, props)
}

// processFrame 单帧决策
func (s *Scanner) processFrame(ctx context.Context, frame Frame, props *DeviceProperties) (Output, error) {
	if !s.gate.Admit() {
		return &NoneOutput{Reason: NoneReasonWarmingUp}, nil
	}

	classified, err := s.classifier.Classify(ctx, frame)
	if err != nil {
		return nil, err
	}
	if classified == nil {
		return &NoneOutput{Reason: NoneReasonNoDocument}, nil
	}

	if frame.Timestamp.IsZero() {
		frame.Timestamp = s.now()
	}
	in := &frameInput{frame: frame, props: props, classified: *classified}
	return s.strategy().produce(ctx, in), nil
}

func (s *Scanner) strategy() outputStrategy {
	if s.engine == nil || s.state.HasSeenUnrecoverableEngineError() {
		return s.legacy
	}
	return s.modern
}

// runQualityDetectors legacy 与 modern 共用的质量检测
func (s *Scanner) runQualityDetectors(ctx context.Context, in *frameInput) LegacyOutput {
	out := LegacyOutput{
		Classification:   in.classified.Classification,
		Bounds:           in.classified.Bounds,
		Confidence:       in.classified.Confidence,
		MotionBlur:       s.motionBlur.Observe(in.classified.Bounds, in.frame.Timestamp),
		DeviceProperties: in.props,
		BlurScore:        s.sharpness.Score(in.frame.Image, in.classified.Bounds),
	}

	if s.barcode != nil {
		barcode, err := s.barcode.Detect(ctx, in.frame, &in.classified)
		var de *DecodeError
		if errors.As(err, &de) {
			xlog.Warn(ctx, "[xscan] barcode decode failed, frame=[%s], err=[%v]", in.frame.ID, err)
		}
		out.Barcode = barcode
		out.BarcodeTimedOut = s.barcode.TimedOut()
	}
	return out
}

// Reset 开始新的扫描会话：清空检测器历史与预热状态
// 引擎不可恢复标记保留，已降级的 Scanner 不会重新使用引擎
func (s *Scanner) Reset() {
	s.gate.Reset()
	s.classifier.Reset()
	s.motionBlur.Reset()
	if s.barcode != nil {
		s.barcode.Reset()
	}
	xlog.Info(context.Background(), "[xscan] scanner reset, engine_disabled=[%v]", s.state.HasSeenUnrecoverableEngineError())
}

// State 当前状态，仅用于观察
func (s *Scanner) State() PipelineState {
	if !s.state.ScanningEnabled() {
		return StateWarmingUp
	}
	return s.strategy().state()
}

// Session 会话状态，只读使用
func (s *Scanner) Session() *SessionState {
	return s.state
}

// MetricsTrackers 推理耗时统计：分类器，条码（若启用），引擎（若启用）
func (s *Scanner) MetricsTrackers() []*MetricsTracker {
	trackers := []*MetricsTracker{s.classifier.Tracker()}
	if s.barcode != nil {
		trackers = append(trackers, s.barcode.Tracker())
	}
	if s.engine != nil {
		trackers = append(trackers, s.engine.tracker)
	}
	return trackers
}

// Close 等待进行中的帧完成后释放引擎与回调池，之后的 ScanImage 返回 ErrScannerClosed
func (s *Scanner) Close() error {
	s.closeMu.Lock()
	alreadyClosed := s.closed.Swap(true)
	s.closeMu.Unlock()
	if alreadyClosed {
		return nil
	}

	s.framePool.Shutdown()
	var err error
	if s.engine != nil {
		if e := s.engine.Close(); e != nil {
			err = xerror.Newf("xscan", "close", "close engine failed, err=[%w]", e)
		}
	}
	if s.ownsPool {
		s.callbackPool.Shutdown()
	}
	return err
}
