package xscan

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/xiaoshicae/xdocscan/xcache"
	"github.com/xiaoshicae/xdocscan/xlog"
	"github.com/xiaoshicae/xdocscan/xtrace"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/blake2b"
)

// EngineResult 分析引擎对一帧的结果
type EngineResult struct {
	DocumentType string            `json:"documentType"`
	Confidence   float64           `json:"confidence"`
	Fields       map[string]string `json:"fields,omitempty"`
}

// Engine 第三方文档分析引擎
type Engine interface {
	// Analyze 失败时返回 *EngineError，Kind 为 runner 表示引擎已不可用
	Analyze(ctx context.Context, frame Frame, classified Classified) (EngineResult, error)
	Close() error
}

// EngineFactory 按配置创建引擎，授权失败返回 *LicenseError
type EngineFactory func(ctx context.Context, cfg EngineConfig) (Engine, error)

const licenseCacheNamespace = "xscan.engine.license"

// engineAdapter 引擎的会话内封装，nil 表示本会话不使用引擎
type engineAdapter struct {
	engine  Engine
	sink    AnalyticsSink
	tracker *MetricsTracker
	now     func() time.Time

	closeOnce sync.Once
}

// newEngineAdapter 构造引擎并记录一次可用性事件，未配置或构造失败时返回 nil
// licenseCache 为 nil 时使用全局缓存
func newEngineAdapter(ctx context.Context, cfg *EngineConfig, factory EngineFactory, sink AnalyticsSink, licenseCache *xcache.Cache) *engineAdapter {
	if cfg == nil || factory == nil {
		sink.Record(ctx, EngineAvailabilityEvent{Required: false, InitSuccess: false})
		xlog.Info(ctx, "[xscan] engine not configured, legacy only")
		return nil
	}

	failures := xcache.NewNamespace[string](licenseCache, licenseCacheNamespace)
	key := licenseCacheKey(cfg.LicenseKey)
	if reason, ok := failures.Get(key); ok {
		sink.Record(ctx, EngineAvailabilityEvent{Required: true, InitSuccess: false, FailureReason: reason})
		xlog.Warn(ctx, "[xscan] engine disabled by cached license failure, reason=[%s]", reason)
		return nil
	}

	engine, err := factory(ctx, *cfg)
	if err == nil && engine == nil {
		err = errors.New("engine factory returned nil engine")
	}
	if err != nil {
		reason := err.Error()
		var le *LicenseError
		if errors.As(err, &le) {
			reason = le.Reason
			failures.SetWithTTL(key, reason, cfg.licenseFailureTTL())
		}
		sink.Record(ctx, EngineAvailabilityEvent{Required: true, InitSuccess: false, FailureReason: reason})
		xlog.Error(ctx, "[xscan] engine init failed, legacy only, err=[%v]", err)
		return nil
	}

	sink.Record(ctx, EngineAvailabilityEvent{Required: true, InitSuccess: true})
	return &engineAdapter{
		engine:  engine,
		sink:    sink,
		tracker: NewMetricsTracker("engine"),
		now:     time.Now,
	}
}

// Analyze 错误统一转换为 *EngineError 并记录事件
func (a *engineAdapter) Analyze(ctx context.Context, frame Frame, classified Classified) (EngineResult, error) {
	ctx, span := xtrace.Tracer().Start(ctx, "xscan.Analyze")
	defer span.End()

	start := a.now()
	res, err := a.engine.Analyze(ctx, frame, classified)
	a.tracker.Track(a.now().Sub(start), err)
	if err == nil {
		span.SetAttributes(attribute.String("xscan.document_type", res.DocumentType))
		return res, nil
	}

	ee := asEngineError(err)
	span.RecordError(ee)
	span.SetStatus(codes.Error, string(ee.Kind))
	a.sink.Record(ctx, EngineErrorEvent{ErrorKind: ee.Kind})
	return EngineResult{}, ee
}

func (a *engineAdapter) Close() error {
	var err error
	a.closeOnce.Do(func() { err = a.engine.Close() })
	return err
}

// licenseCacheKey 缓存中只保留 license 摘要
func licenseCacheKey(licenseKey string) string {
	sum := blake2b.Sum256([]byte(licenseKey))
	return hex.EncodeToString(sum[:])
}
