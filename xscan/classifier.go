package xscan

import (
	"context"
	"sync"
	"time"

	"github.com/xiaoshicae/xdocscan/xtrace"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/exp/slices"
)

// Prediction 模型输出的一个候选框
type Prediction struct {
	Classification Classification `json:"classification"`
	Bounds         Bounds         `json:"bounds"`
	Confidence     float64        `json:"confidence"`
}

// Model 文档分类/检测模型
type Model interface {
	Infer(ctx context.Context, frame Frame) ([]Prediction, error)
}

// ModelFunc 函数适配为 Model
type ModelFunc func(ctx context.Context, frame Frame) ([]Prediction, error)

func (f ModelFunc) Infer(ctx context.Context, frame Frame) ([]Prediction, error) {
	return f(ctx, frame)
}

// Classifier 主分类器
//
// 先按 MinConfidence 过滤候选，再取置信度最高者。
// 若最高者与上一帧结果类别不同但位置重叠（IOU >= MinIOU），
// 且存在与上一帧同类、同样重叠的候选，则沿用上一帧类别，避免相邻帧正反面来回跳变。
type Classifier struct {
	model   Model
	cfg     ClassifierConfig
	tracker *MetricsTracker
	now     func() time.Time

	mu       sync.Mutex
	previous *Classified
}

func NewClassifier(model Model, cfg ClassifierConfig) *Classifier {
	return &Classifier{
		model:   model,
		cfg:     cfg,
		tracker: NewMetricsTracker("classifier"),
		now:     time.Now,
	}
}

// Classify 未检测到文档时返回 nil, nil；模型失败返回 *InferenceError
func (c *Classifier) Classify(ctx context.Context, frame Frame) (*Classified, error) {
	ctx, span := xtrace.Tracer().Start(ctx, "xscan.Classify")
	defer span.End()

	start := c.now()
	predictions, err := c.model.Infer(ctx, frame)
	c.tracker.Track(c.now().Sub(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "inference failed")
		return nil, &InferenceError{Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	best := c.pick(predictions)
	c.previous = best
	if best == nil {
		span.SetAttributes(attribute.String("xscan.classification", ClassificationNone.String()))
		return nil, nil
	}
	span.SetAttributes(
		attribute.String("xscan.classification", best.Classification.String()),
		attribute.Float64("xscan.confidence", best.Confidence),
	)
	out := *best
	return &out, nil
}

func (c *Classifier) pick(predictions []Prediction) *Classified {
	candidates := make([]Prediction, 0, len(predictions))
	for _, p := range predictions {
		if p.Classification == ClassificationNone || p.Bounds.IsEmpty() {
			continue
		}
		if p.Confidence < c.cfg.MinConfidence {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil
	}
	slices.SortStableFunc(candidates, func(a, b Prediction) int {
		switch {
		case a.Confidence > b.Confidence:
			return -1
		case a.Confidence < b.Confidence:
			return 1
		default:
			return 0
		}
	})

	best := candidates[0]
	if prev := c.previous; prev != nil && best.Classification != prev.Classification &&
		best.Bounds.IOU(prev.Bounds) >= c.cfg.MinIOU {
		for _, p := range candidates[1:] {
			if p.Classification == prev.Classification && p.Bounds.IOU(prev.Bounds) >= c.cfg.MinIOU {
				best = p
				break
			}
		}
	}
	return &Classified{Classification: best.Classification, Bounds: best.Bounds, Confidence: best.Confidence}
}

// Reset 清除上一帧结果
func (c *Classifier) Reset() {
	c.mu.Lock()
	c.previous = nil
	c.mu.Unlock()
}

func (c *Classifier) Tracker() *MetricsTracker {
	return c.tracker
}
