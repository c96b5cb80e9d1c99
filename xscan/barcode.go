package xscan

import (
	"context"
	"sync"
	"time"
)

// Symbology 条码制式
type Symbology string

const (
	SymbologyPDF417     Symbology = "pdf417"
	SymbologyQR         Symbology = "qr"
	SymbologyCode128    Symbology = "code128"
	SymbologyAztec      Symbology = "aztec"
	SymbologyDataMatrix Symbology = "data_matrix"
)

// BarcodeOutput 解码结果
type BarcodeOutput struct {
	Payload   string    `json:"payload"`
	Symbology Symbology `json:"symbology"`
}

// BarcodeReader 条码解码器，未找到条码时返回 nil, nil
type BarcodeReader interface {
	Decode(ctx context.Context, frame Frame, bounds Bounds, symbology Symbology) (*BarcodeOutput, error)
}

// BarcodeDetector 只处理证件背面，累计失败耗时超过 Timeout 后本会话不再尝试
type BarcodeDetector struct {
	reader    BarcodeReader
	symbology Symbology
	budget    time.Duration
	tracker   *MetricsTracker
	now       func() time.Time

	mu       sync.Mutex
	spent    time.Duration
	timedOut bool
}

func NewBarcodeDetector(reader BarcodeReader, cfg BarcodeConfig) *BarcodeDetector {
	return &BarcodeDetector{
		reader:    reader,
		symbology: cfg.Symbology,
		budget:    cfg.timeout(),
		tracker:   NewMetricsTracker("barcode"),
		now:       time.Now,
	}
}

// Detect 非背面或已超时时不调用 reader，直接返回 nil, nil
// 解码失败返回 *DecodeError，不影响当前帧
func (d *BarcodeDetector) Detect(ctx context.Context, frame Frame, classified *Classified) (*BarcodeOutput, error) {
	if classified == nil || classified.Classification != ClassificationIDCardBack {
		return nil, nil
	}
	if d.TimedOut() {
		return nil, nil
	}

	start := d.now()
	out, err := d.reader.Decode(ctx, frame, classified.Bounds, d.symbology)
	elapsed := d.now().Sub(start)
	d.tracker.Track(elapsed, err)

	if err == nil && out != nil {
		return out, nil
	}

	d.mu.Lock()
	d.spent += elapsed
	if d.spent >= d.budget {
		d.timedOut = true
	}
	d.mu.Unlock()

	if err != nil {
		return nil, &DecodeError{Symbology: d.symbology, Err: err}
	}
	return nil, nil
}

func (d *BarcodeDetector) TimedOut() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timedOut
}

// Reset 清零累计耗时
func (d *BarcodeDetector) Reset() {
	d.mu.Lock()
	d.spent = 0
	d.timedOut = false
	d.mu.Unlock()
}

func (d *BarcodeDetector) Tracker() *MetricsTracker {
	return d.tracker
}
