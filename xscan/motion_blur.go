package xscan

import (
	"sync"
	"time"
)

// MotionBlurOutput 运动模糊判定
type MotionBlurOutput struct {
	HasMotionBlur bool `json:"hasMotionBlur"`

	// StableDuration 文档 bounds 持续保持重叠的时长
	StableDuration time.Duration `json:"stableDuration"`

	// IOU 与上一帧 bounds 的交并比，首帧为 0
	IOU float64 `json:"iou"`
}

// MotionBlurDetector 按帧时间统计 bounds 稳定时长，与图像本身清晰度无关
type MotionBlurDetector struct {
	cfg MotionBlurConfig
	min time.Duration

	mu          sync.Mutex
	last        *Bounds
	stableSince time.Time
}

func NewMotionBlurDetector(cfg MotionBlurConfig) *MotionBlurDetector {
	return &MotionBlurDetector{cfg: cfg, min: cfg.minDuration()}
}

// Observe 记录本帧 bounds 并给出判定
func (d *MotionBlurDetector) Observe(bounds Bounds, at time.Time) MotionBlurOutput {
	d.mu.Lock()
	defer d.mu.Unlock()

	iou := 0.0
	if d.last != nil {
		iou = bounds.IOU(*d.last)
	}
	if d.last == nil || iou < d.cfg.MinIOU || at.Before(d.stableSince) {
		d.stableSince = at
	}
	b := bounds
	d.last = &b

	stable := at.Sub(d.stableSince)
	return MotionBlurOutput{
		HasMotionBlur:  stable < d.min,
		StableDuration: stable,
		IOU:            iou,
	}
}

// Reset 清除历史，下一帧从零开始计时
func (d *MotionBlurDetector) Reset() {
	d.mu.Lock()
	d.last = nil
	d.stableSince = time.Time{}
	d.mu.Unlock()
}
