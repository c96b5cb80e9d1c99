package xscan

import (
	"image"
	"math"
	"time"
)

// Frame 一帧相机画面，只在一次 ScanImage 调用期间被只读借用
type Frame struct {
	// ID 帧标识，仅用于日志与回放
	ID string

	Image image.Image

	// Timestamp 采集时间，运动模糊按帧时间计算稳定时长，零值时使用处理时刻
	Timestamp time.Time
}

// DeviceProperties 采集该帧时的相机参数快照
type DeviceProperties struct {
	ExposureDuration time.Duration `json:"exposureDuration"`
	ISO              float64       `json:"iso"`
	LensPosition     float64       `json:"lensPosition"`
	DeviceType       string        `json:"deviceType"`
	IsVirtualDevice  bool          `json:"isVirtualDevice"`
	IsAdjustingFocus bool          `json:"isAdjustingFocus"`
}

// Classification 文档类别
type Classification int

const (
	ClassificationNone Classification = iota
	ClassificationIDCardFront
	ClassificationIDCardBack
	ClassificationPassport
)

var classificationNames = map[Classification]string{
	ClassificationNone:        "none",
	ClassificationIDCardFront: "id_card_front",
	ClassificationIDCardBack:  "id_card_back",
	ClassificationPassport:    "passport",
}

func (c Classification) String() string {
	if s, ok := classificationNames[c]; ok {
		return s
	}
	return "unknown"
}

// ParseClassification 未知名称返回 ClassificationNone
func ParseClassification(s string) Classification {
	for c, name := range classificationNames {
		if name == s {
			return c
		}
	}
	return ClassificationNone
}

func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Classification) UnmarshalText(b []byte) error {
	*c = ParseClassification(string(b))
	return nil
}

// Bounds 归一化矩形，X/Y/Width/Height 取值 [0,1]，相对整帧
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b Bounds) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

func (b Bounds) Area() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.Width * b.Height
}

// IOU 交并比，任一为空时为 0
func (b Bounds) IOU(o Bounds) float64 {
	ix := math.Min(b.X+b.Width, o.X+o.Width) - math.Max(b.X, o.X)
	iy := math.Min(b.Y+b.Height, o.Y+o.Height) - math.Max(b.Y, o.Y)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Pad 四周各外扩 ratio 倍宽高，结果裁剪到 [0,1]
func (b Bounds) Pad(ratio float64) Bounds {
	dx, dy := b.Width*ratio, b.Height*ratio
	x0 := clamp01(b.X - dx)
	y0 := clamp01(b.Y - dy)
	x1 := clamp01(b.X + b.Width + dx)
	y1 := clamp01(b.Y + b.Height + dy)
	return Bounds{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// ToPixels 换算为 frame 内的像素矩形，结果已与 frame 求交
func (b Bounds) ToPixels(frame image.Rectangle) image.Rectangle {
	w, h := float64(frame.Dx()), float64(frame.Dy())
	r := image.Rect(
		frame.Min.X+int(math.Floor(b.X*w)),
		frame.Min.Y+int(math.Floor(b.Y*h)),
		frame.Min.X+int(math.Ceil((b.X+b.Width)*w)),
		frame.Min.Y+int(math.Ceil((b.Y+b.Height)*h)),
	)
	return r.Intersect(frame)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Classified 主分类器的结果，Bounds 与 Classification 成对出现
type Classified struct {
	Classification Classification
	Bounds         Bounds
	Confidence     float64
}
