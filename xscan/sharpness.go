package xscan

import (
	"image"

	"golang.org/x/image/draw"
)

// minCropSide 拉普拉斯算子至少需要 3x3
const minCropSide = 3

// SharpnessOutput 清晰度评分
type SharpnessOutput struct {
	IsBlurry bool `json:"isBlurry"`

	// Variance 拉普拉斯方差，-1 表示区域无法评估
	Variance float64 `json:"variance"`
}

// DefaultSharpnessOutput 裁剪区域退化时的中性结果
var DefaultSharpnessOutput = SharpnessOutput{IsBlurry: false, Variance: -1}

// SharpnessScorer 无状态，对文档区域计算拉普拉斯方差
type SharpnessScorer struct {
	cfg SharpnessConfig
}

func NewSharpnessScorer(cfg SharpnessConfig) *SharpnessScorer {
	return &SharpnessScorer{cfg: cfg}
}

// Score 区域为空或过小时返回 DefaultSharpnessOutput
func (s *SharpnessScorer) Score(img image.Image, bounds Bounds) SharpnessOutput {
	gray, ok := s.crop(img, bounds)
	if !ok {
		return DefaultSharpnessOutput
	}
	v := laplacianVariance(gray)
	return SharpnessOutput{IsBlurry: v < s.cfg.Threshold, Variance: v}
}

// crop 外扩裁剪并缩放到最长边不超过 MaxDimension 的灰度图
func (s *SharpnessScorer) crop(img image.Image, bounds Bounds) (*image.Gray, bool) {
	if img == nil || bounds.IsEmpty() {
		return nil, false
	}
	src := bounds.Pad(s.cfg.CropPadding).ToPixels(img.Bounds())
	if src.Dx() < minCropSide || src.Dy() < minCropSide {
		return nil, false
	}

	w, h := src.Dx(), src.Dy()
	if longest := max(w, h); longest > s.cfg.MaxDimension {
		scale := float64(s.cfg.MaxDimension) / float64(longest)
		w = max(int(float64(w)*scale), 1)
		h = max(int(float64(h)*scale), 1)
	}
	if w < minCropSide || h < minCropSide {
		return nil, false
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	}
	return dst, true
}

// laplacianVariance 4 邻域拉普拉斯响应的方差，像素值归一化到 [0,1]
func laplacianVariance(g *image.Gray) float64 {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	at := func(x, y int) float64 {
		return float64(g.Pix[y*g.Stride+x]) / 255
	}

	var sum, sumSq float64
	n := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			l := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			sum += l
			sumSq += l * l
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}
