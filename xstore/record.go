package xstore

import (
	"github.com/xiaoshicae/xdocscan/xscan"
)

// NewFrameRecord 把一帧的输出或错误转换为 ScanFrame
func NewFrameRecord(sessionID string, seq int, frameID string, out xscan.Output, err error) ScanFrame {
	r := ScanFrame{SessionID: sessionID, Seq: seq, FrameID: frameID}
	if err != nil {
		r.OutputType = "error"
		r.Error = truncate(err.Error(), 512)
		return r
	}

	switch o := out.(type) {
	case *xscan.NoneOutput:
		r.OutputType = xscan.OutputTypeNone
		r.Reason = string(o.Reason)
	case *xscan.LegacyOutput:
		r.OutputType = xscan.OutputTypeLegacy
		fillLegacy(&r, o)
	case *xscan.ModernOutput:
		r.OutputType = xscan.OutputTypeModern
		fillLegacy(&r, &o.LegacyOutput)
		r.DocumentType = o.EngineResult.DocumentType
	default:
		r.OutputType = "unknown"
	}
	return r
}

func fillLegacy(r *ScanFrame, o *xscan.LegacyOutput) {
	r.Classification = o.Classification.String()
	r.Confidence = o.Confidence
	r.HasMotionBlur = o.MotionBlur.HasMotionBlur
	r.IsBlurry = o.BlurScore.IsBlurry
	r.BlurVariance = o.BlurScore.Variance
	r.BarcodeTimedOut = o.BarcodeTimedOut
	if o.Barcode != nil {
		r.BarcodePayload = truncate(o.Barcode.Payload, 2048)
	}
}

// Tally 按输出类型累加到会话汇总
func (s *ScanSession) Tally(r ScanFrame) {
	s.FrameCount++
	switch r.OutputType {
	case xscan.OutputTypeNone:
		s.NoneCount++
	case xscan.OutputTypeLegacy:
		s.LegacyCount++
	case xscan.OutputTypeModern:
		s.ModernCount++
	default:
		s.ErrorCount++
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
