package xreplay

import (
	"context"
	"errors"
	"time"

	"github.com/xiaoshicae/xdocscan/xscan"
)

// 以下实现按帧 ID 回放录制结果，耗时通过虚拟时钟体现

type fixtureModel struct {
	session *Session
	clock   *VirtualClock
}

func (m *fixtureModel) Infer(_ context.Context, frame xscan.Frame) ([]xscan.Prediction, error) {
	f := m.session.fixture(frame.ID)
	if f == nil {
		return nil, nil
	}
	m.clock.Sleep(time.Duration(f.InferMS) * time.Millisecond)
	if f.InferenceError != "" {
		return nil, errors.New(f.InferenceError)
	}
	return f.Predictions, nil
}

type fixtureBarcodeReader struct {
	session *Session
	clock   *VirtualClock
}

func (r *fixtureBarcodeReader) Decode(_ context.Context, frame xscan.Frame, _ xscan.Bounds, symbology xscan.Symbology) (*xscan.BarcodeOutput, error) {
	f := r.session.fixture(frame.ID)
	if f == nil {
		return nil, nil
	}
	r.clock.Sleep(time.Duration(f.DecodeMS) * time.Millisecond)
	if f.DecodeError != "" {
		return nil, errors.New(f.DecodeError)
	}
	if f.Barcode == nil {
		return nil, nil
	}
	out := *f.Barcode
	if out.Symbology == "" {
		out.Symbology = symbology
	}
	return &out, nil
}

// engineFactory 录制的授权失败优先于其他构造失败
func engineFactory(session *Session, clock *VirtualClock) xscan.EngineFactory {
	return func(_ context.Context, _ xscan.EngineConfig) (xscan.Engine, error) {
		fx := session.Manifest.Engine
		switch {
		case fx == nil:
			return nil, errors.New("engine not recorded")
		case fx.LicenseError != "":
			return nil, &xscan.LicenseError{Reason: fx.LicenseError}
		case fx.InitError != "":
			return nil, errors.New(fx.InitError)
		}
		return &fixtureEngine{session: session, clock: clock}, nil
	}
}

type fixtureEngine struct {
	session *Session
	clock   *VirtualClock
}

func (e *fixtureEngine) Analyze(_ context.Context, frame xscan.Frame, classified xscan.Classified) (xscan.EngineResult, error) {
	f := e.session.fixture(frame.ID)
	if f == nil {
		return xscan.EngineResult{DocumentType: classified.Classification.String(), Confidence: classified.Confidence}, nil
	}
	e.clock.Sleep(time.Duration(f.EngineMS) * time.Millisecond)
	if f.EngineError != "" {
		return xscan.EngineResult{}, &xscan.EngineError{Kind: f.EngineError, Err: errors.New("recorded engine error")}
	}
	if f.EngineResult != nil {
		return *f.EngineResult, nil
	}
	return xscan.EngineResult{DocumentType: classified.Classification.String(), Confidence: classified.Confidence}, nil
}

func (e *fixtureEngine) Close() error {
	return nil
}
