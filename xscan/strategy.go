package xscan

import (
	"context"

	"github.com/xiaoshicae/xdocscan/xlog"
)

// frameInput 通过门控与分类后的一帧
type frameInput struct {
	frame      Frame
	props      *DeviceProperties
	classified Classified
}

// outputStrategy legacy 与 modern 两种产出方式，按当前状态选择
type outputStrategy interface {
	state() PipelineState
	produce(ctx context.Context, in *frameInput) Output
}

// legacyStrategy 只运行本地质量检测器
type legacyStrategy struct {
	s *Scanner
}

func (legacyStrategy) state() PipelineState { return StateActiveLegacy }

func (l legacyStrategy) produce(ctx context.Context, in *frameInput) Output {
	out := l.s.runQualityDetectors(ctx, in)
	return &out
}

// modernStrategy 先调用分析引擎，失败时回落到 legacy
type modernStrategy struct {
	s      *Scanner
	legacy legacyStrategy
}

func (modernStrategy) state() PipelineState { return StateActiveModern }

func (m modernStrategy) produce(ctx context.Context, in *frameInput) Output {
	res, err := m.s.engine.Analyze(ctx, in.frame, in.classified)
	if err != nil {
		if IsRunnerError(err) {
			if m.s.state.markUnrecoverableEngineError() {
				xlog.Warn(ctx, "[xscan] engine runner error, downgrade to legacy for this session, frame=[%s], err=[%v]", in.frame.ID, err)
			}
		} else {
			xlog.Warn(ctx, "[xscan] engine analyze failed, use legacy for this frame, frame=[%s], err=[%v]", in.frame.ID, err)
		}
		return m.legacy.produce(ctx, in)
	}

	return &ModernOutput{
		LegacyOutput: m.s.runQualityDetectors(ctx, in),
		EngineResult: res,
	}
}
