package xscan

import "sync/atomic"

// PipelineState 流水线状态
//
//	WarmingUp -> ActiveLegacy <-> ActiveModern
//
// ActiveModern -> ActiveLegacy 在引擎出现 runner 错误后不可逆
type PipelineState int

const (
	StateWarmingUp PipelineState = iota
	StateActiveLegacy
	StateActiveModern
)

func (s PipelineState) String() string {
	switch s {
	case StateWarmingUp:
		return "warming_up"
	case StateActiveLegacy:
		return "active_legacy"
	case StateActiveModern:
		return "active_modern"
	default:
		return "unknown"
	}
}

// SessionState 单个 Scanner 的会话状态
type SessionState struct {
	// hasSeenUnrecoverableEngineError 只会从 false 变为 true，Reset 不清除
	hasSeenUnrecoverableEngineError atomic.Bool

	scanningEnabled       atomic.Bool
	scheduledStartupTimer atomic.Bool

	// generation 每次 Reset 自增，旧会话的预热定时器据此失效
	generation atomic.Uint64
}

func (s *SessionState) HasSeenUnrecoverableEngineError() bool {
	return s.hasSeenUnrecoverableEngineError.Load()
}

func (s *SessionState) ScanningEnabled() bool {
	return s.scanningEnabled.Load()
}

func (s *SessionState) ScheduledStartupTimer() bool {
	return s.scheduledStartupTimer.Load()
}

// markUnrecoverableEngineError 返回是否为首次标记
func (s *SessionState) markUnrecoverableEngineError() bool {
	return s.hasSeenUnrecoverableEngineError.CompareAndSwap(false, true)
}

// resetSession 清除预热相关标记，保留引擎不可恢复标记
func (s *SessionState) resetSession() {
	s.generation.Add(1)
	s.scanningEnabled.Store(false)
	s.scheduledStartupTimer.Store(false)
}
