package xscan

import (
	"errors"
	"fmt"
)

var ErrScannerClosed = errors.New("xscan: scanner closed")

// InferenceError 分类模型调用失败，只导致当前帧失败
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("xscan: classifier inference failed, err=[%v]", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// DecodeError 条码解码失败，当前帧继续且不带条码结果
type DecodeError struct {
	Symbology Symbology
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("xscan: barcode decode failed, symbology=[%s], err=[%v]", e.Symbology, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// LicenseError 分析引擎授权失败，引擎在本次会话中不可用
type LicenseError struct {
	Reason string
	Err    error
}

func (e *LicenseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("xscan: engine license invalid, reason=[%s]", e.Reason)
	}
	return fmt.Sprintf("xscan: engine license invalid, reason=[%s], err=[%v]", e.Reason, e.Err)
}

func (e *LicenseError) Unwrap() error { return e.Err }

type EngineErrorKind string

const (
	// EngineErrorRunner 引擎内部不可恢复错误，本次会话永久降级为 legacy
	EngineErrorRunner EngineErrorKind = "runner"

	EngineErrorInvalidInput EngineErrorKind = "invalid_input"
	EngineErrorTimeout      EngineErrorKind = "timeout"
	EngineErrorUnknown      EngineErrorKind = "unknown"
)

// EngineError 分析引擎运行期错误，除 runner 外下一帧会重试
type EngineError struct {
	Kind EngineErrorKind
	Err  error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("xscan: engine analyze failed, kind=[%s], err=[%v]", e.Kind, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// IsRunnerError err 链中是否包含 runner 类引擎错误
func IsRunnerError(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Kind == EngineErrorRunner
}

// asEngineError 非 EngineError 的错误按 unknown 处理
func asEngineError(err error) *EngineError {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee
	}
	return &EngineError{Kind: EngineErrorUnknown, Err: err}
}
