// Package xerror 提供 xdocscan 统一的基础设施错误类型
package xerror

import (
	"errors"
	"fmt"
)

// XScanError 基础设施错误，记录出错的模块与操作
type XScanError struct {
	Module string // 模块名，如 "xconfig", "xscan"
	Op     string // 操作名，如 "init", "scan"
	Err    error
}

func (e *XScanError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("xdocscan %s %s failed", e.Module, e.Op)
	}
	return fmt.Sprintf("xdocscan %s %s failed, err=[%v]", e.Module, e.Op, e.Err)
}

// Unwrap 支持 errors.Is / errors.As
func (e *XScanError) Unwrap() error {
	return e.Err
}

func New(module, op string, err error) *XScanError {
	return &XScanError{Module: module, Op: op, Err: err}
}

// Newf 创建带格式化消息的 XScanError，format 中的 %w 会被保留用于链式判断
func Newf(module, op, format string, args ...any) *XScanError {
	return &XScanError{Module: module, Op: op, Err: fmt.Errorf(format, args...)}
}

// Is 判断 err 链中是否包含指定模块的 XScanError
func Is(err error, module string) bool {
	return Module(err) == module && module != ""
}

// Module 从 err 链中提取最外层 XScanError 的模块名
func Module(err error) string {
	var xe *XScanError
	if errors.As(err, &xe) {
		return xe.Module
	}
	return ""
}

// Join 合并多个错误，忽略 nil，全部为 nil 时返回 nil
func Join(module, op string, errs ...error) error {
	if err := errors.Join(errs...); err != nil {
		return New(module, op, err)
	}
	return nil
}
