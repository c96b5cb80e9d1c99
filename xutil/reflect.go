package xutil

import (
	"reflect"
	"runtime"
	"strings"
)

// GetFuncInfo 函数定义所在文件、行号及去掉包路径的函数名，用于 hook 日志
// 非函数返回零值
func GetFuncInfo(fc any) (file string, line int, name string) {
	if fc == nil {
		return "", 0, ""
	}
	f := reflect.ValueOf(fc)
	if f.Kind() != reflect.Func || f.IsNil() {
		return "", 0, ""
	}

	fn := runtime.FuncForPC(f.Pointer())
	if fn == nil {
		return "", 0, ""
	}

	fullName := fn.Name()
	if idx := strings.LastIndex(fullName, "/"); idx != -1 {
		fullName = fullName[idx+1:]
	}
	_, after, found := strings.Cut(fullName, ".")
	if !found {
		return "", 0, ""
	}

	file, line = fn.FileLine(f.Pointer())
	return file, line, after
}
