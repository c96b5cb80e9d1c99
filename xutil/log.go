package xutil

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// 这里的日志只用于 xdocscan 启动及初始化阶段的调试，仅输出到 stderr
// 业务日志请使用 xlog

var (
	debugLogger     *logrus.Logger
	debugLoggerOnce sync.Once
	ignoredCallers  []*regexp.Regexp
)

var ignoredCallerPatterns = []string{
	`/xutil/log\.go$`,
	`logrus(|@v.*)/(hooks|entry|logger|exported)\.go$`,
	`asm_amd64\.s$`,
}

const (
	maxCallerDepth = 25
	minCallerDepth = 4
)

func InfoIfEnableDebug(msg string, args ...any) {
	LogIfEnableDebug(logrus.InfoLevel, msg, args...)
}

func WarnIfEnableDebug(msg string, args ...any) {
	LogIfEnableDebug(logrus.WarnLevel, msg, args...)
}

func ErrorIfEnableDebug(msg string, args ...any) {
	LogIfEnableDebug(logrus.ErrorLevel, msg, args...)
}

func LogIfEnableDebug(level logrus.Level, msg string, args ...any) {
	if !EnableDebug() {
		return
	}
	debugLoggerOnce.Do(initDebugLogger)
	debugLogger.Logf(level, msg, args...)
}

// GetLogCaller 跳过日志库自身及 extraIgnore 后缀的栈帧，返回真正的调用方
func GetLogCaller(skip int, extraIgnore []string) *runtime.Frame {
	pcs := make([]uintptr, maxCallerDepth)
	n := runtime.Callers(minCallerDepth+skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		f, more := frames.Next()
		if !isIgnoredCaller(f.File, extraIgnore) {
			return &f
		}
		if !more {
			return nil
		}
	}
}

func isIgnoredCaller(file string, extraIgnore []string) bool {
	for _, s := range extraIgnore {
		if strings.HasSuffix(file, s) {
			return true
		}
	}
	for _, r := range ignoredCallers {
		if r.MatchString(file) {
			return true
		}
	}
	return false
}

func debugCallerPretty(_ *runtime.Frame) (string, string) {
	frame := GetLogCaller(0, nil)
	if frame == nil {
		return "", " ???"
	}
	return "", fmt.Sprintf(" \x1b[34m%s:%d\x1b[0m", path.Base(frame.File), frame.Line)
}

func initDebugLogger() {
	ignoredCallers = make([]*regexp.Regexp, 0, len(ignoredCallerPatterns))
	for _, p := range ignoredCallerPatterns {
		ignoredCallers = append(ignoredCallers, regexp.MustCompile(p))
	}

	l := logrus.New()
	l.Formatter = &logrus.TextFormatter{
		ForceColors:      true,
		FullTimestamp:    true,
		TimestampFormat:  "2006-01-02 15:04:05.999",
		CallerPrettyfier: debugCallerPretty,
	}
	l.SetReportCaller(true)
	l.SetLevel(logrus.InfoLevel)
	l.SetOutput(os.Stderr)
	debugLogger = l
}
