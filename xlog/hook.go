package xlog

import (
	"context"
	"fmt"
	"io"
	"path"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/xiaoshicae/xdocscan/xutil"

	"github.com/sirupsen/logrus"
)

const (
	colorRed    = 31
	colorYellow = 33
	colorCyan   = 36
	colorGray   = 37
)

// ignoredCallerSuffixes xlog 自身的文件，定位调用方时跳过
var ignoredCallerSuffixes = []string{
	"/xlog/log.go",
	"/xlog/hook.go",
}

// fieldHook 为每条日志补充 app/host/pid/caller/trace 字段，并按需打印到控制台
type fieldHook struct {
	app        string
	host       string
	pid        string
	console    io.Writer
	consoleRaw bool
}

func (h *fieldHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fieldHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["app"]; !ok {
		entry.Data["app"] = h.app
	}
	entry.Data["host"] = h.host
	entry.Data["pid"] = h.pid

	caller := entry.Caller
	if caller == nil {
		caller = xutil.GetLogCaller(0, ignoredCallerSuffixes)
	}
	if caller != nil {
		entry.Data["filename"] = path.Base(caller.File)
		entry.Data["lineid"] = strconv.Itoa(caller.Line)
	}

	if traceID := xutil.GetTraceIDFromCtx(entry.Context); traceID != "" {
		entry.Data["traceid"] = traceID
		entry.Data["spanid"] = xutil.GetSpanIDFromCtx(entry.Context)
	}
	for k, v := range kvFromCtx(entry.Context) {
		entry.Data[k] = v
	}

	if h.console == nil {
		return nil
	}
	return h.printConsole(entry, caller)
}

func (h *fieldHook) printConsole(entry *logrus.Entry, caller *runtime.Frame) error {
	if h.consoleRaw {
		line, err := entry.Bytes()
		if err != nil {
			return err
		}
		_, err = h.console.Write(line)
		return err
	}

	file := "???"
	if caller != nil {
		file = fmt.Sprintf("%s:%d", path.Base(caller.File), caller.Line)
	}
	traceID, _ := entry.Data["traceid"].(string)
	line := fmt.Sprintf("\x1b[%dm%-5s\x1b[0m[%s] \x1b[34m%s\x1b[0m %s %s\n",
		levelColor(entry.Level),
		strings.ToUpper(entry.Level.String()),
		entry.Time.Format("2006-01-02 15:04:05.999"),
		file,
		traceID,
		entry.Message,
	)
	_, err := io.WriteString(h.console, line)
	return err
}

func levelColor(l logrus.Level) int {
	switch l {
	case logrus.DebugLevel, logrus.TraceLevel:
		return colorGray
	case logrus.WarnLevel:
		return colorYellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return colorRed
	default:
		return colorCyan
	}
}

// locationFormatter 按配置时区输出时间，复制 entry 以免多个 writer 并发修改
type locationFormatter struct {
	logrus.Formatter
	loc *time.Location
}

func (f locationFormatter) Format(e *logrus.Entry) ([]byte, error) {
	cp := *e
	if cp.Context == nil {
		cp.Context = context.Background()
	}
	cp.Time = cp.Time.In(f.loc)
	return f.Formatter.Format(&cp)
}
