package xlog

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/xiaoshicae/xdocscan/xconfig"
	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xhook"
	"github.com/xiaoshicae/xdocscan/xutil"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
	logwriter "github.com/sirupsen/logrus/hooks/writer"
)

func init() {
	xhook.BeforeStart(initXLog, xhook.Order(2))
}

func initXLog() error {
	c := &Config{}
	if err := xconfig.UnmarshalConfig(XLogConfigKey, c); err != nil {
		return xerror.Newf("xlog", "init", "unmarshal config failed, err=[%w]", err)
	}
	c = configMergeDefault(c)
	xutil.InfoIfEnableDebug("xdocscan initXLog got config: %s", xutil.ToJsonString(c))

	return initXLogByConfig(c)
}

func initXLogByConfig(c *Config) error {
	if err := os.MkdirAll(c.Path, os.ModePerm); err != nil {
		return xerror.Newf("xlog", "init", "mkdir failed, path=[%s], err=[%w]", c.Path, err)
	}

	logFile := filepath.Join(c.Path, c.Name+".log")
	rotator, err := rotatelogs.New(
		logFile+".%Y%m%d",
		rotatelogs.WithLinkName(logFile),
		rotatelogs.WithMaxAge(xutil.ToDuration(c.MaxAge)),
		rotatelogs.WithRotationTime(xutil.ToDuration(c.RotateTime)),
	)
	if err != nil {
		return xerror.Newf("xlog", "init", "create rotatelogs failed, err=[%w]", err)
	}
	fileWriter := newAsyncWriter(rotator, c.BufferSize)
	xhook.BeforeStop(fileWriter.Close, xhook.Order(1000))

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		xutil.WarnIfEnableDebug("xdocscan initXLog load timezone [%s] failed, use Local, err=[%v]", c.Timezone, err)
		loc = time.Local
	}

	host, _ := os.Hostname()
	var console io.Writer
	if c.Console {
		console = os.Stdout
	}

	logrus.SetOutput(io.Discard)
	logrus.SetFormatter(locationFormatter{
		Formatter: &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.999",
			CallerPrettyfier: func(*runtime.Frame) (string, string) {
				return "", ""
			},
		},
		loc: loc,
	})
	logrus.AddHook(&fieldHook{
		app:        xconfig.GetAppName(),
		host:       xutil.GetOrDefault(host, "unknown"),
		pid:        strconv.Itoa(os.Getpid()),
		console:    console,
		consoleRaw: c.ConsoleFormatIsRaw,
	})
	logrus.AddHook(&logwriter.Hook{
		Writer:    fileWriter,
		LogLevels: levelsAtOrAbove(c.Level),
	})
	logrus.SetLevel(parseLevel(c.Level))
	return nil
}

func parseLevel(level string) logrus.Level {
	l, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}

// levelsAtOrAbove 返回不低于 level 的所有级别
func levelsAtOrAbove(level string) []logrus.Level {
	threshold := parseLevel(level)
	levels := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, l := range logrus.AllLevels {
		if l <= threshold {
			levels = append(levels, l)
		}
	}
	return levels
}
