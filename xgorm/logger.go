package xgorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xiaoshicae/xdocscan/xlog"
	"github.com/xiaoshicae/xdocscan/xutil"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGormLogger(c *Config) *gormLogger {
	return &gormLogger{
		logLevel:                  resolveLogLevel(logrus.GetLevel()),
		slowThreshold:             xutil.ToDuration(c.SlowThreshold),
		ignoreRecordNotFoundError: c.IgnoreRecordNotFoundErrorLog,
	}
}

// gormLogger 把 gorm 的 sql 日志转发到 xlog
type gormLogger struct {
	logLevel                  logger.LogLevel
	ignoreRecordNotFoundError bool
	slowThreshold             time.Duration
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	nl := *l
	nl.logLevel = level
	return &nl
}

func (l *gormLogger) Info(ctx context.Context, s string, i ...any) {
	if l.logLevel >= logger.Info {
		xlog.Info(ctx, "[xgorm] "+s, i...)
	}
}

func (l *gormLogger) Warn(ctx context.Context, s string, i ...any) {
	if l.logLevel >= logger.Warn {
		xlog.Warn(ctx, "[xgorm] "+s, i...)
	}
}

func (l *gormLogger) Error(ctx context.Context, s string, i ...any) {
	if l.logLevel >= logger.Error {
		xlog.Error(ctx, "[xgorm] "+s, i...)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}
	cost := time.Since(begin)
	costMS := fmt.Sprintf("%vms", cost.Milliseconds())

	switch {
	case err != nil && l.logLevel >= logger.Error && (!errors.Is(err, gorm.ErrRecordNotFound) || !l.ignoreRecordNotFoundError):
		sql, rows := fc()
		xlog.Error(ctx, "[xgorm] latency=[%s], rows=[%s], sql=[%s], err=[%v]", costMS, rowsString(rows), sql, err)
	case l.slowThreshold != 0 && cost > l.slowThreshold && l.logLevel >= logger.Warn:
		sql, rows := fc()
		xlog.Warn(ctx, "[xgorm] SLOW SQL >= %v, latency=[%s], rows=[%s], sql=[%s]", l.slowThreshold, costMS, rowsString(rows), sql)
	case l.logLevel == logger.Info:
		sql, rows := fc()
		xlog.Info(ctx, "[xgorm] latency=[%s], rows=[%s], sql=[%s]", costMS, rowsString(rows), sql)
	}
}

func rowsString(rows int64) string {
	if rows == -1 {
		return "-"
	}
	return fmt.Sprint(rows)
}

func resolveLogLevel(l logrus.Level) logger.LogLevel {
	switch {
	case l >= logrus.InfoLevel:
		return logger.Info
	case l == logrus.WarnLevel:
		return logger.Warn
	default:
		return logger.Error
	}
}
