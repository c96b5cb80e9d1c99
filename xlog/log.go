package xlog

import (
	"context"
	"maps"

	"github.com/sirupsen/logrus"
)

type ctxKVKey struct{}

// Option 通过 KV/KVMap 附加结构化字段，可与格式化参数混合传入
type Option func(fields logrus.Fields)

func KV(k string, v any) Option {
	return func(fields logrus.Fields) {
		fields[k] = v
	}
}

func KVMap(m map[string]any) Option {
	return func(fields logrus.Fields) {
		maps.Copy(fields, m)
	}
}

func Error(ctx context.Context, msg string, args ...any) {
	RawLog(ctx, logrus.ErrorLevel, msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	RawLog(ctx, logrus.WarnLevel, msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	RawLog(ctx, logrus.InfoLevel, msg, args...)
}

func Debug(ctx context.Context, msg string, args ...any) {
	RawLog(ctx, logrus.DebugLevel, msg, args...)
}

// RawLog args 中的 Option 作为字段，其余作为 msg 的格式化参数
func RawLog(ctx context.Context, level logrus.Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !logrus.IsLevelEnabled(level) {
		return
	}

	entry := logrus.WithContext(ctx)
	if len(args) == 0 {
		entry.Log(level, msg)
		return
	}

	var fields logrus.Fields
	fmtArgs := args[:0:0]
	for _, arg := range args {
		opt, ok := arg.(Option)
		if !ok {
			fmtArgs = append(fmtArgs, arg)
			continue
		}
		if fields == nil {
			fields = logrus.Fields{}
		}
		opt(fields)
	}
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Logf(level, msg, fmtArgs...)
}

// CtxWithKV 向ctx注入kv，之后使用该ctx打印的日志都会带上这些字段
// 每次返回新的 map，不修改父ctx中的数据
func CtxWithKV(ctx context.Context, kvs map[string]any) context.Context {
	parent := kvFromCtx(ctx)
	merged := make(map[string]any, len(parent)+len(kvs))
	maps.Copy(merged, parent)
	maps.Copy(merged, kvs)
	return context.WithValue(ctx, ctxKVKey{}, merged)
}

func kvFromCtx(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	kv, _ := ctx.Value(ctxKVKey{}).(map[string]any)
	return kv
}
