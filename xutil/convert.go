package xutil

import (
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// ToPtr 获取指针
func ToPtr[T any](t T) *T {
	return &t
}

// GetOrDefault 如果v为0值，则返回defaultV
func GetOrDefault[T any](v T, defaultV T) T {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.IsZero() {
		return defaultV
	}
	return v
}

// Clamp 将v限制在[lo, hi]区间内
func Clamp[T ~int | ~int64 | ~float32 | ~float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ToDuration 兼容d类型时长，如"1d"、"2d12h"
func ToDuration(i any) time.Duration {
	switch v := i.(type) {
	case nil:
		return 0
	case string:
		return strToDuration(v)
	case *string:
		if v == nil {
			return 0
		}
		return strToDuration(*v)
	default:
		return cast.ToDuration(i)
	}
}

func strToDuration(duration string) time.Duration {
	day, left, found := strings.Cut(duration, "d")
	if !found {
		return cast.ToDuration(duration)
	}
	days, _ := cast.ToIntE(day)
	return time.Duration(days)*24*time.Hour + cast.ToDuration(left)
}
