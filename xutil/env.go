package xutil

import (
	"os"
	"strings"

	"github.com/spf13/cast"
)

// DebugKey 打开后 xdocscan 初始化阶段的配置与错误会打印到控制台
const DebugKey = "XSCAN_ENABLE_DEBUG"

func EnableDebug() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(DebugKey)))
	if v == "yes" || v == "y" || v == "on" {
		return true
	}
	b, _ := cast.ToBoolE(v)
	return b
}
