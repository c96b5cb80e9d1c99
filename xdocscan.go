package xdocscan

import (
	"github.com/xiaoshicae/xdocscan/xhook"
	"github.com/xiaoshicae/xdocscan/xserver"

	_ "github.com/xiaoshicae/xdocscan/xanalytics" // 配置 XAnalytics 时上报扫描事件
	_ "github.com/xiaoshicae/xdocscan/xcache"
	_ "github.com/xiaoshicae/xdocscan/xgorm"
	_ "github.com/xiaoshicae/xdocscan/xhttp"
	_ "github.com/xiaoshicae/xdocscan/xlog"
	_ "github.com/xiaoshicae/xdocscan/xtrace" // 默认加载trace
)

// R 调用 before start hook，命令行工具与调试使用，结束时需调用 Shutdown
func R() error {
	return xserver.R()
}

// RunServer 启动 Server，以阻塞方式运行并等待退出信号
func RunServer(server xserver.Server) error {
	return xserver.Run(server)
}

// Shutdown 调用 before stop hook，与 R 配对使用
func Shutdown() error {
	return xhook.InvokeBeforeStopHook()
}
