package xserver

// Server 长驻服务，如事件采集服务
type Server interface {
	// Run 以阻塞方式运行，返回即视为服务结束
	Run() error

	// Stop 收到退出信号时调用，放资源清理逻辑
	Stop() error
}
