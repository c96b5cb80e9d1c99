package xserver

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xhook"
	"github.com/xiaoshicae/xdocscan/xutil"
)

// Run 执行 BeforeStart hook 后阻塞运行 server，直到 server 结束或收到退出信号，最后执行 BeforeStop hook
func Run(server Server) error {
	return run(server)
}

// R 只执行 BeforeStart hook，用于命令行工具和调试
func R() error {
	return run(nil)
}

func run(server Server) error {
	if err := xhook.InvokeBeforeStartHook(); err != nil {
		return err
	}
	if server == nil {
		return nil
	}

	serverRunErr := runWithServer(server)
	beforeStopHookErr := xhook.InvokeBeforeStopHook()
	if serverRunErr != nil || beforeStopHookErr != nil {
		return errors.Join(serverRunErr, beforeStopHookErr)
	}
	return nil
}

func runWithServer(s Server) error {
	serverRunErrChan := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, quitSignals...)
	defer signal.Stop(quit)

	go safeInvokeServerRun(s, serverRunErrChan)

	select {
	case err := <-serverRunErrChan:
		if err != nil {
			return xerror.Newf("xserver", "run", "run server failed, err=[%w]", err)
		}
		xutil.WarnIfEnableDebug("xdocscan server stopped unexpectedly")
		return nil
	case sig := <-quit:
		xutil.InfoIfEnableDebug("xdocscan stop server begin, signal=[%v]", sig)
		if err := safeInvokeServerStop(s); err != nil {
			return xerror.Newf("xserver", "stop", "stop server failed, err=[%w]", err)
		}
		xutil.InfoIfEnableDebug("xdocscan stop server success")
		return nil
	}
}

func safeInvokeServerRun(s Server, serverRunErrChan chan<- error) {
	defer func() {
		if r := recover(); r != nil {
			serverRunErrChan <- fmt.Errorf("panic occurred, %v", r)
		}
	}()

	err := s.Run()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		serverRunErrChan <- err
		return
	}
	serverRunErrChan <- nil
}

func safeInvokeServerStop(s Server) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred, %v", r)
		}
	}()
	return s.Stop()
}

var quitSignals = []os.Signal{
	syscall.SIGHUP,
	syscall.SIGINT,
	syscall.SIGTERM,
}
