package xgin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xiaoshicae/xdocscan/xserver"
	"github.com/xiaoshicae/xdocscan/xutil"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const defaultWaitStopDuration = 30 * time.Second

// XGin gin 服务构建器，实现 xserver.Server
type XGin struct {
	engine          *gin.Engine
	opts            *options
	routerRegisters []func(*gin.Engine)
	middlewares     []gin.HandlerFunc

	buildOnce sync.Once

	srvMu sync.Mutex
	srv   *http.Server
}

var _ xserver.Server = (*XGin)(nil)

func New(opts ...Option) *XGin {
	setGinMode()
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	return &XGin{engine: engine, opts: o}
}

func (g *XGin) WithRouteRegister(f ...func(*gin.Engine)) *XGin {
	g.routerRegisters = append(g.routerRegisters, f...)
	return g
}

func (g *XGin) WithMiddleware(m ...gin.HandlerFunc) *XGin {
	g.middlewares = append(g.middlewares, m...)
	return g
}

// Build 注册中间件与路由，只生效一次
func (g *XGin) Build() *XGin {
	g.buildOnce.Do(func() {
		g.engine.Use(sessionMiddleware())
		// trace 需要最先，后续中间件与 handler 才能拿到 traceid
		if g.opts.enableTraceMiddleware {
			g.engine.Use(traceMiddleware())
		}
		g.engine.Use(recoverMiddleware())
		if g.opts.enableLogMiddleware {
			g.engine.Use(logMiddleware(g.opts.logSkipPaths))
		}
		g.engine.Use(g.middlewares...)

		g.engine.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		for _, register := range g.routerRegisters {
			register(g.engine)
		}
	})
	return g
}

func (g *XGin) Engine() *gin.Engine {
	return g.Build().engine
}

// Start 快捷启动，阻塞直到收到退出信号
func (g *XGin) Start() error {
	return xserver.Run(g)
}

func (g *XGin) Run() error {
	g.Build()

	c := g.opts.config
	if c == nil {
		c = GetConfig()
	}
	c = configMergeDefault(c)
	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))

	handler := g.engine.Handler()
	if c.UseH2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
		xutil.InfoIfEnableDebug("xdocscan gin server use h2c")
	}

	srv := &http.Server{Addr: addr, Handler: handler}
	g.srvMu.Lock()
	g.srv = srv
	g.srvMu.Unlock()

	xutil.InfoIfEnableDebug("xdocscan gin server listen on: %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *XGin) Stop() error {
	g.srvMu.Lock()
	srv := g.srv
	g.srvMu.Unlock()
	// 信号可能在 Run 之前到达
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultWaitStopDuration)
	defer cancel()
	return srv.Shutdown(ctx)
}

func setGinMode() {
	if strings.TrimSpace(os.Getenv(gin.EnvGinMode)) != "" {
		return
	}
	if xutil.EnableDebug() {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}
