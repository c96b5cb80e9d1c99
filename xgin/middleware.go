package xgin

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/xiaoshicae/xdocscan/xlog"
	"github.com/xiaoshicae/xdocscan/xtrace"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/semconv/v1.20.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName    = "github.com/xiaoshicae/xdocscan/xgin"
	traceIDHeader = "X-Trace-Id"
	maxStackSize  = 16384
)

// sessionMiddleware 提前放入日志 kv 容器，并把上游透传的扫描会话ID写入日志
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		kvs := make(map[string]any)
		if session := xtrace.SessionFromContext(ctx); session != "" {
			kvs["session"] = session
		}
		c.Request = c.Request.WithContext(xlog.CtxWithKV(ctx, kvs))
		c.Next()
	}
}

func traceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		// 未匹配路由时 FullPath 为空
		if route == "" {
			route = c.Request.URL.Path
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := otel.Tracer(tracerName).Start(ctx, fmt.Sprintf("%s %s", c.Request.Method, route),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(semconv.HTTPRoute(route)),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		// 必须在 c.Next() 之前写 header
		if span.SpanContext().IsValid() {
			c.Header(traceIDHeader, span.SpanContext().TraceID().String())
		}

		c.Next()

		status := c.Writer.Status()
		span.SetStatus(httpconv.ServerStatus(status))
		if status > 0 {
			span.SetAttributes(semconv.HTTPStatusCode(status))
		}
		if len(c.Errors) > 0 {
			span.SetAttributes(attribute.String("gin.errors", c.Errors.String()))
		}
	}
}

func recoverMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				buf := make([]byte, maxStackSize)
				buf = buf[:runtime.Stack(buf, false)]
				xlog.Error(c.Request.Context(), "[xgin] panic recover, err=[%v]", r,
					xlog.KV("panic_stack", string(buf)))
				if c.Writer.Written() {
					c.Abort()
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

func logMiddleware(skipPaths []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if shouldSkipLog(c.Request.URL.Path, skipPaths) {
			c.Next()
			return
		}

		begin := time.Now()
		c.Next()
		elapsed := time.Since(begin)

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		xlog.Info(c.Request.Context(), "[xgin] %s %s request processed", c.Request.Method, route,
			xlog.KVMap(map[string]any{
				"client_ip":       c.ClientIP(),
				"response_status": c.Writer.Status(),
				"response_size":   c.Writer.Size(),
				"process_latency": elapsed.Milliseconds(),
			}))
	}
}

// shouldSkipLog 以 / 结尾按前缀匹配，否则精确匹配
func shouldSkipLog(path string, skipPaths []string) bool {
	for _, skip := range skipPaths {
		if strings.HasSuffix(skip, "/") {
			if strings.HasPrefix(path, skip) {
				return true
			}
		} else if path == skip {
			return true
		}
	}
	return false
}
