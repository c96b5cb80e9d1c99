package xanalytics

import (
	"context"
	"net/http"
	"sync"

	"github.com/xiaoshicae/xdocscan/xlog"
	"github.com/xiaoshicae/xdocscan/xutil"

	"github.com/gin-gonic/gin"
)

// Collector 接收 HTTPSink 上报的事件，用于本地联调与回放统计
type Collector struct {
	path    string
	limit   int
	handler func(ctx context.Context, env Envelope)

	mu     sync.Mutex
	counts map[string]int64
	recent []Envelope
}

// NewCollector limit 为保留的最近事件数，handler 可为 nil
func NewCollector(path string, limit int, handler func(ctx context.Context, env Envelope)) *Collector {
	return &Collector{
		path:    xutil.GetOrDefault(path, "/v1/events"),
		limit:   max(limit, 1),
		handler: handler,
		counts:  make(map[string]int64),
	}
}

// Register 注册路由
//
//	POST {path}        上报一批事件
//	GET  {path}/stats  各事件计数与最近事件
func (c *Collector) Register(engine *gin.Engine) {
	engine.POST(c.path, c.ingest)
	engine.GET(c.path+"/stats", c.stats)
}

func (c *Collector) ingest(ctx *gin.Context) {
	var batch Batch
	if err := ctx.ShouldBindJSON(&batch); err != nil {
		xlog.Warn(ctx.Request.Context(), "[xanalytics] invalid batch, err=[%v]", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, env := range batch.Events {
		c.add(env)
		if c.handler != nil {
			c.handler(ctx.Request.Context(), env)
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"accepted": len(batch.Events)})
}

func (c *Collector) add(env Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[env.Name]++
	c.recent = append(c.recent, env)
	if over := len(c.recent) - c.limit; over > 0 {
		c.recent = append([]Envelope(nil), c.recent[over:]...)
	}
}

func (c *Collector) stats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"counts": c.Counts(), "recent": c.Recent()})
}

func (c *Collector) Counts() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

func (c *Collector) Recent() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Envelope(nil), c.recent...)
}
