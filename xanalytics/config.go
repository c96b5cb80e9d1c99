package xanalytics

import "github.com/xiaoshicae/xdocscan/xutil"

const XAnalyticsConfigKey = "XAnalytics"

type Config struct {
	// Endpoint 事件上报服务地址，如 "http://127.0.0.1:8000"
	// required
	Endpoint string `mapstructure:"Endpoint"`

	// Path 上报路径
	// optional default "/v1/events"
	Path string `mapstructure:"Path"`

	// BatchSize 单次上报的最大事件数
	// optional default 32
	BatchSize int `mapstructure:"BatchSize"`

	// QueueSize 待上报队列长度，队列满时丢弃新事件
	// optional default 1024
	QueueSize int `mapstructure:"QueueSize"`

	// FlushInterval 未攒满 BatchSize 时的最长等待时间
	// optional default "1s"
	FlushInterval string `mapstructure:"FlushInterval"`

	// Console 是否同时输出到日志
	// optional default false
	Console bool `mapstructure:"Console"`
}

func configMergeDefault(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	c.Path = xutil.GetOrDefault(c.Path, "/v1/events")
	if c.BatchSize <= 0 {
		c.BatchSize = 32
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	c.FlushInterval = xutil.GetOrDefault(c.FlushInterval, "1s")
	return c
}
