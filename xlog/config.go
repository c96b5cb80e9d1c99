package xlog

import "github.com/xiaoshicae/xdocscan/xutil"

const XLogConfigKey = "XLog"

type Config struct {
	// Level 日志级别 debug/info/warn/error
	// optional default "info"
	Level string `mapstructure:"Level"`

	// Name 文件名，不含 .log 后缀
	// optional default "xdocscan"
	Name string `mapstructure:"Name"`

	// Path 日志文件夹路径
	// optional default "./log"
	Path string `mapstructure:"Path"`

	// Console 是否同时在控制台打印
	// optional default false
	Console bool `mapstructure:"Console"`

	// ConsoleFormatIsRaw 控制台是否打印原始json，为false时打印 level+time+file+traceid+内容
	// optional default false
	ConsoleFormatIsRaw bool `mapstructure:"ConsoleFormatIsRaw"`

	// MaxAge 切割后的文件保留时长，支持 d 单位
	// optional default "7d"
	MaxAge string `mapstructure:"MaxAge"`

	// RotateTime 日志切割时长
	// optional default "1d"
	RotateTime string `mapstructure:"RotateTime"`

	// BufferSize 文件异步写入队列长度，队列满时丢弃日志而不阻塞帧处理
	// optional default 4096
	BufferSize int `mapstructure:"BufferSize"`

	// Timezone 日志时间的时区
	// optional default "Local"
	Timezone string `mapstructure:"Timezone"`
}

func configMergeDefault(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	c.Level = xutil.GetOrDefault(c.Level, "info")
	c.Name = xutil.GetOrDefault(c.Name, "xdocscan")
	c.Path = xutil.GetOrDefault(c.Path, "./log")
	c.MaxAge = xutil.GetOrDefault(c.MaxAge, "7d")
	c.RotateTime = xutil.GetOrDefault(c.RotateTime, "1d")
	c.Timezone = xutil.GetOrDefault(c.Timezone, "Local")
	if c.BufferSize <= 0 {
		c.BufferSize = 4096
	}
	return c
}
