package xtrace

import "github.com/xiaoshicae/xdocscan/xutil"

const (
	XTraceConfigKey = "XTrace"
)

type Config struct {
	// Enable Trace是否开启，只有明确配置 false 才关闭
	// optional default true
	Enable *bool `mapstructure:"Enable"`

	// Console span 是否以 json 打印到控制台
	// optional default false
	Console bool `mapstructure:"Console"`

	// SessionHeader 出站请求中携带扫描会话ID的 Header
	// optional default "X-Scan-Session"
	SessionHeader string `mapstructure:"SessionHeader"`
}

func configMergeDefault(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	if c.Enable == nil {
		c.Enable = xutil.ToPtr(true)
	}
	if c.SessionHeader == "" {
		c.SessionHeader = defaultSessionHeader
	}
	return c
}
