package xhttp

const XHttpConfigKey = "XHttp"

type Config struct {
	// Timeout 单次请求超时
	// optional default "5s"
	Timeout string `mapstructure:"Timeout"`

	// DialTimeout 建立连接超时
	// optional default "3s"
	DialTimeout string `mapstructure:"DialTimeout"`

	// MaxIdleConnsPerHost 每个 host 最大空闲连接数
	// optional default 4
	MaxIdleConnsPerHost int `mapstructure:"MaxIdleConnsPerHost"`

	// IdleConnTimeout 空闲连接超时
	// optional default "90s"
	IdleConnTimeout string `mapstructure:"IdleConnTimeout"`

	// RetryCount 失败重试次数，只对网络错误和 5xx 生效
	// optional default 0
	RetryCount int `mapstructure:"RetryCount"`

	// RetryWaitTime 重试初始等待时间
	// optional default "200ms"
	RetryWaitTime string `mapstructure:"RetryWaitTime"`

	// RetryMaxWaitTime 重试最大等待时间
	// optional default "2s"
	RetryMaxWaitTime string `mapstructure:"RetryMaxWaitTime"`
}

func configMergeDefault(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	if c.Timeout == "" {
		c.Timeout = "5s"
	}
	if c.DialTimeout == "" {
		c.DialTimeout = "3s"
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = 4
	}
	if c.IdleConnTimeout == "" {
		c.IdleConnTimeout = "90s"
	}
	if c.RetryWaitTime == "" {
		c.RetryWaitTime = "200ms"
	}
	if c.RetryMaxWaitTime == "" {
		c.RetryMaxWaitTime = "2s"
	}
	return c
}
