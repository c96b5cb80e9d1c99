package xgin

import "github.com/xiaoshicae/xdocscan/xconfig"

const XGinConfigKey = "XGin"

type Config struct {
	// Host 监听地址
	// optional default "0.0.0.0"
	Host string `mapstructure:"Host"`

	// Port 监听端口
	// optional default 8000
	Port int `mapstructure:"Port"`

	// UseH2C 非 TLS 模式下是否启用 HTTP/2 Cleartext
	// optional default false
	UseH2C bool `mapstructure:"UseH2C"`
}

// GetConfig 读取 XGin 配置，未配置时使用默认值
func GetConfig() *Config {
	c := &Config{}
	_ = xconfig.UnmarshalConfig(XGinConfigKey, c)
	return configMergeDefault(c)
}

func configMergeDefault(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port <= 0 {
		c.Port = 8000
	}
	return c
}
