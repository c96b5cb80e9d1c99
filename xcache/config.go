package xcache

const XCacheConfigKey = "XCache"

type Config struct {
	// NumCounters 用于统计访问频率的 key 数量，建议为期望条目数的 10 倍
	// optional default 10000
	NumCounters int64 `mapstructure:"NumCounters"`

	// MaxCost 缓存最大成本，每个条目 cost=1 时即最大条目数
	// optional default 1000
	MaxCost int64 `mapstructure:"MaxCost"`

	// BufferItems Get 操作内部缓冲区大小
	// optional default 64
	BufferItems int64 `mapstructure:"BufferItems"`

	// DefaultTTL 默认过期时间，支持 "1d" 写法
	// optional default "30m"
	DefaultTTL string `mapstructure:"DefaultTTL"`
}

func configMergeDefault(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	if c.NumCounters <= 0 {
		c.NumCounters = 10000
	}
	if c.MaxCost <= 0 {
		c.MaxCost = 1000
	}
	if c.BufferItems <= 0 {
		c.BufferItems = 64
	}
	if c.DefaultTTL == "" {
		c.DefaultTTL = "30m"
	}
	return c
}
