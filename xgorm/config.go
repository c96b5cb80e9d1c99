package xgorm

import "github.com/xiaoshicae/xdocscan/xutil"

const XGormConfigKey = "XGorm"

// Driver 数据库类型
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config 扫描结果落库使用的连接配置
type Config struct {
	// Driver postgres | mysql
	// optional default "postgres"
	Driver string `mapstructure:"Driver"`

	// DSN 连接串，postgres 示例 "host=127.0.0.1 user=scan dbname=scan sslmode=disable"
	// required
	DSN string `mapstructure:"DSN"`

	// 以下三个超时只作用于 mysql，postgres 在 dsn 里写 connect_timeout
	// DialTimeout 同时作为启动 ping 的重试间隔
	// optional default "500ms"
	DialTimeout string `mapstructure:"DialTimeout"`
	// optional default "3s"
	ReadTimeout string `mapstructure:"ReadTimeout"`
	// optional default "5s"
	WriteTimeout string `mapstructure:"WriteTimeout"`

	// MaxOpenConns 连接池上限，回放落库为批量写入，默认值足够
	// optional default 10
	MaxOpenConns int `mapstructure:"MaxOpenConns"`

	// optional default 与 MaxOpenConns 相同
	MaxIdleConns int `mapstructure:"MaxIdleConns"`

	// optional default "5m"
	MaxLifetime string `mapstructure:"MaxLifetime"`

	// optional default 与 MaxLifetime 相同
	MaxIdleTime string `mapstructure:"MaxIdleTime"`

	// PingAttempts 启动检查连通性的次数，全部失败则初始化失败
	// optional default 3
	PingAttempts int `mapstructure:"PingAttempts"`

	// SlowThreshold 超过该耗时的 sql 以 warn 级别记录
	// optional default "1s"
	SlowThreshold string `mapstructure:"SlowThreshold"`

	// optional default false
	IgnoreRecordNotFoundErrorLog bool `mapstructure:"IgnoreRecordNotFoundErrorLog"`

	// EnableLog 关闭时 gorm 不输出任何日志
	// optional default false
	EnableLog bool `mapstructure:"EnableLog"`
}

func configMergeDefault(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	c.Driver = xutil.GetOrDefault(c.Driver, string(DriverPostgres))
	c.DialTimeout = xutil.GetOrDefault(c.DialTimeout, "500ms")
	c.ReadTimeout = xutil.GetOrDefault(c.ReadTimeout, "3s")
	c.WriteTimeout = xutil.GetOrDefault(c.WriteTimeout, "5s")
	c.MaxLifetime = xutil.GetOrDefault(c.MaxLifetime, "5m")
	c.MaxIdleTime = xutil.GetOrDefault(c.MaxIdleTime, c.MaxLifetime)
	c.SlowThreshold = xutil.GetOrDefault(c.SlowThreshold, "1s")

	// 负数视为未配置
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.PingAttempts <= 0 {
		c.PingAttempts = 3
	}
	return c
}

// GetDriver 未配置时为 postgres
func (c *Config) GetDriver() Driver {
	return Driver(xutil.GetOrDefault(c.Driver, string(DriverPostgres)))
}
