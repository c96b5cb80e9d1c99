package xgorm

import (
	"context"

	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xlog"
	"github.com/xiaoshicae/xdocscan/xtrace"
	"github.com/xiaoshicae/xdocscan/xutil"

	stdMysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

// C 获取全局 gorm client，未配置 XGorm 时返回 nil，推荐使用 CWithCtx()
func C() *gorm.DB {
	clientMu.RLock()
	defer clientMu.RUnlock()
	if defaultClient == nil {
		xlog.Error(context.Background(), "[xgorm] no gorm client found, maybe config not assigned")
	}
	return defaultClient
}

// CWithCtx 保证 ctx 中的 trace 与会话信息能传递到 sql 日志和 span
func CWithCtx(ctx context.Context) *gorm.DB {
	c := C()
	if c == nil {
		return nil
	}
	return c.WithContext(ctx)
}

// NewClient 按配置建立连接并 ping，命令行等不走 hook 的场景直接使用
func NewClient(ctx context.Context, c *Config) (*gorm.DB, error) {
	c = configMergeDefault(c)
	dialector, err := resolveDialector(c)
	if err != nil {
		return nil, xerror.Newf("xgorm", "newClient", "invoke resolveDialector failed, err=[%w]", err)
	}

	gormConfig := &gorm.Config{}
	if c.EnableLog {
		gormConfig.Logger = newGormLogger(c)
	}
	client, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, xerror.Newf("xgorm", "newClient", "invoke gorm.Open failed, err=[%w]", err)
	}

	db, err := client.DB()
	if err != nil {
		return nil, xerror.Newf("xgorm", "newClient", "invoke client.DB failed, err=[%w]", err)
	}
	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	db.SetConnMaxLifetime(xutil.ToDuration(c.MaxLifetime))
	db.SetConnMaxIdleTime(xutil.ToDuration(c.MaxIdleTime))

	err = xutil.Retry(ctx, func() error { return db.PingContext(ctx) }, c.PingAttempts, xutil.ToDuration(c.DialTimeout))
	if err != nil {
		_ = db.Close()
		return nil, xerror.Newf("xgorm", "newClient", "invoke db.PingContext failed, err=[%w]", err)
	}

	if xtrace.Enabled() {
		if err := client.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			_ = db.Close()
			return nil, xerror.Newf("xgorm", "newClient", "use tracing.NewPlugin failed, err=[%w]", err)
		}
	}
	return client, nil
}

// resolveDialector 根据 driver 类型返回对应的 gorm dialector
func resolveDialector(c *Config) (gorm.Dialector, error) {
	if c == nil {
		return nil, xerror.Newf("xgorm", "resolveDialector", "config can't be empty")
	}
	if c.DSN == "" {
		return nil, xerror.Newf("xgorm", "resolveDialector", "dsn can't be empty")
	}

	switch c.GetDriver() {
	case DriverMySQL:
		dsn, err := resolveMySQLDSN(c)
		if err != nil {
			return nil, xerror.Newf("xgorm", "resolveDialector", "resolve mysql dsn failed, err=[%w]", err)
		}
		return mysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(c.DSN), nil
	default:
		return nil, xerror.Newf("xgorm", "resolveDialector", "unsupported driver=[%s], supported: mysql, postgres", c.GetDriver())
	}
}

// resolveMySQLDSN dsn 中未显式指定的超时用配置补齐，并强制 parseTime
func resolveMySQLDSN(c *Config) (string, error) {
	mc, err := stdMysql.ParseDSN(c.DSN)
	if err != nil {
		return "", err
	}
	if mc.ReadTimeout == 0 {
		mc.ReadTimeout = xutil.ToDuration(c.ReadTimeout)
	}
	if mc.WriteTimeout == 0 {
		mc.WriteTimeout = xutil.ToDuration(c.WriteTimeout)
	}
	if mc.Timeout == 0 {
		mc.Timeout = xutil.ToDuration(c.DialTimeout)
	}
	mc.ParseTime = true
	return mc.FormatDSN(), nil
}
