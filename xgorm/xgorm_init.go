package xgorm

import (
	"context"
	"sync"

	"github.com/xiaoshicae/xdocscan/xconfig"
	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xhook"
	"github.com/xiaoshicae/xdocscan/xutil"

	"gorm.io/gorm"
)

var (
	defaultClient *gorm.DB
	clientMu      sync.RWMutex
)

func init() {
	xhook.BeforeStart(initXGorm, xhook.Order(7))
	xhook.BeforeStop(closeXGorm, xhook.Order(900))
}

func initXGorm() error {
	if !xconfig.ContainKey(XGormConfigKey) {
		xutil.WarnIfEnableDebug("xdocscan initXGorm skipped, config key [%s] not exists", XGormConfigKey)
		return nil
	}

	c, err := getConfig()
	if err != nil {
		return xerror.Newf("xgorm", "init", "getConfig failed, err=[%w]", err)
	}
	xutil.InfoIfEnableDebug("xdocscan initXGorm got config: driver=[%s], maxOpenConns=[%d]", c.Driver, c.MaxOpenConns)

	client, err := NewClient(context.Background(), c)
	if err != nil {
		return xerror.Newf("xgorm", "init", "newClient failed, err=[%w]", err)
	}
	setDefault(client)
	return nil
}

func closeXGorm() error {
	clientMu.Lock()
	defer clientMu.Unlock()
	if defaultClient == nil {
		return nil
	}
	db, err := defaultClient.DB()
	defaultClient = nil
	if err != nil {
		return xerror.Newf("xgorm", "close", "get underlying db failed, err=[%w]", err)
	}
	if err := db.Close(); err != nil {
		return xerror.Newf("xgorm", "close", "close db failed, err=[%w]", err)
	}
	return nil
}

func setDefault(client *gorm.DB) {
	clientMu.Lock()
	defer clientMu.Unlock()
	defaultClient = client
}

func getConfig() (*Config, error) {
	c := &Config{}
	if err := xconfig.UnmarshalConfig(XGormConfigKey, c); err != nil {
		return nil, err
	}
	c = configMergeDefault(c)
	if c.DSN == "" {
		return nil, xerror.Newf("xgorm", "getConfig", "config XGorm.DSN can not be empty")
	}
	return c, nil
}
