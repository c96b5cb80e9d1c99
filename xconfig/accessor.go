package xconfig

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/xiaoshicae/xdocscan/xutil"

	"github.com/spf13/viper"
)

const (
	defaultAppName    = "xdocscan"
	defaultAppVersion = "v0.0.1"
)

var (
	vip   *viper.Viper
	vipMu sync.RWMutex
)

// UnmarshalConfig 将 key 对应的配置反序列化到 conf，conf 必须为指针
func UnmarshalConfig(key string, conf any) error {
	if key == "" {
		return fmt.Errorf("param key is empty")
	}
	if conf == nil || reflect.TypeOf(conf).Kind() != reflect.Ptr {
		return fmt.Errorf("param conf must be a non-nil ptr")
	}
	return getViper().UnmarshalKey(key, conf)
}

func ContainKey(key string) bool {
	return getViper().IsSet(key)
}

func GetString(key string) string {
	return getViper().GetString(key)
}

func GetBool(key string) bool {
	return getViper().GetBool(key)
}

func GetInt(key string) int {
	return getViper().GetInt(key)
}

func GetFloat64(key string) float64 {
	return getViper().GetFloat64(key)
}

// GetDuration 支持 "1d12h" 这类带天数的写法
func GetDuration(key string) time.Duration {
	return xutil.ToDuration(getViper().Get(key))
}

func GetAppName() string {
	return xutil.GetOrDefault(getViper().GetString(AppConfigKey+".Name"), defaultAppName)
}

func GetAppVersion() string {
	return xutil.GetOrDefault(getViper().GetString(AppConfigKey+".Version"), defaultAppVersion)
}

// GetApp 获取合并默认值后的 App 配置
func GetApp() *App {
	c := &App{}
	if err := UnmarshalConfig(AppConfigKey, c); err != nil {
		xutil.WarnIfEnableDebug("xdocscan unmarshal App config failed, use default, err=[%v]", err)
	}
	return appConfigMergeDefault(c)
}

func getViper() *viper.Viper {
	vipMu.RLock()
	defer vipMu.RUnlock()
	if vip == nil {
		return viper.New()
	}
	return vip
}

func setViper(vp *viper.Viper) {
	vipMu.Lock()
	vip = vp
	vipMu.Unlock()
}
