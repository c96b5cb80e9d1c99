package xconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xiaoshicae/xdocscan/xutil"

	"github.com/spf13/viper"
)

const (
	configLocationArgKey = "app.config.location"
	configLocationEnvKey = "APP_CONFIG_LOCATION"

	profilesActiveArgKey    = "app.profiles.active"
	profilesActiveEnvKey    = "APP_PROFILES_ACTIVE"
	profilesActiveConfigKey = AppConfigKey + ".Profiles.Active"
)

// 按优先级排列的默认配置文件位置
var configSearchPaths = []string{
	"./application.yml",
	"./application.yaml",
	"./conf/application.yml",
	"./conf/application.yaml",
	"./config/application.yml",
	"./config/application.yaml",
}

// detectConfigLocation 优先级：启动参数 > 环境变量 > 默认路径
func detectConfigLocation() string {
	if loc, _ := xutil.GetConfigFromArgs(configLocationArgKey); loc != "" {
		xutil.InfoIfEnableDebug("xdocscan config location [%s] from arg", loc)
		return loc
	}
	if loc := os.Getenv(configLocationEnvKey); loc != "" {
		xutil.InfoIfEnableDebug("xdocscan config location [%s] from env", loc)
		return loc
	}
	for _, loc := range configSearchPaths {
		if xutil.FileExist(loc) {
			xutil.InfoIfEnableDebug("xdocscan config location [%s] from search path", loc)
			return loc
		}
	}
	return ""
}

// detectProfilesActive 优先级：启动参数 > 环境变量 > 基础配置文件
func detectProfilesActive(base *viper.Viper) string {
	if pa, _ := xutil.GetConfigFromArgs(profilesActiveArgKey); pa != "" {
		return pa
	}
	if pa := os.Getenv(profilesActiveEnvKey); pa != "" {
		return pa
	}
	if base == nil {
		return ""
	}
	return expandEnv(base.GetString(profilesActiveConfigKey))
}

// profileLocation conf/application.yml + dev => conf/application-dev.yml
func profileLocation(configLocation, profile string) (string, error) {
	ext := filepath.Ext(configLocation)
	if ext == "" || ext == "." {
		return "", fmt.Errorf("config file name has no extension, location=[%s]", configLocation)
	}
	return strings.TrimSuffix(configLocation, ext) + "-" + profile + ext, nil
}
