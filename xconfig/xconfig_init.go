package xconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xhook"
	"github.com/xiaoshicae/xdocscan/xutil"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const dotEnvFileName = ".env"

// ${VAR} 或 ${VAR:-default}
var envPlaceholderRegex = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func init() {
	xhook.BeforeStart(initXConfig, xhook.Order(1))
}

func initXConfig() error {
	loc := detectConfigLocation()
	if loc == "" {
		xutil.WarnIfEnableDebug("xdocscan config file not found, use default config")
		return nil
	}
	return Load(loc)
}

// Load 从指定文件加载配置，同目录下存在 .env 时先加载到环境变量
func Load(configLocation string) error {
	envFile := filepath.Join(filepath.Dir(configLocation), dotEnvFileName)
	if xutil.FileExist(envFile) {
		if err := godotenv.Load(envFile); err != nil {
			return xerror.Newf("xconfig", "init", "load dotenv failed, file=[%s], err=[%w]", envFile, err)
		}
	}

	vp, err := parseConfig(configLocation)
	if err != nil {
		return xerror.Newf("xconfig", "init", "parse config failed, location=[%s], err=[%w]", configLocation, err)
	}

	if xutil.EnableDebug() {
		fmt.Printf("\n********** xdocscan load config **********\n%s\n\n", xutil.ToJsonStringIndent(vp.AllSettings()))
	}
	setViper(vp)
	return nil
}

func parseConfig(configLocation string) (*viper.Viper, error) {
	vp, err := readConfigFile(configLocation)
	if err != nil {
		return nil, err
	}

	if profile := detectProfilesActive(vp); profile != "" {
		loc, err := profileLocation(configLocation, profile)
		if err != nil {
			return nil, err
		}
		if !xutil.FileExist(loc) {
			return nil, fmt.Errorf("profile config file not found, profile=[%s], location=[%s]", profile, loc)
		}
		overlay, err := readConfigFile(loc)
		if err != nil {
			return nil, fmt.Errorf("read profile config failed, location=[%s], err=[%w]", loc, err)
		}
		if err := vp.MergeConfigMap(overlay.AllSettings()); err != nil {
			return nil, fmt.Errorf("merge profile config failed, err=[%w]", err)
		}
	}

	expandEnvPlaceholders(vp)
	return vp, nil
}

func readConfigFile(loc string) (*viper.Viper, error) {
	vp := viper.New()
	vp.SetConfigFile(loc)
	if err := vp.ReadInConfig(); err != nil {
		return nil, err
	}
	return vp, nil
}

// expandEnvPlaceholders 展开所有字符串配置中的环境变量占位符，保持嵌套结构
func expandEnvPlaceholders(vp *viper.Viper) {
	settings := vp.AllSettings()
	changed := false
	for _, key := range vp.AllKeys() {
		raw, ok := vp.Get(key).(string)
		if !ok || !strings.Contains(raw, "${") {
			continue
		}
		setNested(settings, strings.Split(key, "."), expandEnv(raw))
		changed = true
	}
	if !changed {
		return
	}
	for k, v := range settings {
		vp.Set(k, v)
	}
}

func expandEnv(raw string) string {
	return envPlaceholderRegex.ReplaceAllStringFunc(raw, func(match string) string {
		m := envPlaceholderRegex.FindStringSubmatch(match)
		if v := os.Getenv(m[1]); v != "" {
			return v
		}
		return m[2]
	})
}

func setNested(m map[string]any, path []string, value any) {
	for _, k := range path[:len(path)-1] {
		next, ok := m[k].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[k] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}
