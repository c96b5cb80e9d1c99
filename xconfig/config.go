package xconfig

const (
	AppConfigKey = "App"
)

// App 应用基础信息，xlog/xtrace 等模块会引用
type App struct {
	// Name 应用名
	// optional default "xdocscan"
	Name string `mapstructure:"Name"`

	// Version 应用版本号
	// optional default "v0.0.1"
	Version string `mapstructure:"Version"`

	// Profiles 环境相关配置
	// optional default nil
	Profiles *Profiles `mapstructure:"Profiles"`
}

type Profiles struct {
	// Active 指定启用的环境，会叠加加载 application-<Active>.yml
	// required
	Active string `mapstructure:"Active"`
}

func appConfigMergeDefault(c *App) *App {
	if c == nil {
		c = &App{}
	}
	if c.Name == "" {
		c.Name = defaultAppName
	}
	if c.Version == "" {
		c.Version = defaultAppVersion
	}
	return c
}
