package xscan

import (
	"sync"
	"time"

	"github.com/xiaoshicae/xdocscan/xconfig"
	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xutil"

	"github.com/go-playground/validator/v10"
)

const XScanConfigKey = "XScan"

type Config struct {
	// WarmUpDelay 首帧到开始检测之间的预热时长
	// optional default "3s"
	WarmUpDelay string `mapstructure:"WarmUpDelay"`

	Classifier ClassifierConfig `mapstructure:"Classifier"`
	MotionBlur MotionBlurConfig `mapstructure:"MotionBlur"`
	Sharpness  SharpnessConfig  `mapstructure:"Sharpness"`
	Barcode    BarcodeConfig    `mapstructure:"Barcode"`

	// Engine 分析引擎配置
	// optional default nil，不配置即不启用引擎
	Engine *EngineConfig `mapstructure:"Engine"`
}

type ClassifierConfig struct {
	// MinConfidence 低于该置信度的预测被丢弃
	// optional default 0.4
	MinConfidence float64 `mapstructure:"MinConfidence" validate:"gte=0,lte=1"`

	// MinIOU 与上一帧结果重叠不低于该值时，优先保持上一帧的类别
	// optional default 0.5
	MinIOU float64 `mapstructure:"MinIOU" validate:"gte=0,lte=1"`
}

type MotionBlurConfig struct {
	// MinIOU 相邻帧 bounds 重叠不低于该值视为静止
	// optional default 0.95
	MinIOU float64 `mapstructure:"MinIOU" validate:"gte=0,lte=1"`

	// MinDuration 静止时长低于该值判定为运动模糊
	// optional default "500ms"
	MinDuration string `mapstructure:"MinDuration"`
}

type SharpnessConfig struct {
	// Threshold 拉普拉斯方差低于该值判定为模糊，亮度按 [0,1] 计算
	// optional default 0.0028
	Threshold float64 `mapstructure:"Threshold" validate:"gte=0"`

	// CropPadding 裁剪时四周外扩比例
	// optional default 0.08
	CropPadding float64 `mapstructure:"CropPadding" validate:"gte=0,lte=1"`

	// MaxDimension 裁剪区域缩放后的最大边长
	// optional default 512
	MaxDimension int `mapstructure:"MaxDimension" validate:"gte=8"`
}

type BarcodeConfig struct {
	// Symbology 条码制式
	// optional default "pdf417"
	Symbology Symbology `mapstructure:"Symbology" validate:"oneof=pdf417 qr code128 aztec data_matrix"`

	// Timeout 本次会话累计解码失败耗时上限，超过后不再尝试直至 Reset
	// optional default "8s"
	Timeout string `mapstructure:"Timeout"`
}

type EngineConfig struct {
	// LicenseKey 引擎授权
	// required
	LicenseKey string `mapstructure:"LicenseKey" validate:"required"`

	// LicenseFailureTTL 授权失败结果在进程内的缓存时长，期间新会话不再重复校验
	// optional default "30m"
	LicenseFailureTTL string `mapstructure:"LicenseFailureTTL"`

	// Options 透传给引擎的其他参数
	// optional default nil
	Options map[string]string `mapstructure:"Options"`
}

func configMergeDefault(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	c.WarmUpDelay = xutil.GetOrDefault(c.WarmUpDelay, "3s")
	c.Classifier.MinConfidence = xutil.GetOrDefault(c.Classifier.MinConfidence, 0.4)
	c.Classifier.MinIOU = xutil.GetOrDefault(c.Classifier.MinIOU, 0.5)
	c.MotionBlur.MinIOU = xutil.GetOrDefault(c.MotionBlur.MinIOU, 0.95)
	c.MotionBlur.MinDuration = xutil.GetOrDefault(c.MotionBlur.MinDuration, "500ms")
	c.Sharpness.Threshold = xutil.GetOrDefault(c.Sharpness.Threshold, 0.0028)
	c.Sharpness.CropPadding = xutil.GetOrDefault(c.Sharpness.CropPadding, 0.08)
	c.Sharpness.MaxDimension = xutil.GetOrDefault(c.Sharpness.MaxDimension, 512)
	c.Barcode.Symbology = xutil.GetOrDefault(c.Barcode.Symbology, SymbologyPDF417)
	c.Barcode.Timeout = xutil.GetOrDefault(c.Barcode.Timeout, "8s")
	if c.Engine != nil {
		c.Engine.LicenseFailureTTL = xutil.GetOrDefault(c.Engine.LicenseFailureTTL, "30m")
	}
	return c
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// validateConfig 校验取值范围与时长格式
func validateConfig(c *Config) error {
	validateOnce.Do(func() { validate = validator.New() })
	if err := validate.Struct(c); err != nil {
		return xerror.Newf("xscan", "config", "invalid config, err=[%w]", err)
	}

	durations := map[string]string{
		"WarmUpDelay":            c.WarmUpDelay,
		"MotionBlur.MinDuration": c.MotionBlur.MinDuration,
		"Barcode.Timeout":        c.Barcode.Timeout,
	}
	if c.Engine != nil {
		durations["Engine.LicenseFailureTTL"] = c.Engine.LicenseFailureTTL
	}
	for field, raw := range durations {
		if xutil.ToDuration(raw) <= 0 {
			return xerror.Newf("xscan", "config", "invalid duration, field=[%s], value=[%s]", field, raw)
		}
	}
	return nil
}

// LoadConfig 读取 XScan 配置并合并默认值
func LoadConfig() (*Config, error) {
	c := &Config{}
	if err := xconfig.UnmarshalConfig(XScanConfigKey, c); err != nil {
		return nil, xerror.Newf("xscan", "config", "unmarshal config failed, err=[%w]", err)
	}
	c = configMergeDefault(c)
	if err := validateConfig(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) warmUpDelay() time.Duration {
	return xutil.ToDuration(c.WarmUpDelay)
}

func (c *MotionBlurConfig) minDuration() time.Duration {
	return xutil.ToDuration(c.MinDuration)
}

func (c *BarcodeConfig) timeout() time.Duration {
	return xutil.ToDuration(c.Timeout)
}

func (c *EngineConfig) licenseFailureTTL() time.Duration {
	return xutil.ToDuration(c.LicenseFailureTTL)
}
