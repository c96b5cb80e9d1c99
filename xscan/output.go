package xscan

const (
	OutputTypeNone   = "none"
	OutputTypeLegacy = "legacy"
	OutputTypeModern = "modern"
)

// Output 每帧恰好产生一个，具体类型为 *NoneOutput / *LegacyOutput / *ModernOutput 之一
type Output interface {
	OutputType() string
	sealed()
}

type NoneReason string

const (
	NoneReasonWarmingUp  NoneReason = "warming_up"
	NoneReasonNoDocument NoneReason = "no_document"
)

// NoneOutput 门控未开启或未检测到文档
type NoneOutput struct {
	Reason NoneReason `json:"reason"`
}

func (*NoneOutput) OutputType() string { return OutputTypeNone }
func (*NoneOutput) sealed()            {}

// LegacyOutput 仅由本地检测器产生的结果
type LegacyOutput struct {
	Classification Classification `json:"classification"`
	Bounds         Bounds         `json:"bounds"`
	Confidence     float64        `json:"confidence"`

	// Barcode 仅证件背面且解码成功时非 nil
	Barcode *BarcodeOutput `json:"barcode,omitempty"`

	// BarcodeTimedOut 本次会话的条码解码预算已耗尽
	BarcodeTimedOut bool `json:"barcodeTimedOut"`

	MotionBlur       MotionBlurOutput  `json:"motionBlur"`
	DeviceProperties *DeviceProperties `json:"deviceProperties,omitempty"`
	BlurScore        SharpnessOutput   `json:"blurScore"`
}

func (*LegacyOutput) OutputType() string { return OutputTypeLegacy }
func (*LegacyOutput) sealed()            {}

// ModernOutput 本地检测器结果合并分析引擎结果
type ModernOutput struct {
	LegacyOutput
	EngineResult EngineResult `json:"engineResult"`
}

func (*ModernOutput) OutputType() string { return OutputTypeModern }
func (*ModernOutput) sealed()            {}
