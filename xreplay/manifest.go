package xreplay

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xscan"
	"github.com/xiaoshicae/xdocscan/xutil"

	"github.com/go-playground/validator/v10"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ManifestFile 会话目录下的清单文件名
const ManifestFile = "session.json"

const defaultFPS = 10

// Manifest 录制会话的清单：帧文件及每帧的模型、条码、引擎录制结果
type Manifest struct {
	SessionID string `json:"sessionId"`

	// FPS 未指定 offsetMs 的帧按该帧率推算时间戳
	FPS float64 `json:"fps" validate:"gte=0,lte=240"`

	// StartTime 首帧时间，缺省为固定时间，保证重放结果可复现
	StartTime time.Time `json:"startTime"`

	DeviceProperties *xscan.DeviceProperties `json:"deviceProperties"`

	// Barcode 是否挂载条码解码器
	Barcode bool `json:"barcode"`

	// Engine 不为 nil 时挂载分析引擎
	Engine *EngineFixture `json:"engine"`

	Frames []FrameFixture `json:"frames" validate:"required,min=1,unique=ID,dive"`
}

// EngineFixture 引擎构造阶段的录制结果
type EngineFixture struct {
	LicenseKey   string `json:"licenseKey"`
	LicenseError string `json:"licenseError"`
	InitError    string `json:"initError"`
}

// FrameFixture 一帧的录制结果
type FrameFixture struct {
	ID   string `json:"id" validate:"required"`
	File string `json:"file" validate:"required"`

	// OffsetMS 相对 StartTime 的毫秒数，nil 时按 FPS 推算
	OffsetMS *int64 `json:"offsetMs" validate:"omitempty,gte=0"`

	// Reset 处理本帧前开始新的扫描会话
	Reset bool `json:"reset"`

	Predictions    []xscan.Prediction `json:"predictions"`
	InferenceError string             `json:"inferenceError"`
	InferMS        int64              `json:"inferMs" validate:"gte=0"`

	Barcode     *xscan.BarcodeOutput `json:"barcode"`
	DecodeError string               `json:"decodeError"`
	DecodeMS    int64                `json:"decodeMs" validate:"gte=0"`

	EngineResult *xscan.EngineResult   `json:"engineResult"`
	EngineError  xscan.EngineErrorKind `json:"engineError" validate:"omitempty,oneof=runner invalid_input timeout unknown"`
	EngineMS     int64                 `json:"engineMs" validate:"gte=0"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() { validate = validator.New(validator.WithRequiredStructEnabled()) })
	return validate
}

// Session 已加载的会话目录
type Session struct {
	Dir      string
	Manifest *Manifest

	fixtures map[string]*FrameFixture
}

// LoadSession 读取并校验目录下的 session.json，帧图片在 Frame 时才解码
func LoadSession(dir string) (*Session, error) {
	if !xutil.DirExist(dir) {
		return nil, xerror.Newf("xreplay", "load", "session dir not exists, dir=[%s]", dir)
	}
	m := &Manifest{}
	if err := xutil.ReadJsonFile(filepath.Join(dir, ManifestFile), m); err != nil {
		return nil, xerror.Newf("xreplay", "load", "read manifest failed, dir=[%s], err=[%w]", dir, err)
	}
	if err := getValidator().Struct(m); err != nil {
		return nil, xerror.Newf("xreplay", "load", "invalid manifest, dir=[%s], err=[%w]", dir, err)
	}
	if m.FPS == 0 {
		m.FPS = defaultFPS
	}
	if m.StartTime.IsZero() {
		m.StartTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	s := &Session{Dir: dir, Manifest: m, fixtures: make(map[string]*FrameFixture, len(m.Frames))}
	for i := range m.Frames {
		f := &m.Frames[i]
		if !xutil.FileExist(s.path(f)) {
			return nil, xerror.Newf("xreplay", "load", "frame file not exists, frame=[%s], file=[%s]", f.ID, f.File)
		}
		s.fixtures[f.ID] = f
	}
	return s, nil
}

func (s *Session) Len() int {
	return len(s.Manifest.Frames)
}

// Timestamp 第 i 帧的时间戳
func (s *Session) Timestamp(i int) time.Time {
	f := &s.Manifest.Frames[i]
	if f.OffsetMS != nil {
		return s.Manifest.StartTime.Add(time.Duration(*f.OffsetMS) * time.Millisecond)
	}
	return s.Manifest.StartTime.Add(time.Duration(float64(i) / s.Manifest.FPS * float64(time.Second)))
}

// Frame 解码第 i 帧
func (s *Session) Frame(i int) (xscan.Frame, error) {
	f := &s.Manifest.Frames[i]
	file, err := os.Open(s.path(f))
	if err != nil {
		return xscan.Frame{}, xerror.Newf("xreplay", "frame", "open failed, frame=[%s], err=[%w]", f.ID, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return xscan.Frame{}, xerror.Newf("xreplay", "frame", "decode failed, frame=[%s], err=[%w]", f.ID, err)
	}
	return xscan.Frame{ID: f.ID, Image: img, Timestamp: s.Timestamp(i)}, nil
}

func (s *Session) fixture(frameID string) *FrameFixture {
	return s.fixtures[frameID]
}

func (s *Session) path(f *FrameFixture) string {
	if filepath.IsAbs(f.File) {
		return f.File
	}
	return filepath.Join(s.Dir, f.File)
}
