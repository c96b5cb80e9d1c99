package xstore

import "time"

// ScanSession 一次扫描会话的汇总
type ScanSession struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	App              string    `gorm:"size:64" json:"app"`
	Source           string    `gorm:"size:255" json:"source"`
	FrameCount       int       `json:"frameCount"`
	NoneCount        int       `json:"noneCount"`
	LegacyCount      int       `json:"legacyCount"`
	ModernCount      int       `json:"modernCount"`
	ErrorCount       int       `json:"errorCount"`
	EngineDowngraded bool      `json:"engineDowngraded"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (ScanSession) TableName() string { return "scan_sessions" }

// ScanFrame 单帧的决策结果，(SessionID, Seq) 唯一
type ScanFrame struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID       string    `gorm:"size:36;not null;uniqueIndex:idx_scan_frames_session_seq" json:"sessionId"`
	Seq             int       `gorm:"not null;uniqueIndex:idx_scan_frames_session_seq" json:"seq"`
	FrameID         string    `gorm:"size:128" json:"frameId"`
	OutputType      string    `gorm:"size:16;index" json:"outputType"`
	Reason          string    `gorm:"size:32" json:"reason,omitempty"`
	Classification  string    `gorm:"size:32" json:"classification,omitempty"`
	Confidence      float64   `json:"confidence"`
	HasMotionBlur   bool      `json:"hasMotionBlur"`
	IsBlurry        bool      `json:"isBlurry"`
	BlurVariance    float64   `json:"blurVariance"`
	BarcodePayload  string    `gorm:"size:2048" json:"barcodePayload,omitempty"`
	BarcodeTimedOut bool      `json:"barcodeTimedOut"`
	DocumentType    string    `gorm:"size:64" json:"documentType,omitempty"`
	Error           string    `gorm:"size:512" json:"error,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (ScanFrame) TableName() string { return "scan_frames" }
