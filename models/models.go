package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// AlertSeverity enum
type AlertSeverity string

const (
	AlertSeverityCritical AlertSeverity = "critical"
	AlertSeverityHigh     AlertSeverity = "high"
	AlertSeverityMedium   AlertSeverity = "medium"
	AlertSeverityLow      AlertSeverity = "low"
)

// AlertStatus enum
type AlertStatus string

const (
	AlertStatusNew          AlertStatus = "new"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// VideoStatus enum
type VideoStatus string

const (
	VideoStatusUploaded   VideoStatus = "uploaded"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusProcessed  VideoStatus = "processed"
	VideoStatusFailed     VideoStatus = "failed"
)

// JSONB type for GORM - can handle both objects and arrays
type JSONB struct {
	Data interface{} `json:"-"`
}

// NewJSONB creates a new JSONB from any value
func NewJSONB(v interface{}) JSONB {
	return JSONB{Data: v}
}

// UnmarshalJSON implements json.Unmarshaler
func (j *JSONB) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &j.Data)
}

// MarshalJSON implements json.Marshaler
func (j JSONB) MarshalJSON() ([]byte, error) {
	if j.Data == nil {
		return []byte("null"), nil
	}
	return json.Marshal(j.Data)
}

func (j JSONB) Value() (driver.Value, error) {
	if j.Data == nil {
		return nil, nil
	}
	return json.Marshal(j.Data)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		j.Data = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, &j.Data)
}

// VideoMetadata model - one row per uploaded video
type VideoMetadata struct {
	ID               int64       `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	ExternalID       string      `gorm:"column:external_id;uniqueIndex" json:"externalId"`
	Filename         string      `gorm:"column:filename" json:"filename"`
	OriginalFilename string      `gorm:"column:original_filename" json:"originalFilename"`
	FilePath         string      `gorm:"column:file_path" json:"filePath"`
	FileSize         int64       `gorm:"column:file_size" json:"fileSize"`
	Duration         float64     `gorm:"column:duration" json:"duration"`
	FPS              float64     `gorm:"column:fps" json:"fps"`
	Width            int         `gorm:"column:width" json:"width"`
	Height           int         `gorm:"column:height" json:"height"`
	Codec            string      `gorm:"column:codec" json:"codec,omitempty"`
	Status           VideoStatus `gorm:"column:status;default:uploaded;index" json:"status"`

	ProcessingStartedAt   *time.Time `gorm:"column:processing_started_at" json:"processingStartedAt,omitempty"`
	ProcessingCompletedAt *time.Time `gorm:"column:processing_completed_at" json:"processingCompletedAt,omitempty"`
	ProcessingError       *string    `gorm:"column:processing_error" json:"processingError,omitempty"`
	TotalFramesAnalyzed   int        `gorm:"column:total_frames_analyzed" json:"totalFramesAnalyzed"`

	UploadedAt time.Time `gorm:"column:uploaded_at;default:CURRENT_TIMESTAMP" json:"uploadedAt"`
	CreatedAt  time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (VideoMetadata) TableName() string {
	return "video_metadata"
}

// Incident model - a persisted alert shown on the dashboard.
// Confidence is stored as a fraction in [0,1]; the API layer derives the
// percentage the dashboard displays.
type Incident struct {
	ID           int64         `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	ExternalID   string        `gorm:"column:external_id;uniqueIndex" json:"externalId"`
	Title        string        `gorm:"column:title" json:"title"`
	Description  string        `gorm:"column:description" json:"description"`
	IncidentType string        `gorm:"column:incident_type;index" json:"incidentType"`
	Severity     AlertSeverity `gorm:"column:severity;index" json:"severity"`
	Confidence   float64       `gorm:"column:confidence" json:"confidence"`
	Location     string        `gorm:"column:location" json:"location"`
	Latitude     *float64      `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude    *float64      `gorm:"column:longitude" json:"longitude,omitempty"`
	Status       AlertStatus   `gorm:"column:status;default:new;index" json:"status"`

	// Detection provenance
	ModelUsed   *string `gorm:"column:model_used" json:"modelUsed,omitempty"`
	VideoID     *string `gorm:"column:video_id" json:"videoId,omitempty"`
	FrameNumber *int    `gorm:"column:frame_number" json:"frameNumber,omitempty"`
	BoxX        *int    `gorm:"column:bounding_box_x" json:"-"`
	BoxY        *int    `gorm:"column:bounding_box_y" json:"-"`
	BoxWidth    *int    `gorm:"column:bounding_box_width" json:"-"`
	BoxHeight   *int    `gorm:"column:bounding_box_height" json:"-"`

	IsFalsePositive     bool `gorm:"column:is_false_positive;default:false" json:"isFalsePositive"`
	RequiresHumanReview bool `gorm:"column:requires_human_review;default:false" json:"requiresHumanReview"`

	CreatedAt  time.Time  `gorm:"column:created_at;default:CURRENT_TIMESTAMP;index" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	ResolvedAt *time.Time `gorm:"column:resolved_at" json:"resolvedAt,omitempty"`
}

func (Incident) TableName() string {
	return "incidents"
}

// DetectionLog model - detection history rows from batch runs
type DetectionLog struct {
	ID         string            `gorm:"primaryKey;column:id" json:"id"`
	VideoID    string            `gorm:"column:video_id;index" json:"videoId"`
	Label      string            `gorm:"column:label;index" json:"label"`
	Confidence float64           `gorm:"column:confidence" json:"confidence"`
	Severity   DetectionSeverity `gorm:"column:severity" json:"severity"`
	Location   string            `gorm:"column:location" json:"location"`
	Status     string            `gorm:"column:status;default:active" json:"status"`
	Timestamp  time.Time         `gorm:"column:timestamp;default:CURRENT_TIMESTAMP;index" json:"timestamp"`
}

func (DetectionLog) TableName() string {
	return "detection_logs"
}

// User model for dashboard login
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Username     string    `gorm:"column:username;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	Role         string    `gorm:"column:role;default:operator" json:"role"`
	CreatedAt    time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}
