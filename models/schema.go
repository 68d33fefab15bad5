package models

// DetectionSeverity enum
type DetectionSeverity string

const (
	DetectionSeverityLow    DetectionSeverity = "low"
	DetectionSeverityMedium DetectionSeverity = "medium"
	DetectionSeverityHigh   DetectionSeverity = "high"
)

// BoundingBox is a pixel-space box for a single detection
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Detection is a single labeled, localized inference result for one frame.
// Confidence is always a fraction in [0,1]; percentage conversion happens
// only at the API presentation boundary.
type Detection struct {
	ID          string            `json:"id"`
	Label       string            `json:"label"`
	Confidence  float64           `json:"confidence"`
	BoundingBox BoundingBox       `json:"bounding_box"`
	Severity    DetectionSeverity `json:"severity"`
	Timestamp   string            `json:"timestamp,omitempty"`
	FrameNumber int               `json:"frame_number,omitempty"`
}

// Normalize fills the defensive defaults for records produced by the
// inference service: missing label becomes "Unknown", missing severity
// becomes "medium", a confidence reported on the 0-100 scale is converted
// down to a fraction. An absent bounding box is already the zero box.
func (d *Detection) Normalize() {
	if d.Label == "" {
		d.Label = "Unknown"
	}
	if d.Severity == "" {
		d.Severity = DetectionSeverityMedium
	}
	if d.Confidence > 1 {
		d.Confidence = d.Confidence / 100
	}
	if d.Confidence < 0 {
		d.Confidence = 0
	}
}

// Classification is a whole-frame label with no spatial box
type Classification struct {
	ID          string  `json:"id,omitempty"`
	Label       string  `json:"label"`
	Confidence  float64 `json:"confidence"`
	Category    string  `json:"category,omitempty"`
	FrameNumber int     `json:"frame_number,omitempty"`
}

// FrameResult bundles the detections and classifications for one frame
type FrameResult struct {
	FrameNumber     int              `json:"frame_number"`
	Timestamp       float64          `json:"timestamp"`
	Detections      []Detection      `json:"detections"`
	Classifications []Classification `json:"classifications,omitempty"`
}

// Stream record types emitted by the inference service
const (
	StreamTypeMetadata    = "metadata"
	StreamTypeFrameResult = "frame_result"
	StreamTypeComplete    = "complete"
)

// StreamRecord is one newline-delimited JSON record from the streaming
// detection endpoint. The record kind is discriminated by Type; a record
// carrying a non-empty Error field is an error record regardless of Type.
type StreamRecord struct {
	Type  string `json:"type,omitempty"`
	Error string `json:"error,omitempty"`

	// metadata fields
	VideoID    string  `json:"video_id,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	FrameCount int     `json:"frame_count,omitempty"`
	Duration   float64 `json:"duration,omitempty"`

	// frame_result fields
	FrameNumber     int              `json:"frame_number,omitempty"`
	Timestamp       float64          `json:"timestamp,omitempty"`
	Detections      []Detection      `json:"detections,omitempty"`
	Classifications []Classification `json:"classifications,omitempty"`

	// complete fields
	TotalFramesProcessed int     `json:"total_frames_processed,omitempty"`
	ProcessingTime       float64 `json:"processing_time,omitempty"`
}

// FrameResult converts a frame_result record to its FrameResult view
func (r *StreamRecord) FrameResult() FrameResult {
	return FrameResult{
		FrameNumber:     r.FrameNumber,
		Timestamp:       r.Timestamp,
		Detections:      r.Detections,
		Classifications: r.Classifications,
	}
}

// DetectionRequest are the inference parameters for a detection run
type DetectionRequest struct {
	ModelName           string  `json:"model_name,omitempty"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	MaxDetections       int     `json:"max_detections,omitempty"`
}

// DetectionResponse is the batch detection result
type DetectionResponse struct {
	Detections      []Detection      `json:"detections"`
	ModelUsed       string           `json:"model_used"`
	ProcessingTime  float64          `json:"processing_time"`
	VideoID         string           `json:"video_id,omitempty"`
	Classifications []Classification `json:"classifications,omitempty"`
}

// ClassificationRequest are the inference parameters for a whole-video
// classification run
type ClassificationRequest struct {
	ModelName string `json:"model_name,omitempty"`
	TopK      int    `json:"top_k,omitempty"`
}

// ClassificationResponse is the whole-video classification result
type ClassificationResponse struct {
	Classifications []Classification `json:"classifications"`
	ModelUsed       string           `json:"model_used"`
	ProcessingTime  float64          `json:"processing_time"`
	VideoID         string           `json:"video_id,omitempty"`
}

// VideoUploadResponse is returned by the upload endpoint
type VideoUploadResponse struct {
	VideoID  string                 `json:"video_id"`
	Filename string                 `json:"filename"`
	Status   string                 `json:"status"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
