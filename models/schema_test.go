package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	// Mimic an inference record with only a confidence set
	var d Detection
	require.NoError(t, json.Unmarshal([]byte(`{"confidence":0.9}`), &d))
	d.Normalize()

	assert.Equal(t, "Unknown", d.Label)
	assert.Equal(t, DetectionSeverityMedium, d.Severity)
	assert.Equal(t, BoundingBox{}, d.BoundingBox)
	assert.Equal(t, 0.9, d.Confidence)
}

func TestNormalizePercentConfidence(t *testing.T) {
	d := Detection{Label: "person", Confidence: 92}
	d.Normalize()
	assert.InDelta(t, 0.92, d.Confidence, 0.001)

	neg := Detection{Label: "person", Confidence: -0.3}
	neg.Normalize()
	assert.Equal(t, 0.0, neg.Confidence)
}

func TestNormalizeKeepsExplicitFields(t *testing.T) {
	d := Detection{
		Label:       "fire",
		Severity:    DetectionSeverityHigh,
		Confidence:  0.71,
		BoundingBox: BoundingBox{X: 10, Y: 20, Width: 30, Height: 40},
	}
	d.Normalize()

	assert.Equal(t, "fire", d.Label)
	assert.Equal(t, DetectionSeverityHigh, d.Severity)
	assert.Equal(t, 0.71, d.Confidence)
	assert.Equal(t, 30, d.BoundingBox.Width)
}

func TestStreamRecordFrameResultView(t *testing.T) {
	rec := StreamRecord{
		Type:        StreamTypeFrameResult,
		FrameNumber: 42,
		Timestamp:   1.4,
		Detections:  []Detection{{Label: "vehicle", Confidence: 0.8}},
	}

	fr := rec.FrameResult()
	assert.Equal(t, 42, fr.FrameNumber)
	assert.Equal(t, 1.4, fr.Timestamp)
	require.Len(t, fr.Detections, 1)
	assert.Equal(t, "vehicle", fr.Detections[0].Label)
}
