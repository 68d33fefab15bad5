package services

import (
	"testing"

	"github.com/skywatch/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func det(id, label string, conf float64, box models.BoundingBox) models.Detection {
	return models.Detection{ID: id, Label: label, Confidence: conf, BoundingBox: box, Severity: models.DetectionSeverityMedium}
}

func TestFilterDetections(t *testing.T) {
	in := []models.Detection{
		det("a", "person", 0.9, models.BoundingBox{}),
		det("b", "person", 0.4, models.BoundingBox{}),
		det("c", "car", 0.5, models.BoundingBox{}),
	}

	out := FilterDetections(in, 0.5)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[1].ID)
}

func TestNonMaxSuppressionKeepsHighestConfidence(t *testing.T) {
	box := models.BoundingBox{X: 10, Y: 10, Width: 100, Height: 100}
	almostSame := models.BoundingBox{X: 15, Y: 12, Width: 100, Height: 100}
	elsewhere := models.BoundingBox{X: 500, Y: 500, Width: 50, Height: 50}

	in := []models.Detection{
		det("low", "person", 0.6, almostSame),
		det("high", "person", 0.95, box),
		det("far", "person", 0.7, elsewhere),
	}

	out := NonMaxSuppression(in, 0.5)
	require.Len(t, out, 2)

	ids := []string{out[0].ID, out[1].ID}
	assert.Contains(t, ids, "high")
	assert.Contains(t, ids, "far")
	assert.NotContains(t, ids, "low")
}

func TestNonMaxSuppressionIsPerClass(t *testing.T) {
	box := models.BoundingBox{X: 10, Y: 10, Width: 100, Height: 100}

	// Same box, different labels: both survive
	in := []models.Detection{
		det("p", "person", 0.9, box),
		det("v", "vehicle", 0.8, box),
	}

	out := NonMaxSuppression(in, 0.5)
	assert.Len(t, out, 2)
}

func TestApplySeverity(t *testing.T) {
	in := []models.Detection{
		det("f", "fire", 0.9, models.BoundingBox{}),
		det("b", "bird", 0.9, models.BoundingBox{}),
		det("u", "submarine", 0.9, models.BoundingBox{}),
	}

	out := ApplySeverity(in)
	assert.Equal(t, models.DetectionSeverityHigh, out[0].Severity)
	assert.Equal(t, models.DetectionSeverityLow, out[1].Severity)
	// Unmapped labels keep the service-reported severity
	assert.Equal(t, models.DetectionSeverityMedium, out[2].Severity)
}

func TestIoU(t *testing.T) {
	a := models.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}
	b := models.BoundingBox{X: 5, Y: 0, Width: 10, Height: 10}
	c := models.BoundingBox{X: 100, Y: 100, Width: 10, Height: 10}

	assert.InDelta(t, 50.0/150.0, iou(a, b), 0.001)
	assert.Equal(t, 0.0, iou(a, c))
	assert.Equal(t, 1.0, iou(a, a))
}
