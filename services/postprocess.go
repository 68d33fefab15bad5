package services

import (
	"log"
	"sort"

	"github.com/skywatch/backend/models"
)

// hazardSeverity maps detection labels to the risk tier shown on the
// dashboard. Labels not listed stay at their service-reported severity.
var hazardSeverity = map[string]models.DetectionSeverity{
	"fire":    models.DetectionSeverityHigh,
	"smoke":   models.DetectionSeverityHigh,
	"weapon":  models.DetectionSeverityHigh,
	"person":  models.DetectionSeverityMedium,
	"vehicle": models.DetectionSeverityMedium,
	"truck":   models.DetectionSeverityMedium,
	"car":     models.DetectionSeverityMedium,
	"animal":  models.DetectionSeverityLow,
	"bird":    models.DetectionSeverityLow,
}

// FilterDetections drops detections below the confidence threshold
func FilterDetections(detections []models.Detection, threshold float64) []models.Detection {
	filtered := make([]models.Detection, 0, len(detections))
	for _, d := range detections {
		if d.Confidence >= threshold {
			filtered = append(filtered, d)
		}
	}

	if len(filtered) != len(detections) {
		log.Printf("🔍 Filtered %d detections to %d above threshold %.2f", len(detections), len(filtered), threshold)
	}
	return filtered
}

// ApplySeverity assigns the label-derived severity tier where one is known
func ApplySeverity(detections []models.Detection) []models.Detection {
	for i := range detections {
		if sev, ok := hazardSeverity[detections[i].Label]; ok {
			detections[i].Severity = sev
		}
	}
	return detections
}

// NonMaxSuppression removes overlapping detections of the same class,
// keeping the highest-confidence box of each overlapping group.
func NonMaxSuppression(detections []models.Detection, iouThreshold float64) []models.Detection {
	if len(detections) <= 1 {
		return detections
	}

	byClass := make(map[string][]models.Detection)
	for _, d := range detections {
		byClass[d.Label] = append(byClass[d.Label], d)
	}

	var final []models.Detection
	for _, class := range byClass {
		sort.Slice(class, func(i, j int) bool {
			return class[i].Confidence > class[j].Confidence
		})

		for len(class) > 0 {
			current := class[0]
			final = append(final, current)

			remaining := class[:0]
			for _, d := range class[1:] {
				if iou(current.BoundingBox, d.BoundingBox) < iouThreshold {
					remaining = append(remaining, d)
				}
			}
			class = remaining
		}
	}

	if len(final) != len(detections) {
		log.Printf("🔍 NMS reduced %d detections to %d", len(detections), len(final))
	}
	return final
}

// iou computes intersection-over-union of two boxes
func iou(a, b models.BoundingBox) float64 {
	ax2, ay2 := a.X+a.Width, a.Y+a.Height
	bx2, by2 := b.X+b.Width, b.Y+b.Height

	ix1 := max(a.X, b.X)
	iy1 := max(a.Y, b.Y)
	ix2 := min(ax2, bx2)
	iy2 := min(ay2, by2)

	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}

	intersection := float64((ix2 - ix1) * (iy2 - iy1))
	union := float64(a.Width*a.Height+b.Width*b.Height) - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}
