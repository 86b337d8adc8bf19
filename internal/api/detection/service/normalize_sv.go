package detectionService

import (
	"PotholeGolang/internal/entity"
	"fmt"
	"math"
)

// NormalizeDetections converts raw model output into client-facing detections:
// confidences rounded to three decimals, geometry to two, and a severity bucket
// derived from the bounding-box diagonal relative to the image diagonal.
func NormalizeDetections(raw []entity.RawDetection, imageWidth, imageHeight int) ([]entity.Detection, error) {
	if imageWidth <= 0 || imageHeight <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", imageWidth, imageHeight)
	}

	imageDiagonal := math.Hypot(float64(imageWidth), float64(imageHeight))

	detections := make([]entity.Detection, 0, len(raw))
	for _, r := range raw {
		boxWidth := r.X2 - r.X1
		boxHeight := r.Y2 - r.Y1
		relativeSize := math.Hypot(boxWidth, boxHeight) / imageDiagonal

		detections = append(detections, entity.Detection{
			Class:      r.Class,
			Confidence: round3(r.Confidence),
			Severity:   classifySeverity(relativeSize),
			BBox: entity.BoundingBox{
				X1:     round2(r.X1),
				Y1:     round2(r.Y1),
				X2:     round2(r.X2),
				Y2:     round2(r.Y2),
				Width:  round2(boxWidth),
				Height: round2(boxHeight),
			},
			RelativeSize: round3(relativeSize),
		})
	}

	return detections, nil
}

func classifySeverity(relativeSize float64) entity.Severity {
	switch {
	case relativeSize < 0.20:
		return entity.SeverityLow
	case relativeSize < 0.50:
		return entity.SeverityMedium
	default:
		return entity.SeverityHigh
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
