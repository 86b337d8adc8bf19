package detectionService

import (
	"PotholeGolang/internal/entity"
	"time"
)

// ComposeReport folds per-image detections into a report ready for rendering
// and dispatch. It is pure: no IO, no collaborator calls.
func ComposeReport(
	reporterName, reporterEmail string,
	images []entity.ImageArtifact,
	perImage [][]entity.Detection,
	loc *entity.Location,
	generatedAt time.Time,
) *entity.Report {
	return &entity.Report{
		ReporterName:  reporterName,
		ReporterEmail: reporterEmail,
		GeneratedAt:   generatedAt,
		Images:        images,
		Detections:    perImage,
		Location:      loc,
		Summary:       summarize(perImage, len(images)),
	}
}

// summarize computes the report headline numbers. The worst detection is the
// first one encountered at the maximum severity rank, so reordering images
// never flips which detection a report highlights within the same severity.
func summarize(perImage [][]entity.Detection, imageCount int) entity.ReportSummary {
	summary := entity.ReportSummary{
		HighestSeverity: entity.SeverityLow,
		ImageCount:      imageCount,
	}

	for _, detections := range perImage {
		for i := range detections {
			d := &detections[i]
			summary.TotalDetections++
			if d.Confidence > summary.MaxConfidence {
				summary.MaxConfidence = d.Confidence
			}
			if summary.WorstDetection == nil || d.Severity.Rank() > summary.HighestSeverity.Rank() {
				summary.HighestSeverity = d.Severity
				summary.WorstDetection = d
			}
		}
	}

	return summary
}
