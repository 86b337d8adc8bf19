package entity

import "time"

// Location is client-supplied coordinates, optionally enriched with a
// reverse-geocoded address. Never persisted beyond the request.
type Location struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Address   string   `json:"address,omitempty"`
}

// ImageArtifact is a transient image owned by a single request: either raw
// bytes (decoded upload) or a file on disk (annotated render, generated map).
// ContentID addresses the image when it is embedded inline in a message.
type ImageArtifact struct {
	Path      string
	Bytes     []byte
	ContentID string
}

type ReportSummary struct {
	TotalDetections int        `json:"total_detections"`
	HighestSeverity Severity   `json:"highest_severity"`
	WorstDetection  *Detection `json:"worst_detection,omitempty"`
	MaxConfidence   float64    `json:"max_confidence"`
	ImageCount      int        `json:"image_count"`
}

// Report is the rendering-ready document handed to the notification
// dispatcher. Detections holds one slice per image, in upload order.
type Report struct {
	ReporterName  string
	ReporterEmail string
	GeneratedAt   time.Time
	Images        []ImageArtifact
	Detections    [][]Detection
	Location      *Location
	MapImage      *ImageArtifact
	Summary       ReportSummary
}
