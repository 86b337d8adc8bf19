package entity

// Severity is the coarse risk tier of a single detection, derived from the
// detection's size relative to the image diagonal.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Rank orders severities for summary folding: High > Medium > Low.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// RawDetection is one bounding box as returned by the inference service,
// before normalization. Pixel coordinates, confidence in [0,1].
type RawDetection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
}

type BoundingBox struct {
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is a normalized, severity-annotated detection record.
// RelativeSize is the box diagonal over the image diagonal, always in [0,1].
type Detection struct {
	Class        string      `json:"class"`
	Confidence   float64     `json:"confidence"`
	Severity     Severity    `json:"severity"`
	BBox         BoundingBox `json:"bbox"`
	RelativeSize float64     `json:"relative_size"`
}
