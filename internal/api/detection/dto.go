package detection

import "PotholeGolang/internal/entity"

// DetectRequest carries everything the /detect pipeline needs after
// multipart parsing. AllImages/AllDetections are the optional multi-image
// report payload the client accumulated across prior single detections.
type DetectRequest struct {
	Image         []byte
	Filename      string
	IncludeImage  bool
	SendEmail     bool
	Location      *entity.Location
	ReporterName  string
	ReporterEmail string
	AllImages     []string
	AllDetections [][]entity.Detection
}

type ImageInfo struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Filename string `json:"filename"`
}

type ProcessingInfo struct {
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	ImageSize           int     `json:"image_size"`
	ModelPath           string  `json:"model_path"`
}

type EmailStatus struct {
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

type DetectData struct {
	Detections        []entity.Detection `json:"detections"`
	DetectionCount    int                `json:"detection_count"`
	ImageInfo         ImageInfo          `json:"image_info"`
	ProcessingInfo    ProcessingInfo     `json:"processing_info"`
	AnnotatedImageURL string             `json:"annotated_image_url,omitempty"`
	ArchiveURL        string             `json:"archive_url,omitempty"`
	Location          *entity.Location   `json:"location,omitempty"`
	Email             *EmailStatus       `json:"email,omitempty"`
}

type BatchImage struct {
	Data     []byte
	Filename string
}

type BatchImageResult struct {
	Filename       string             `json:"filename"`
	Detections     []entity.Detection `json:"detections"`
	DetectionCount int                `json:"detection_count"`
	ImageInfo      *ImageInfo         `json:"image_info,omitempty"`
	Error          string             `json:"error,omitempty"`
}

type BatchSummary struct {
	TotalImages     int `json:"total_images"`
	ProcessedImages int `json:"processed_images"`
	TotalDetections int `json:"total_detections"`
}

type BatchData struct {
	BatchResults []BatchImageResult `json:"batch_results"`
	Summary      BatchSummary       `json:"summary"`
}

// EmailReportRequest is the /send-report-email JSON body. Recipients is
// optional; when absent the report goes to the configured administrator.
type EmailReportRequest struct {
	UserEmail      string               `json:"user_email" validate:"required,email"`
	UserName       string               `json:"user_name"`
	Recipients     []string             `json:"recipients" validate:"omitempty,dive,email"`
	DetectionsData [][]entity.Detection `json:"detections_data"`
	LocationData   *entity.Location     `json:"location_data"`
	ImagesData     []string             `json:"images_data" validate:"required,min=1"`
}

// DispatchResult is the per-recipient outcome; one recipient failing never
// aborts the others.
type DispatchResult struct {
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

type EmailReportData struct {
	EmailSent  bool                      `json:"email_sent"`
	Recipients []string                  `json:"recipients"`
	Results    map[string]DispatchResult `json:"results"`
}

type DescriptionData struct {
	Description string `json:"description"`
	GeneratedAt string `json:"generated_at"`
	ModelUsed   string `json:"model_used"`
	Attempt     int    `json:"attempt"`
}

type HealthData struct {
	Status        string   `json:"status"`
	ModelLoaded   bool     `json:"model_loaded"`
	GeminiEnabled bool     `json:"gemini_enabled"`
	Version       string   `json:"version"`
	Environment   string   `json:"environment"`
	Endpoints     []string `json:"endpoints"`
}

type ModelInfo struct {
	Path                string   `json:"path"`
	ConfidenceThreshold float64  `json:"confidence_threshold"`
	ImageSize           int      `json:"image_size"`
	Classes             []string `json:"classes"`
}

type APIInfo struct {
	Version                string `json:"version"`
	AuthenticationRequired bool   `json:"authentication_required"`
}

type SystemInfoData struct {
	ModelInfo ModelInfo `json:"model_info"`
	APIInfo   APIInfo   `json:"api_info"`
}
