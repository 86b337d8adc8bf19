package detectionService

import (
	"PotholeGolang/internal/api/detection"
	"PotholeGolang/internal/entity"
	"PotholeGolang/pkg/inference"
	"PotholeGolang/pkg/response"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/net/context"
)

const (
	uploadCleanupDelay    = 5 * time.Second
	annotatedCleanupDelay = 10 * time.Second
	batchCleanupDelay     = 2 * time.Second
	mapCleanupDelay       = 10 * time.Second

	// single-shot detection raises the floor so low-confidence noise never
	// reaches a report
	minDetectConfidence = 0.3
)

func (s *detectionService) DetectImage(ctx context.Context, req detection.DetectRequest) (*detection.DetectData, error) {
	if len(req.Image) == 0 {
		return nil, detection.ErrMissingImage
	}

	inputPath, err := s.utils.SaveTempImage(s.cfg.UploadDir, "api_detection", req.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: save upload: %v", detection.ErrDetection, err)
	}
	s.cleaner.Schedule(inputPath, uploadCleanupDelay)

	width, height, err := s.utils.ImageDimensions(req.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", detection.ErrDetection, err)
	}

	confidence := math.Max(s.cfg.ConfidenceThreshold, minDetectConfidence)
	result, err := s.inference.Detect(ctx, req.Image, inference.DetectOptions{
		Confidence:       confidence,
		ImageSize:        s.cfg.ImageSize,
		IncludeAnnotated: req.IncludeImage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", detection.ErrDetection, err)
	}

	detections, err := NormalizeDetections(result.Detections, width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", detection.ErrDetection, err)
	}

	data := &detection.DetectData{
		Detections:     detections,
		DetectionCount: len(detections),
		ImageInfo: detection.ImageInfo{
			Width:    width,
			Height:   height,
			Filename: req.Filename,
		},
		ProcessingInfo: detection.ProcessingInfo{
			ConfidenceThreshold: confidence,
			ImageSize:           s.cfg.ImageSize,
			ModelPath:           s.cfg.ModelPath,
		},
		Location: req.Location,
	}

	if req.IncludeImage && result.AnnotatedImage != "" {
		s.attachAnnotatedImage(data, result.AnnotatedImage, inputPath)
	}

	if req.Location != nil {
		s.enrichLocation(ctx, req.Location, highestSeverity(detections), false)
	}

	if req.SendEmail && req.ReporterEmail != "" {
		status := s.sendDetectionReport(ctx, req, detections)
		data.Email = &status
	}

	return data, nil
}

// attachAnnotatedImage persists the model's annotated render next to the
// upload, exposes it as a static URL, and archives it when a bucket is
// configured. Failures here degrade the response, never fail it.
func (s *detectionService) attachAnnotatedImage(data *detection.DetectData, encoded, inputPath string) {
	annotated, err := s.utils.DecodeBase64Image(encoded)
	if err != nil {
		s.log.Warnf("annotated image decode failed: %v", err)
		return
	}

	name := "annotated_" + filepath.Base(inputPath)
	path, err := s.saveAnnotatedImage(name, annotated)
	if err != nil {
		s.log.Warnf("annotated image save failed: %v", err)
		return
	}
	s.cleaner.Schedule(path, annotatedCleanupDelay)
	data.AnnotatedImageURL = "/" + filepath.ToSlash(path)

	if s.archive != nil {
		key := "outputs/" + name
		if _, err := s.archive.UploadBytes(key, annotated, "image/jpeg"); err != nil {
			s.log.Warnf("annotated image archive failed: %v", err)
		} else if url, err := s.archive.PresignUrl(key); err == nil {
			data.ArchiveURL = url
		}
	}
}

func (s *detectionService) saveAnnotatedImage(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.cfg.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *detectionService) DetectBatch(ctx context.Context, images []detection.BatchImage) (*detection.BatchData, error) {
	if len(images) == 0 {
		return nil, detection.ErrMissingImages
	}

	results := make([]detection.BatchImageResult, 0, len(images))
	totalDetections := 0
	processed := 0

	for i, img := range images {
		if img.Filename == "" {
			continue
		}

		entry, err := s.detectBatchImage(ctx, i, img)
		if err != nil {
			s.log.Warnf("batch image %q failed: %v", img.Filename, err)
			results = append(results, detection.BatchImageResult{
				Filename: img.Filename,
				Error:    err.Error(),
			})
			continue
		}

		processed++
		totalDetections += entry.DetectionCount
		results = append(results, *entry)
	}

	// individual failures stay in place, but a batch where every image
	// failed is a batch failure
	if processed == 0 && len(results) > 0 {
		return nil, fmt.Errorf("%w: %s", detection.ErrBatchDetection, results[0].Error)
	}

	return &detection.BatchData{
		BatchResults: results,
		Summary: detection.BatchSummary{
			TotalImages:     len(images),
			ProcessedImages: processed,
			TotalDetections: totalDetections,
		},
	}, nil
}

func (s *detectionService) detectBatchImage(ctx context.Context, index int, img detection.BatchImage) (*detection.BatchImageResult, error) {
	if len(img.Data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}

	path, err := s.utils.SaveTempImage(s.cfg.UploadDir, fmt.Sprintf("batch_%d", index), img.Data)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	s.cleaner.Schedule(path, batchCleanupDelay)

	width, height, err := s.utils.ImageDimensions(img.Data)
	if err != nil {
		return nil, err
	}

	result, err := s.inference.Detect(ctx, img.Data, inference.DetectOptions{
		Confidence: s.cfg.ConfidenceThreshold,
		ImageSize:  s.cfg.ImageSize,
	})
	if err != nil {
		return nil, err
	}

	detections, err := NormalizeDetections(result.Detections, width, height)
	if err != nil {
		return nil, err
	}

	return &detection.BatchImageResult{
		Filename:       img.Filename,
		Detections:     detections,
		DetectionCount: len(detections),
		ImageInfo: &detection.ImageInfo{
			Width:    width,
			Height:   height,
			Filename: img.Filename,
		},
	}, nil
}

func (s *detectionService) SendReportEmail(ctx context.Context, req detection.EmailReportRequest) (*detection.EmailReportData, error) {
	if s.mailer == nil {
		return nil, fmt.Errorf("%w: EMAIL_USER and EMAIL_PASSWORD must be configured", detection.ErrEmailConfig)
	}

	artifacts := s.decodeReportImages(req.ImagesData)
	if len(artifacts) == 0 {
		return nil, detection.ErrMissingImages
	}

	report := ComposeReport(req.UserName, req.UserEmail, artifacts, req.DetectionsData, req.LocationData, s.now())

	if mapArtifact := s.enrichLocation(ctx, req.LocationData, report.Summary.HighestSeverity, true); mapArtifact != nil {
		report.MapImage = mapArtifact
		s.cleaner.Schedule(mapArtifact.Path, mapCleanupDelay)
	}

	recipients := req.Recipients
	if len(recipients) == 0 {
		if s.cfg.AdminEmail == "" {
			return nil, fmt.Errorf("%w: ADMIN_EMAIL not configured", detection.ErrEmailConfig)
		}
		recipients = []string{s.cfg.AdminEmail}
	}

	results := s.dispatchReport(report, recipients)

	anySent := false
	firstErr := ""
	for _, r := range results {
		if r.Sent {
			anySent = true
		} else if firstErr == "" {
			firstErr = r.Error
		}
	}
	if !anySent {
		return nil, fmt.Errorf("%w: %s", detection.ErrEmailSend, firstErr)
	}

	return &detection.EmailReportData{
		EmailSent:  anySent,
		Recipients: recipients,
		Results:    results,
	}, nil
}

// decodeReportImages turns base64 payloads into inline artifacts addressed
// as image_0, image_1, ... in upload order. Undecodable entries are dropped
// with a warning rather than failing the whole report.
func (s *detectionService) decodeReportImages(encoded []string) []entity.ImageArtifact {
	artifacts := make([]entity.ImageArtifact, 0, len(encoded))
	for i, data := range encoded {
		decoded, err := s.utils.DecodeBase64Image(data)
		if err != nil {
			s.log.Warnf("report image %d skipped: %v", i, err)
			continue
		}
		artifacts = append(artifacts, entity.ImageArtifact{
			Bytes:     decoded,
			ContentID: fmt.Sprintf("image_%d", len(artifacts)),
		})
	}
	return artifacts
}

// sendDetectionReport converts an inline send_email request into the same
// report pipeline /send-report-email uses, addressed to the administrator.
func (s *detectionService) sendDetectionReport(ctx context.Context, req detection.DetectRequest, detections []entity.Detection) detection.EmailStatus {
	emailReq := detection.EmailReportRequest{
		UserEmail:      req.ReporterEmail,
		UserName:       req.ReporterName,
		DetectionsData: req.AllDetections,
		LocationData:   req.Location,
		ImagesData:     req.AllImages,
	}
	if len(emailReq.DetectionsData) == 0 {
		emailReq.DetectionsData = [][]entity.Detection{detections}
	}

	// with no accumulated payload the current upload becomes the report image
	var result *detection.EmailReportData
	var err error
	if len(emailReq.ImagesData) == 0 {
		result, err = s.sendReportWithRawImage(ctx, emailReq, req.Image)
	} else {
		result, err = s.SendReportEmail(ctx, emailReq)
	}

	if err != nil {
		return detection.EmailStatus{Sent: false, Error: err.Error()}
	}
	return detection.EmailStatus{Sent: result.EmailSent}
}

func (s *detectionService) sendReportWithRawImage(ctx context.Context, req detection.EmailReportRequest, image []byte) (*detection.EmailReportData, error) {
	if s.mailer == nil {
		return nil, fmt.Errorf("%w: EMAIL_USER and EMAIL_PASSWORD must be configured", detection.ErrEmailConfig)
	}

	artifacts := []entity.ImageArtifact{{Bytes: image, ContentID: "image_0"}}
	report := ComposeReport(req.UserName, req.UserEmail, artifacts, req.DetectionsData, req.LocationData, s.now())

	if mapArtifact := s.enrichLocation(ctx, req.LocationData, report.Summary.HighestSeverity, true); mapArtifact != nil {
		report.MapImage = mapArtifact
		s.cleaner.Schedule(mapArtifact.Path, mapCleanupDelay)
	}

	if s.cfg.AdminEmail == "" {
		return nil, fmt.Errorf("%w: ADMIN_EMAIL not configured", detection.ErrEmailConfig)
	}
	recipients := []string{s.cfg.AdminEmail}

	results := s.dispatchReport(report, recipients)
	for _, r := range results {
		if r.Sent {
			return &detection.EmailReportData{EmailSent: true, Recipients: recipients, Results: results}, nil
		}
	}
	return nil, detection.ErrEmailSend
}

func (s *detectionService) Health() detection.HealthData {
	return detection.HealthData{
		Status:        "healthy",
		ModelLoaded:   s.inference.IsConnected(),
		GeminiEnabled: s.gemini != nil,
		Version:       response.APIVersion,
		Environment:   s.cfg.Environment,
		Endpoints: []string{
			"/api/v1/health",
			"/api/v1/detect",
			"/api/v1/detect/batch",
			"/api/v1/send-report-email",
			"/api/v1/generate-description",
			"/api/v1/system/info",
		},
	}
}

func (s *detectionService) SystemInfo() detection.SystemInfoData {
	return detection.SystemInfoData{
		ModelInfo: detection.ModelInfo{
			Path:                s.cfg.ModelPath,
			ConfidenceThreshold: s.cfg.ConfidenceThreshold,
			ImageSize:           s.cfg.ImageSize,
			Classes:             s.inference.ModelClasses(),
		},
		APIInfo: detection.APIInfo{
			Version:                response.APIVersion,
			AuthenticationRequired: s.cfg.AuthRequired,
		},
	}
}

func highestSeverity(detections []entity.Detection) entity.Severity {
	highest := entity.SeverityLow
	for _, d := range detections {
		if d.Severity.Rank() > highest.Rank() {
			highest = d.Severity
		}
	}
	return highest
}
