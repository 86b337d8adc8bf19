package detectionHandler

import (
	"PotholeGolang/internal/api/detection"
	"PotholeGolang/internal/entity"
	contextPkg "PotholeGolang/pkg/context"
	"PotholeGolang/pkg/handlerUtil"
	"PotholeGolang/pkg/log"
	"PotholeGolang/pkg/utils"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/context"
)

func (h *DetectionHandler) Detect(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing detection request")

	file, err := ctx.FormFile("image")
	if err != nil {
		return errHandler.Handle(ctx, requestID, detection.ErrMissingImage, ctx.Path(), "read_image_file")
	}
	if err := checkImageFile(file); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "validate_image_file")
	}

	imageBytes, err := h.utils.ReadMultipartFile(file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_image_file")
	}

	req := detection.DetectRequest{
		Image:         imageBytes,
		Filename:      file.Filename,
		IncludeImage:  !strings.EqualFold(ctx.FormValue("include_image", "true"), "false"),
		SendEmail:     strings.EqualFold(ctx.FormValue("send_email"), "true"),
		ReporterName:  sanitizeReporterField(ctx.FormValue("reporter_name"), "Unknown User"),
		ReporterEmail: sanitizeReporterField(ctx.FormValue("reporter_email"), "N/A"),
	}

	location, err := parseFormLocation(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_location")
	}
	req.Location = location

	// optional payload accumulated by the client across prior detections;
	// malformed JSON here degrades the email, never the detection
	if raw := ctx.FormValue("all_images"); raw != "" {
		if err := jsoniter.UnmarshalFromString(raw, &req.AllImages); err != nil {
			h.log.WithFields(log.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Ignoring malformed all_images payload")
		}
	}
	if raw := ctx.FormValue("all_detections"); raw != "" {
		if err := jsoniter.UnmarshalFromString(raw, &req.AllDetections); err != nil {
			h.log.WithFields(log.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Ignoring malformed all_detections payload")
		}
	}

	result, err := h.detectionService.DetectImage(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "detect_image")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id":      requestID,
			"path":            ctx.Path(),
			"detection_count": result.DetectionCount,
		}).Info("Detection successful")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result,
			fmt.Sprintf("Detection completed. Found %d pothole(s).", result.DetectionCount))
	}
}

func (h *DetectionHandler) DetectBatch(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 120*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing batch detection request")

	form, err := ctx.MultipartForm()
	if err != nil {
		return errHandler.Handle(ctx, requestID, detection.ErrMissingImages, ctx.Path(), "parse_multipart_form")
	}

	files := form.File["images"]
	if len(files) == 0 {
		return errHandler.Handle(ctx, requestID, detection.ErrMissingImages, ctx.Path(), "read_image_files")
	}

	images := make([]detection.BatchImage, 0, len(files))
	for _, file := range files {
		img := detection.BatchImage{Filename: file.Filename}
		if err := h.utils.ValidateImageFile(file); err != nil {
			h.log.WithFields(log.Fields{
				"request_id": requestID,
				"file_name":  file.Filename,
				"error":      err.Error(),
			}).Warn("Skipping invalid batch file")
			images = append(images, img)
			continue
		}
		data, err := h.utils.ReadMultipartFile(file)
		if err != nil {
			images = append(images, img)
			continue
		}
		img.Data = data
		images = append(images, img)
	}

	result, err := h.detectionService.DetectBatch(c, images)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "detect_batch")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id":       requestID,
			"path":             ctx.Path(),
			"processed_images": result.Summary.ProcessedImages,
			"total_detections": result.Summary.TotalDetections,
		}).Info("Batch detection successful")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result,
			fmt.Sprintf("Batch processing completed. %d total detections found.", result.Summary.TotalDetections))
	}
}

func checkImageFile(file *multipart.FileHeader) error {
	if file.Filename == "" {
		return detection.ErrEmptyFilename
	}
	if file.Size > utils.MaxImageBytes {
		return detection.ErrFileTooLarge
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return detection.ErrInvalidFile
	}
	return nil
}

// parseFormLocation reads optional latitude/longitude/accuracy form fields.
// Absent fields mean no location; present but unparsable fields are a client
// error rather than something to silently drop.
func parseFormLocation(ctx *fiber.Ctx) (*entity.Location, error) {
	latRaw := strings.TrimSpace(ctx.FormValue("latitude"))
	lngRaw := strings.TrimSpace(ctx.FormValue("longitude"))
	if latRaw == "" && lngRaw == "" {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, detection.ErrBadCoordinate
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return nil, detection.ErrBadCoordinate
	}

	loc := &entity.Location{Latitude: lat, Longitude: lng}
	if accRaw := strings.TrimSpace(ctx.FormValue("accuracy")); accRaw != "" {
		if acc, err := strconv.ParseFloat(accRaw, 64); err == nil {
			loc.Accuracy = &acc
		}
	}
	return loc, nil
}

func sanitizeReporterField(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if utf8.RuneCountInString(value) > 100 {
		value = string([]rune(value)[:100])
	}
	return value
}
