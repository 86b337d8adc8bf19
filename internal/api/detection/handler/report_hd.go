package detectionHandler

import (
	"PotholeGolang/internal/api/detection"
	"PotholeGolang/internal/entity"
	contextPkg "PotholeGolang/pkg/context"
	"PotholeGolang/pkg/handlerUtil"
	"PotholeGolang/pkg/log"
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/context"
)

func (h *DetectionHandler) SendReportEmail(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing report email request")

	var req detection.EmailReportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, detection.ErrMissingData, ctx.Path(), "parse_request_body")
	}

	if req.UserEmail == "" {
		return errHandler.Handle(ctx, requestID, detection.ErrMissingEmail, ctx.Path(), "validate_request")
	}
	if len(req.ImagesData) == 0 {
		return errHandler.Handle(ctx, requestID, detection.ErrMissingImages, ctx.Path(), "validate_request")
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	result, err := h.detectionService.SendReportEmail(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "send_report_email")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"recipients": len(result.Recipients),
		}).Info("Report email dispatched")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result, "Report email sent successfully")
	}
}

func (h *DetectionHandler) GenerateDescription(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing description generation request")

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

	var loc *entity.Location
	if raw := ctx.FormValue("location"); raw != "" {
		var parsed entity.Location
		if err := jsoniter.UnmarshalFromString(raw, &parsed); err != nil {
			h.log.WithFields(log.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Ignoring malformed location payload")
		} else {
			loc = &parsed
		}
	}

	result, err := h.detectionService.GenerateDescription(c, imageBytes, loc)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "generate_description")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"model_used": result.ModelUsed,
			"attempt":    result.Attempt,
		}).Info("Description generated")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result, "Description generated successfully")
	}
}
