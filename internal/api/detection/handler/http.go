package detectionHandler

import (
	detectionService "PotholeGolang/internal/api/detection/service"
	"PotholeGolang/internal/middleware"
	"PotholeGolang/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type DetectionHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	detectionService detectionService.IDetectionService
	utils            utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ds detectionService.IDetectionService,
	utils utils.IUtils,
) *DetectionHandler {
	return &DetectionHandler{
		detectionService: ds,
		log:              log,
		validator:        validator,
		middleware:       middleware,
		utils:            utils,
	}
}

func (h *DetectionHandler) Start(srv fiber.Router) {
	srv.Get("/health", h.Health)

	srv.Post("/detect", h.middleware.NewRateLimiter, h.middleware.NewAPIKeyMiddleware, h.Detect)
	srv.Post("/detect/batch", h.middleware.NewRateLimiter, h.middleware.NewAPIKeyMiddleware, h.DetectBatch)
	srv.Post("/send-report-email", h.middleware.NewRateLimiter, h.middleware.NewAPIKeyMiddleware, h.SendReportEmail)
	srv.Get("/system/info", h.middleware.NewRateLimiter, h.middleware.NewAPIKeyMiddleware, h.SystemInfo)

	// description generation is rate limited but open: it powers the public
	// report form before any credential exchange happens
	srv.Post("/generate-description", h.middleware.NewRateLimiter, h.GenerateDescription)
}
