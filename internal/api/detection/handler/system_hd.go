package detectionHandler

import (
	"PotholeGolang/pkg/handlerUtil"
	"PotholeGolang/pkg/log"

	"github.com/gofiber/fiber/v2"
)

func (h *DetectionHandler) Health(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, h.detectionService.Health(), "Service is healthy")
}

func (h *DetectionHandler) SystemInfo(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing system info request")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, h.detectionService.SystemInfo(), "System information retrieved")
}
