package handlerUtil

import (
	"PotholeGolang/pkg/log"
	"PotholeGolang/pkg/response"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// Handle maps domain errors to the response envelope. Every domain error in
// this service is a *response.Error carrying its HTTP status and symbolic
// code; anything else is an unexpected internal error.
func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	var respErr *response.Error
	if errors.As(err, &respErr) {
		entry := h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"code":       respErr.Code,
			"path":       path,
			"operation":  operation,
		})
		if respErr.Status >= http.StatusInternalServerError {
			entry.Error("Operation failed")
		} else {
			entry.Warn("Operation rejected")
		}
		return c.Status(respErr.Status).JSON(response.Failure(err.Error(), respErr.Code))
	}

	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}).Error("Unexpected error")

	return c.Status(response.ErrInternal.Status).JSON(response.Failure(err.Error(), response.ErrInternal.Code))
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(response.Failure("Validation failed: "+err.Error(), "VALIDATION_ERROR"))
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(response.Failure("request timed out", "REQUEST_TIMEOUT"))
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}, message string) error {
	return c.Status(statusCode).JSON(response.Success(data, message))
}
