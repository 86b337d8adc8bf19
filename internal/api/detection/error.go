package detection

import (
	"PotholeGolang/pkg/response"
	"net/http"
)

var (
	ErrMissingImage  = response.NewError(http.StatusBadRequest, "MISSING_IMAGE", "no image provided")
	ErrMissingImages = response.NewError(http.StatusBadRequest, "MISSING_IMAGES", "no images provided")
	ErrEmptyFilename = response.NewError(http.StatusBadRequest, "EMPTY_FILENAME", "no image selected")
	ErrFileTooLarge  = response.NewError(http.StatusBadRequest, "FILE_TOO_LARGE", "file size too large. Maximum size is 10MB")
	ErrInvalidFile   = response.NewError(http.StatusBadRequest, "INVALID_FILE_TYPE", "uploaded file is not an image")
	ErrMissingData   = response.NewError(http.StatusBadRequest, "MISSING_DATA", "no data provided")
	ErrMissingEmail  = response.NewError(http.StatusBadRequest, "MISSING_USER_EMAIL", "user email is required")
	ErrBadCoordinate = response.NewError(http.StatusBadRequest, "INVALID_COORDINATES", "latitude and longitude must be valid numbers")

	ErrDetection      = response.NewError(http.StatusInternalServerError, "DETECTION_ERROR", "detection failed")
	ErrBatchDetection = response.NewError(http.StatusInternalServerError, "BATCH_DETECTION_ERROR", "batch detection failed")
	ErrEmailConfig    = response.NewError(http.StatusInternalServerError, "EMAIL_CONFIG_ERROR", "email service configuration error")
	ErrEmailSend      = response.NewError(http.StatusInternalServerError, "EMAIL_SEND_FAILED", "failed to send emails")

	ErrGeminiUnavailable = response.NewError(http.StatusServiceUnavailable, "GEMINI_UNAVAILABLE", "Gemini AI is not available. Please check API key configuration")
	ErrAIOverloaded      = response.NewError(http.StatusServiceUnavailable, "AI_OVERLOADED", "Gemini AI is currently overloaded. Please try again in a few minutes")
	ErrAITimeout         = response.NewError(http.StatusRequestTimeout, "AI_TIMEOUT", "AI description generation timed out. Please try again")
	ErrAIQuotaExceeded   = response.NewError(http.StatusTooManyRequests, "AI_QUOTA_EXCEEDED", "Daily AI quota exceeded. Please try again tomorrow")
	ErrAIGeneration      = response.NewError(http.StatusInternalServerError, "AI_GENERATION_FAILED", "AI description generation failed")
)
