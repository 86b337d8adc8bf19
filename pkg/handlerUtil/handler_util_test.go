package handlerUtil

import (
	"PotholeGolang/pkg/response"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func handleError(t *testing.T, err error) (int, response.Body) {
	t.Helper()
	app := fiber.New()
	h := New(quietLogger())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return h.Handle(c, "req-1", err, c.Path(), "test_operation")
	})

	resp, reqErr := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	if reqErr != nil {
		t.Fatalf("request failed: %v", reqErr)
	}
	defer resp.Body.Close()

	var body response.Body
	if decErr := json.NewDecoder(resp.Body).Decode(&body); decErr != nil {
		t.Fatalf("decode body: %v", decErr)
	}
	return resp.StatusCode, body
}

func TestHandleMapsDomainError(t *testing.T) {
	domainErr := response.NewError(http.StatusBadRequest, "MISSING_IMAGE", "no image provided")

	status, body := handleError(t, domainErr)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	if body.Code != "MISSING_IMAGE" {
		t.Errorf("code = %q, want MISSING_IMAGE", body.Code)
	}
	if body.Success {
		t.Error("expected success false")
	}
}

func TestHandleUnmappedErrorFallsBackToInternal(t *testing.T) {
	status, body := handleError(t, errors.New("disk on fire"))
	if status != response.ErrInternal.Status {
		t.Errorf("status = %d, want %d", status, response.ErrInternal.Status)
	}
	if body.Code != response.ErrInternal.Code {
		t.Errorf("code = %q, want %q", body.Code, response.ErrInternal.Code)
	}
	if body.Error != "disk on fire" {
		t.Errorf("error = %q, want the original message", body.Error)
	}
}
