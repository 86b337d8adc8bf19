package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestSuccessEnvelope(t *testing.T) {
	body := Success(map[string]int{"count": 3}, "Done")

	if !body.Success {
		t.Error("success envelope must set success=true")
	}
	if body.Version != APIVersion {
		t.Errorf("version = %q, want %q", body.Version, APIVersion)
	}
	if body.Message != "Done" {
		t.Errorf("message = %q, want Done", body.Message)
	}
	if body.Timestamp == "" {
		t.Error("timestamp must be set")
	}
	if body.Error != "" || body.Code != "" {
		t.Error("success envelope must not carry error fields")
	}
}

func TestSuccessNilDataBecomesEmptyObject(t *testing.T) {
	body := Success(nil, "ok")
	if body.Data == nil {
		t.Error("nil data should serialize as an empty object, not null")
	}
}

func TestFailureEnvelope(t *testing.T) {
	body := Failure("boom", "DETECTION_ERROR")

	if body.Success {
		t.Error("failure envelope must set success=false")
	}
	if body.Error != "boom" || body.Code != "DETECTION_ERROR" {
		t.Errorf("error/code = %q/%q", body.Error, body.Code)
	}
	if body.Data != nil {
		t.Error("failure envelope must not carry data")
	}
}

func TestFailureDefaults(t *testing.T) {
	body := Failure("", "")
	if body.Error != "Unknown error" || body.Code != "INTERNAL_ERROR" {
		t.Errorf("defaults = %q/%q, want Unknown error/INTERNAL_ERROR", body.Error, body.Code)
	}
}

func TestErrorMatchingThroughWrapping(t *testing.T) {
	sentinel := NewError(http.StatusBadRequest, "MISSING_IMAGE", "no image provided")
	wrapped := fmt.Errorf("handler: %w", sentinel)

	if !errors.Is(wrapped, sentinel) {
		t.Error("wrapped sentinel should match with errors.Is")
	}

	var respErr *Error
	if !errors.As(wrapped, &respErr) {
		t.Fatal("wrapped sentinel should unwrap to *Error")
	}
	if respErr.Status != http.StatusBadRequest || respErr.Code != "MISSING_IMAGE" {
		t.Errorf("unwrapped = %d/%q", respErr.Status, respErr.Code)
	}
}
