package detectionHandler

import (
	"PotholeGolang/internal/api/detection"
	"PotholeGolang/internal/entity"
	"PotholeGolang/internal/middleware"
	"PotholeGolang/pkg/response"
	"PotholeGolang/pkg/utils"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type fakeService struct {
	detectData  *detection.DetectData
	detectErr   error
	lastRequest detection.DetectRequest
}

func (f *fakeService) DetectImage(_ context.Context, req detection.DetectRequest) (*detection.DetectData, error) {
	f.lastRequest = req
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	return f.detectData, nil
}

func (f *fakeService) DetectBatch(_ context.Context, images []detection.BatchImage) (*detection.BatchData, error) {
	return &detection.BatchData{Summary: detection.BatchSummary{TotalImages: len(images)}}, nil
}

func (f *fakeService) SendReportEmail(_ context.Context, _ detection.EmailReportRequest) (*detection.EmailReportData, error) {
	return &detection.EmailReportData{EmailSent: true}, nil
}

func (f *fakeService) GenerateDescription(_ context.Context, _ []byte, _ *entity.Location) (*detection.DescriptionData, error) {
	return &detection.DescriptionData{Description: "ok"}, nil
}

func (f *fakeService) Health() detection.HealthData {
	return detection.HealthData{Status: "healthy", Version: response.APIVersion}
}

func (f *fakeService) SystemInfo() detection.SystemInfoData {
	return detection.SystemInfoData{APIInfo: detection.APIInfo{Version: response.APIVersion}}
}

func newTestApp(svc *fakeService) *fiber.App {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	app := fiber.New()
	h := New(logger, validator.New(), middleware.New(logger, nil), svc, utils.New())
	h.Start(app.Group("/api/v1"))
	return app
}

func multipartImage(t *testing.T, field, filename string, data []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if filename != "" || data != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
		header.Set("Content-Type", "image/jpeg")
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for k, v := range extra {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response) response.Body {
	t.Helper()
	defer resp.Body.Close()
	var body response.Body
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(&fakeService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if !body.Success || body.Version != response.APIVersion {
		t.Errorf("unexpected envelope: %+v", body)
	}
}

func TestDetectMissingImage(t *testing.T) {
	app := newTestApp(&fakeService{})

	payload, contentType := multipartImage(t, "image", "", nil, map[string]string{"other": "field"})
	req := httptest.NewRequest("POST", "/api/v1/detect", payload)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body.Code != "MISSING_IMAGE" {
		t.Errorf("code = %q, want MISSING_IMAGE", body.Code)
	}
}

func TestDetectParsesFormFields(t *testing.T) {
	svc := &fakeService{detectData: &detection.DetectData{DetectionCount: 2}}
	app := newTestApp(svc)

	payload, contentType := multipartImage(t, "image", "road.jpg", []byte("jpegbytes"), map[string]string{
		"latitude":       "-6.2",
		"longitude":      "106.8",
		"reporter_name":  "  Jamie  ",
		"reporter_email": "jamie@example.com",
		"include_image":  "false",
		"send_email":     "true",
	})
	req := httptest.NewRequest("POST", "/api/v1/detect", payload)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	got := svc.lastRequest
	if got.Location == nil || got.Location.Latitude != -6.2 || got.Location.Longitude != 106.8 {
		t.Errorf("location = %+v, want (-6.2, 106.8)", got.Location)
	}
	if got.ReporterName != "Jamie" {
		t.Errorf("reporter name = %q, want trimmed Jamie", got.ReporterName)
	}
	if got.IncludeImage {
		t.Error("include_image=false should disable annotation")
	}
	if !got.SendEmail {
		t.Error("send_email=true should request dispatch")
	}

	body := decodeBody(t, resp)
	if body.Message != "Detection completed. Found 2 pothole(s)." {
		t.Errorf("message = %q", body.Message)
	}
}

func TestDetectRejectsMalformedCoordinates(t *testing.T) {
	app := newTestApp(&fakeService{detectData: &detection.DetectData{}})

	payload, contentType := multipartImage(t, "image", "road.jpg", []byte("jpegbytes"), map[string]string{
		"latitude":  "not-a-number",
		"longitude": "106.8",
	})
	req := httptest.NewRequest("POST", "/api/v1/detect", payload)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body.Code != "INVALID_COORDINATES" {
		t.Errorf("code = %q, want INVALID_COORDINATES", body.Code)
	}
}

func TestDetectMapsServiceError(t *testing.T) {
	app := newTestApp(&fakeService{detectErr: detection.ErrDetection})

	payload, contentType := multipartImage(t, "image", "road.jpg", []byte("jpegbytes"), nil)
	req := httptest.NewRequest("POST", "/api/v1/detect", payload)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body.Code != "DETECTION_ERROR" {
		t.Errorf("code = %q, want DETECTION_ERROR", body.Code)
	}
}

func TestSendReportEmailValidation(t *testing.T) {
	app := newTestApp(&fakeService{})

	tests := []struct {
		name     string
		payload  string
		wantCode string
	}{
		{"missing email", `{"images_data":["abc"]}`, "MISSING_USER_EMAIL"},
		{"missing images", `{"user_email":"a@b.com"}`, "MISSING_IMAGES"},
		{"invalid email", `{"user_email":"not-an-email","images_data":["abc"]}`, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/send-report-email", bytes.NewBufferString(tt.payload))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			if body := decodeBody(t, resp); body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestSanitizeReporterField(t *testing.T) {
	if got := sanitizeReporterField("  Jamie  ", "Unknown User"); got != "Jamie" {
		t.Errorf("trimmed value = %q, want Jamie", got)
	}
	if got := sanitizeReporterField("   ", "Unknown User"); got != "Unknown User" {
		t.Errorf("blank value = %q, want the fallback", got)
	}

	long := strings.Repeat("é", 150)
	got := sanitizeReporterField(long, "Unknown User")
	if utf8.RuneCountInString(got) != 100 {
		t.Errorf("rune count = %d, want 100", utf8.RuneCountInString(got))
	}
	// the cap must never split a multibyte character
	if !utf8.ValidString(got) {
		t.Error("truncated value is not valid UTF-8")
	}
	if got != strings.Repeat("é", 100) {
		t.Errorf("truncated value = %q, want 100 repeated runes", got)
	}
}

func TestSystemInfoEndpoint(t *testing.T) {
	app := newTestApp(&fakeService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/system/info", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
