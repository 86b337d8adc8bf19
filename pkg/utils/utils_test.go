package utils

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"
)

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestImageDimensions(t *testing.T) {
	u := New()

	width, height, err := u.ImageDimensions(testPNG(t, 320, 240))
	if err != nil {
		t.Fatalf("ImageDimensions: %v", err)
	}
	if width != 320 || height != 240 {
		t.Errorf("dimensions = %dx%d, want 320x240", width, height)
	}

	if _, _, err := u.ImageDimensions([]byte("garbage")); err == nil {
		t.Error("expected error for non-image bytes")
	}
}

func TestDecodeBase64Image(t *testing.T) {
	u := New()
	img := testPNG(t, 200, 200)
	encoded := base64.StdEncoding.EncodeToString(img)

	t.Run("plain base64", func(t *testing.T) {
		decoded, err := u.DecodeBase64Image(encoded)
		if err != nil {
			t.Fatalf("DecodeBase64Image: %v", err)
		}
		if !bytes.Equal(decoded, img) {
			t.Error("decoded bytes differ from original")
		}
	})

	t.Run("data URI prefix", func(t *testing.T) {
		decoded, err := u.DecodeBase64Image("data:image/png;base64," + encoded)
		if err != nil {
			t.Fatalf("DecodeBase64Image: %v", err)
		}
		if !bytes.Equal(decoded, img) {
			t.Error("decoded bytes differ from original")
		}
	})

	t.Run("missing padding repaired", func(t *testing.T) {
		stripped := strings.TrimRight(encoded, "=")
		if stripped == encoded {
			t.Skip("encoded image has no padding to strip")
		}
		if _, err := u.DecodeBase64Image(stripped); err != nil {
			t.Errorf("DecodeBase64Image with stripped padding: %v", err)
		}
	})

	t.Run("tiny payload rejected", func(t *testing.T) {
		if _, err := u.DecodeBase64Image(base64.StdEncoding.EncodeToString([]byte("tiny"))); err == nil {
			t.Error("expected rejection of sub-100-byte payload")
		}
	})

	t.Run("empty input rejected", func(t *testing.T) {
		if _, err := u.DecodeBase64Image(""); err == nil {
			t.Error("expected rejection of empty input")
		}
	})

	t.Run("malformed data URI rejected", func(t *testing.T) {
		if _, err := u.DecodeBase64Image("data:image/png;base64"); err == nil {
			t.Error("expected rejection of data URI without payload")
		}
	})
}

func fileHeader(filename, contentType string, size int64) *multipart.FileHeader {
	header := textproto.MIMEHeader{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &multipart.FileHeader{
		Filename: filename,
		Header:   header,
		Size:     size,
	}
}

func TestValidateImageFile(t *testing.T) {
	u := New()

	if err := u.ValidateImageFile(nil); err == nil {
		t.Error("nil file should be rejected")
	}
	if err := u.ValidateImageFile(fileHeader("", "image/jpeg", 100)); err == nil {
		t.Error("empty filename should be rejected")
	}
	if err := u.ValidateImageFile(fileHeader("a.jpg", "image/jpeg", MaxImageBytes+1)); err == nil {
		t.Error("oversized file should be rejected")
	}
	if err := u.ValidateImageFile(fileHeader("a.txt", "text/plain", 100)); err == nil {
		t.Error("non-image content type should be rejected")
	}
	if err := u.ValidateImageFile(fileHeader("a.jpg", "image/jpeg", 100)); err != nil {
		t.Errorf("valid file rejected: %v", err)
	}
	// some clients omit the part content type entirely
	if err := u.ValidateImageFile(fileHeader("a.jpg", "", 100)); err != nil {
		t.Errorf("file without content type rejected: %v", err)
	}
}

func TestSaveTempImageUsesUniqueNames(t *testing.T) {
	u := New()
	dir := t.TempDir()

	first, err := u.SaveTempImage(dir, "api_detection", []byte("one"))
	if err != nil {
		t.Fatalf("SaveTempImage: %v", err)
	}
	second, err := u.SaveTempImage(dir, "api_detection", []byte("two"))
	if err != nil {
		t.Fatalf("SaveTempImage: %v", err)
	}

	if first == second {
		t.Error("two saves should never share a path")
	}

	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "one" {
		t.Errorf("saved content = %q, want %q", data, "one")
	}
}

func TestNewULIDFromTimestampIsSortable(t *testing.T) {
	u := New()

	earlier, err := u.NewULIDFromTimestamp(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewULIDFromTimestamp: %v", err)
	}
	later, err := u.NewULIDFromTimestamp(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewULIDFromTimestamp: %v", err)
	}

	if !(earlier < later) {
		t.Errorf("ULIDs not time-ordered: %s >= %s", earlier, later)
	}
}
