package utils

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// MaxImageBytes is the upload ceiling, enforced before any processing.
const MaxImageBytes = 10 * 1024 * 1024

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ReadMultipartFile(file *multipart.FileHeader) ([]byte, error)
	SaveTempImage(dir, prefix string, data []byte) (string, error)
	ImageDimensions(data []byte) (int, int, error)
	DecodeBase64Image(data string) ([]byte, error)
}

type utils struct {
	maxFileSize int64
}

func New() IUtils {
	return &utils{
		maxFileSize: MaxImageBytes,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return errors.New("no file uploaded")
	}

	if file.Filename == "" {
		return errors.New("no image selected")
	}

	if file.Size > u.maxFileSize {
		return errors.New("file size exceeds limit")
	}

	contentType := file.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return errors.New("uploaded file is not an image")
	}

	return nil
}

func (u *utils) ReadMultipartFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(src)
}

// SaveTempImage writes an upload under dir with a collision-free name and
// returns the full path. The caller owns scheduling its deletion.
func (u *utils) SaveTempImage(dir, prefix string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s.jpg", prefix, strings.ReplaceAll(uuid.NewString(), "-", ""))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}

	return path, nil
}

func (u *utils) ImageDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// DecodeBase64Image accepts plain base64 or a data URI, repairs missing
// padding, and rejects payloads too small to be a real image.
func (u *utils) DecodeBase64Image(data string) ([]byte, error) {
	if data == "" {
		return nil, errors.New("empty image data")
	}

	if strings.HasPrefix(data, "data:image") {
		_, encoded, found := strings.Cut(data, ",")
		if !found {
			return nil, errors.New("malformed data URI")
		}
		data = encoded
	}

	data = fixBase64Padding(strings.TrimSpace(data))

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	if len(decoded) < 100 {
		return nil, errors.New("image data too small")
	}

	return decoded, nil
}

func fixBase64Padding(data string) string {
	if missing := len(data) % 4; missing != 0 {
		data += strings.Repeat("=", 4-missing)
	}
	return data
}
