package detectionService

import (
	"PotholeGolang/internal/api/detection"
	"PotholeGolang/internal/entity"
	"PotholeGolang/pkg/cleanup"
	"PotholeGolang/pkg/gemini"
	"PotholeGolang/pkg/inference"
	"PotholeGolang/pkg/mapbox"
	"PotholeGolang/pkg/retry"
	"PotholeGolang/pkg/s3"
	"PotholeGolang/pkg/smtp"
	"PotholeGolang/pkg/utils"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IDetectionService interface {
	DetectImage(ctx context.Context, req detection.DetectRequest) (*detection.DetectData, error)
	DetectBatch(ctx context.Context, images []detection.BatchImage) (*detection.BatchData, error)
	SendReportEmail(ctx context.Context, req detection.EmailReportRequest) (*detection.EmailReportData, error)
	GenerateDescription(ctx context.Context, image []byte, loc *entity.Location) (*detection.DescriptionData, error)
	Health() detection.HealthData
	SystemInfo() detection.SystemInfoData
}

// Config holds the detection pipeline knobs, loaded once at startup.
type Config struct {
	ConfidenceThreshold float64
	ImageSize           int
	ModelPath           string
	UploadDir           string
	OutputDir           string
	AdminEmail          string
	LogoPath            string
	Environment         string
	AuthRequired        bool
}

func ConfigFromEnv() Config {
	cfg := Config{
		ConfidenceThreshold: 0.25,
		ImageSize:           640,
		ModelPath:           "best.pt",
		UploadDir:           "static/uploads",
		OutputDir:           "static/outputs",
		LogoPath:            "static/fmp-logo.png",
		Environment:         "local",
		AdminEmail:          os.Getenv("ADMIN_EMAIL"),
		AuthRequired:        os.Getenv("API_KEY") != "",
	}

	if v, err := strconv.ParseFloat(os.Getenv("CONFIDENCE_THRESHOLD"), 64); err == nil && v >= 0 && v <= 1 {
		cfg.ConfidenceThreshold = v
	}
	if v, err := strconv.Atoi(os.Getenv("IMAGE_SIZE")); err == nil && v > 0 {
		cfg.ImageSize = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		cfg.ModelPath = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Environment = v
	}

	return cfg
}

type detectionService struct {
	log       *logrus.Logger
	inference inference.IInference
	gemini    gemini.IGemini
	mapbox    mapbox.ItfMapbox
	mailer    smtp.ItfSmtp
	archive   s3.ItfS3
	cleaner   *cleanup.Scheduler
	utils     utils.IUtils
	cfg       Config

	// injectable for deterministic tests
	now   func() time.Time
	sleep retry.Sleeper
}

func NewDetectionService(
	log *logrus.Logger,
	inferenceClient inference.IInference,
	geminiClient gemini.IGemini,
	mapboxClient mapbox.ItfMapbox,
	mailer smtp.ItfSmtp,
	archive s3.ItfS3,
	cleaner *cleanup.Scheduler,
	utils utils.IUtils,
	cfg Config,
) IDetectionService {
	return &detectionService{
		log:       log,
		inference: inferenceClient,
		gemini:    geminiClient,
		mapbox:    mapboxClient,
		mailer:    mailer,
		archive:   archive,
		cleaner:   cleaner,
		utils:     utils,
		cfg:       cfg,
		now:       time.Now,
	}
}
