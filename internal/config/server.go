package config

import (
	detectionHandler "PotholeGolang/internal/api/detection/handler"
	detectionService "PotholeGolang/internal/api/detection/service"
	"PotholeGolang/internal/middleware"
	"PotholeGolang/pkg/cleanup"
	"PotholeGolang/pkg/gemini"
	"PotholeGolang/pkg/inference"
	"PotholeGolang/pkg/mapbox"
	"PotholeGolang/pkg/redis"
	"PotholeGolang/pkg/s3"
	"PotholeGolang/pkg/smtp"
	"PotholeGolang/pkg/utils"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type ServerOption func(*Server) error

type Server struct {
	engine          *fiber.App
	log             *logrus.Logger
	middleware      middleware.Middleware
	validator       *validator.Validate
	utils           utils.IUtils
	handlers        []handler
	inferenceClient inference.IInference
	geminiClient    gemini.IGemini
	mapboxClient    mapbox.ItfMapbox
	smtpMailer      smtp.ItfSmtp
	s3Client        s3.ItfS3
	cleaner         *cleanup.Scheduler
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithMiddleware selects the window store for the rate limiter: the Redis
// store when REDIS_ADDRESS is configured, so replicas share one window,
// otherwise the in-process store.
func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}

		var store middleware.WindowStore
		if os.Getenv("REDIS_ADDRESS") != "" {
			store = redis.New()
			s.log.Info("Rate limiter using Redis window store")
		}

		s.middleware = middleware.New(s.log, store)
		return nil
	}
}

func WithInferenceClient(client inference.IInference) ServerOption {
	return func(s *Server) error {
		s.inferenceClient = client
		return nil
	}
}

// WithGeminiClient is best-effort: a missing API key disables description
// generation instead of blocking startup.
func WithGeminiClient() ServerOption {
	return func(s *Server) error {
		client, err := gemini.NewGeminiClient()
		if err != nil {
			if s.log != nil {
				s.log.Warnf("Gemini client disabled: %v", err)
			}
			return nil
		}
		s.geminiClient = client
		return nil
	}
}

func WithMapboxClient() ServerOption {
	return func(s *Server) error {
		s.mapboxClient = mapbox.New()
		return nil
	}
}

// WithSMTPMailer is best-effort: without credentials, email endpoints report
// a configuration error per request while detection keeps working.
func WithSMTPMailer() ServerOption {
	return func(s *Server) error {
		mailer, err := smtp.New()
		if err != nil {
			if s.log != nil {
				s.log.Warnf("SMTP mailer disabled: %v", err)
			}
			return nil
		}
		s.smtpMailer = mailer
		return nil
	}
}

// WithS3Client enables the annotated-image archive only when a bucket is
// configured.
func WithS3Client() ServerOption {
	return func(s *Server) error {
		if os.Getenv("AWS_BUCKET_NAME") == "" {
			return nil
		}
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Warnf("S3 archive disabled: %v", err)
			}
			return nil
		}
		s.s3Client = client
		return nil
	}
}

func WithCleanupScheduler() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before cleanup scheduler")
		}
		s.cleaner = cleanup.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	detectionServices := detectionService.NewDetectionService(
		s.log,
		s.inferenceClient,
		s.geminiClient,
		s.mapboxClient,
		s.smtpMailer,
		s.s3Client,
		s.cleaner,
		s.utils,
		detectionService.ConfigFromEnv(),
	)
	detectionHandlers := detectionHandler.New(s.log, s.validator, s.middleware, detectionServices, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, detectionHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Static("/static", "./static")

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting traffic, then drains the deferred file cleanups
// so no temporary artifact outlives the process.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.engine.ShutdownWithContext(ctx)

	if s.cleaner != nil {
		if drainErr := s.cleaner.Drain(ctx); drainErr != nil && err == nil {
			err = drainErr
		}
	}

	if s.inferenceClient != nil {
		s.inferenceClient.Close()
	}
	if s.geminiClient != nil {
		s.geminiClient.Close()
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
