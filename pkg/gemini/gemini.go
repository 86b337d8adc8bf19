package gemini

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// FailureKind classifies a generation failure so the orchestrator can pick
// the right retry policy and surface the right error code.
type FailureKind int

const (
	FailureOther FailureKind = iota
	FailureOverloaded
	FailureTimeout
	FailureQuota
)

var ErrEmptyResponse = errors.New("empty response from Gemini API")

type IGemini interface {
	GenerateDescription(ctx context.Context, image []byte, prompt string, useFallback bool) (string, error)
	HasFallback() bool
	ModelName(fallback bool) string
	Close()
}

type geminiClient struct {
	client       *genai.Client
	modelName    string
	fallbackName string
}

func NewGeminiClient() (IGemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		client:       client,
		modelName:    modelName,
		fallbackName: os.Getenv("GEMINI_FALLBACK_MODEL"),
	}, nil
}

func (g *geminiClient) HasFallback() bool {
	return g.fallbackName != ""
}

func (g *geminiClient) ModelName(fallback bool) string {
	if fallback && g.fallbackName != "" {
		return g.fallbackName
	}
	return g.modelName
}

func (g *geminiClient) GenerateDescription(ctx context.Context, image []byte, prompt string, useFallback bool) (string, error) {
	model := g.client.GenerativeModel(g.ModelName(useFallback))

	img := genai.ImageData("image/jpeg", image)
	res, err := model.GenerateContent(ctx, genai.Text(prompt), img)
	if err != nil {
		return "", err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	text, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", errors.New("unexpected response format from Gemini API")
	}

	trimmed := strings.TrimSpace(string(text))
	if trimmed == "" {
		return "", ErrEmptyResponse
	}

	return trimmed, nil
}

func (g *geminiClient) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

// Classify maps a generation error onto a failure kind by inspecting the
// transport error text, mirroring the status strings the API returns.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureOther
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "503") || strings.Contains(msg, "overloaded") || strings.Contains(msg, "unavailable"):
		return FailureOverloaded
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return FailureTimeout
	case strings.Contains(msg, "quota") || strings.Contains(msg, "resource exhausted") || strings.Contains(msg, "limit"):
		return FailureQuota
	default:
		return FailureOther
	}
}
