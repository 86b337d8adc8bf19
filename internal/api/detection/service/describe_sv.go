package detectionService

import (
	"PotholeGolang/internal/api/detection"
	"PotholeGolang/internal/entity"
	"PotholeGolang/pkg/gemini"
	"PotholeGolang/pkg/retry"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/context"
)

const (
	maxDescribeAttempts = 3
	overloadedBaseDelay = 2 * time.Second
	transientRetryDelay = 1 * time.Second
)

// GenerateDescription asks the AI collaborator for a road-damage narrative.
// Overloaded responses are retried with doubling backoff, timeout and quota
// failures surface immediately, and any other failure gets exactly one more
// chance. Attempts after the first prefer the fallback model when configured.
func (s *detectionService) GenerateDescription(ctx context.Context, image []byte, loc *entity.Location) (*detection.DescriptionData, error) {
	if s.gemini == nil {
		return nil, detection.ErrGeminiUnavailable
	}

	prompt := buildDescribePrompt(loc)

	var (
		text        string
		modelUsed   string
		attemptUsed int

		overloadedDelay  = overloadedBaseDelay
		transientRetried bool
	)

	classify := func(attempt int, err error) retry.Decision {
		switch gemini.Classify(err) {
		case gemini.FailureOverloaded:
			delay := overloadedDelay
			overloadedDelay *= 2
			return retry.Decision{Retry: true, Delay: delay}
		case gemini.FailureTimeout, gemini.FailureQuota:
			return retry.Decision{Retry: false}
		default:
			if transientRetried {
				return retry.Decision{Retry: false}
			}
			transientRetried = true
			return retry.Decision{Retry: true, Delay: transientRetryDelay}
		}
	}

	err := retry.Do(ctx, maxDescribeAttempts, classify, s.sleep, func(attempt int) error {
		useFallback := attempt > 1 && s.gemini.HasFallback()
		modelUsed = s.gemini.ModelName(useFallback)
		attemptUsed = attempt

		generated, err := s.gemini.GenerateDescription(ctx, image, prompt, useFallback)
		if err != nil {
			s.log.Warnf("description attempt %d via %s failed: %v", attempt, modelUsed, err)
			return err
		}
		text = generated
		return nil
	})
	if err != nil {
		switch gemini.Classify(err) {
		case gemini.FailureOverloaded:
			return nil, detection.ErrAIOverloaded
		case gemini.FailureTimeout:
			return nil, detection.ErrAITimeout
		case gemini.FailureQuota:
			return nil, detection.ErrAIQuotaExceeded
		default:
			return nil, fmt.Errorf("%w: %v", detection.ErrAIGeneration, err)
		}
	}

	return &detection.DescriptionData{
		Description: text,
		GeneratedAt: s.now().Format(time.RFC3339),
		ModelUsed:   modelUsed,
		Attempt:     attemptUsed,
	}, nil
}

func buildDescribePrompt(loc *entity.Location) string {
	var b strings.Builder
	b.WriteString("You are a road maintenance expert. Analyze this road image and write a concise report covering:\n")
	b.WriteString("1. Damage Assessment: type and extent of the visible road damage\n")
	b.WriteString("2. Severity Level: how dangerous this is for vehicles and pedestrians\n")
	b.WriteString("3. Safety Impact: which road users are most at risk\n")
	b.WriteString("4. Location Context: how the surroundings affect urgency\n")
	b.WriteString("5. Repair Priority: recommended timeline for fixing this damage\n")

	if loc != nil {
		if loc.Address != "" {
			b.WriteString(fmt.Sprintf("\nThe image was taken at: %s\n", loc.Address))
		} else {
			b.WriteString(fmt.Sprintf("\nThe image was taken at coordinates (%f, %f)\n", loc.Latitude, loc.Longitude))
		}
	}

	b.WriteString("\nKeep the report factual and under 200 words.")
	return b.String()
}
