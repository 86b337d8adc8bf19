package detectionService

import (
	"PotholeGolang/internal/api/detection"
	"PotholeGolang/internal/entity"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/context"
)

type scriptedCall struct {
	text string
	err  error
}

type fakeGemini struct {
	script       []scriptedCall
	fallbackName string
	calls        int
	fallbackUsed []bool
}

func (f *fakeGemini) GenerateDescription(_ context.Context, _ []byte, _ string, useFallback bool) (string, error) {
	f.fallbackUsed = append(f.fallbackUsed, useFallback)
	call := f.script[f.calls]
	f.calls++
	return call.text, call.err
}

func (f *fakeGemini) HasFallback() bool { return f.fallbackName != "" }

func (f *fakeGemini) ModelName(fallback bool) string {
	if fallback && f.fallbackName != "" {
		return f.fallbackName
	}
	return "primary-model"
}

func (f *fakeGemini) Close() {}

func newDescribeService(g *fakeGemini) (*detectionService, *[]time.Duration) {
	delays := &[]time.Duration{}
	svc := &detectionService{
		log:    quietLogger(),
		gemini: g,
		cfg:    Config{},
		now:    func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) },
		sleep:  func(d time.Duration) { *delays = append(*delays, d) },
	}
	return svc, delays
}

var errOverloaded = errors.New("rpc error: the model is overloaded")

func TestGenerateDescriptionRetriesOverloadedWithBackoff(t *testing.T) {
	g := &fakeGemini{
		fallbackName: "fallback-model",
		script: []scriptedCall{
			{err: errOverloaded},
			{err: errOverloaded},
			{text: "A deep pothole spanning the right lane."},
		},
	}
	svc, delays := newDescribeService(g)

	result, err := svc.GenerateDescription(context.Background(), []byte("img"), nil)
	if err != nil {
		t.Fatalf("GenerateDescription returned error: %v", err)
	}

	if result.Description != "A deep pothole spanning the right lane." {
		t.Errorf("unexpected description: %q", result.Description)
	}
	if g.calls != 3 {
		t.Errorf("calls = %d, want 3", g.calls)
	}
	if result.Attempt != 3 {
		t.Errorf("attempt = %d, want 3", result.Attempt)
	}
	if result.ModelUsed != "fallback-model" {
		t.Errorf("model used = %q, want fallback-model", result.ModelUsed)
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("delays = %v, want %v", *delays, want)
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Errorf("delay[%d] = %v, want %v", i, (*delays)[i], d)
		}
	}
}

func TestGenerateDescriptionExhaustedOverloadSurfacesOverloaded(t *testing.T) {
	g := &fakeGemini{script: []scriptedCall{
		{err: errOverloaded}, {err: errOverloaded}, {err: errOverloaded},
	}}
	svc, _ := newDescribeService(g)

	_, err := svc.GenerateDescription(context.Background(), []byte("img"), nil)
	if !errors.Is(err, detection.ErrAIOverloaded) {
		t.Errorf("error = %v, want ErrAIOverloaded", err)
	}
	if g.calls != 3 {
		t.Errorf("calls = %d, want 3", g.calls)
	}
}

func TestGenerateDescriptionQuotaFailsImmediately(t *testing.T) {
	g := &fakeGemini{script: []scriptedCall{
		{err: errors.New("resource exhausted: quota exceeded")},
	}}
	svc, delays := newDescribeService(g)

	_, err := svc.GenerateDescription(context.Background(), []byte("img"), nil)
	if !errors.Is(err, detection.ErrAIQuotaExceeded) {
		t.Errorf("error = %v, want ErrAIQuotaExceeded", err)
	}
	if g.calls != 1 {
		t.Errorf("calls = %d, want 1: quota failures must not retry", g.calls)
	}
	if len(*delays) != 0 {
		t.Errorf("delays = %v, want none", *delays)
	}
}

func TestGenerateDescriptionTimeoutFailsImmediately(t *testing.T) {
	g := &fakeGemini{script: []scriptedCall{
		{err: context.DeadlineExceeded},
	}}
	svc, _ := newDescribeService(g)

	_, err := svc.GenerateDescription(context.Background(), []byte("img"), nil)
	if !errors.Is(err, detection.ErrAITimeout) {
		t.Errorf("error = %v, want ErrAITimeout", err)
	}
	if g.calls != 1 {
		t.Errorf("calls = %d, want 1: timeouts must not retry", g.calls)
	}
}

func TestGenerateDescriptionTransientGetsOneRetry(t *testing.T) {
	g := &fakeGemini{script: []scriptedCall{
		{err: errors.New("connection reset by peer")},
		{text: "Minor surface cracking near the curb."},
	}}
	svc, delays := newDescribeService(g)

	result, err := svc.GenerateDescription(context.Background(), []byte("img"), nil)
	if err != nil {
		t.Fatalf("GenerateDescription returned error: %v", err)
	}
	if result.Attempt != 2 {
		t.Errorf("attempt = %d, want 2", result.Attempt)
	}
	if len(*delays) != 1 || (*delays)[0] != time.Second {
		t.Errorf("delays = %v, want [1s]", *delays)
	}
}

func TestGenerateDescriptionTransientRetriesOnlyOnce(t *testing.T) {
	g := &fakeGemini{script: []scriptedCall{
		{err: errors.New("connection reset by peer")},
		{err: errors.New("connection reset by peer")},
	}}
	svc, _ := newDescribeService(g)

	_, err := svc.GenerateDescription(context.Background(), []byte("img"), nil)
	if !errors.Is(err, detection.ErrAIGeneration) {
		t.Errorf("error = %v, want ErrAIGeneration", err)
	}
	if g.calls != 2 {
		t.Errorf("calls = %d, want 2: only one transient retry allowed", g.calls)
	}
}

func TestGenerateDescriptionWithoutClient(t *testing.T) {
	svc := &detectionService{log: quietLogger(), now: time.Now}

	_, err := svc.GenerateDescription(context.Background(), []byte("img"), nil)
	if !errors.Is(err, detection.ErrGeminiUnavailable) {
		t.Errorf("error = %v, want ErrGeminiUnavailable", err)
	}
}

func TestBuildDescribePromptIncludesAddress(t *testing.T) {
	loc := &entity.Location{Latitude: -6.2, Longitude: 106.8, Address: "Jalan Sudirman, Jakarta"}
	prompt := buildDescribePrompt(loc)

	if !strings.Contains(prompt, "Jalan Sudirman, Jakarta") {
		t.Errorf("prompt missing address: %q", prompt)
	}
}
