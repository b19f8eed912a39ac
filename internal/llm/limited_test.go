package llm

import (
	"context"
	"testing"
	"time"
)

type countingProvider struct {
	calls int
	reply *AnalysisResponse
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *countingProvider) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error) {
	p.calls++
	return p.reply, nil
}

func TestNewRateLimitedProvider_ZeroRateReturnsInner(t *testing.T) {
	inner := &countingProvider{}
	if got := NewRateLimitedProvider(inner, 0, 1); got != inner {
		t.Error("Expected inner provider unwrapped for zero rate")
	}
}

func TestLimitedProvider_PassesThrough(t *testing.T) {
	inner := &countingProvider{reply: &AnalysisResponse{Content: "ok", Model: "m"}}
	p := NewRateLimitedProvider(inner, 100, 5)

	resp, err := p.Analyze(context.Background(), AnalysisRequest{Prompt: "hello"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Expected passthrough response, got %q", resp.Content)
	}
	if inner.calls != 1 {
		t.Errorf("Expected 1 inner call, got %d", inner.calls)
	}
	if p.Name() != "counting" {
		t.Errorf("Expected inner name, got %q", p.Name())
	}
	if !p.IsAvailable(context.Background()) {
		t.Error("Expected availability passthrough")
	}
}

func TestLimitedProvider_CancelledContext(t *testing.T) {
	inner := &countingProvider{reply: &AnalysisResponse{}}
	p := NewRateLimitedProvider(inner, 1, 1)

	// Drain the initial burst token
	if _, err := p.Analyze(context.Background(), AnalysisRequest{}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Analyze(ctx, AnalysisRequest{}); err == nil {
		t.Fatal("Expected error from cancelled context, got nil")
	}
	if inner.calls != 1 {
		t.Errorf("Expected limiter to block the second call, got %d calls", inner.calls)
	}
}

func TestLimitedProvider_ThrottlesBeyondBurst(t *testing.T) {
	inner := &countingProvider{reply: &AnalysisResponse{}}
	p := NewRateLimitedProvider(inner, 50, 2)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := p.Analyze(context.Background(), AnalysisRequest{}); err != nil {
			t.Fatalf("Call %d: expected no error, got %v", i+1, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("Expected third call to wait for a token, finished in %v", elapsed)
	}
}
