package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// limitedProvider throttles Analyze calls so concurrent researcher
// workers cannot exceed the provider's rate allowance between them
type limitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider wraps a provider with a requests-per-second
// cap. A non-positive rate returns the provider unwrapped.
func NewRateLimitedProvider(inner Provider, requestsPerSecond float64, burst int) Provider {
	if requestsPerSecond <= 0 {
		return inner
	}
	if burst < 1 {
		burst = 1
	}
	return &limitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (p *limitedProvider) Name() string {
	return p.inner.Name()
}

func (p *limitedProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

func (p *limitedProvider) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.inner.Analyze(ctx, req)
}
