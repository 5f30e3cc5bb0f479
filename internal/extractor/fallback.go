package extractor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"worklane/internal/port"
)

// namedExtractor pairs a provider name with its extractor for logging and
// circuit tracking.
type namedExtractor struct {
	name      string
	extractor port.TaskExtractor
}

// circuitState tracks a provider's rate-limit backoff window.
type circuitState struct {
	mu        sync.Mutex
	openUntil time.Time
}

func (c *circuitState) open(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openUntil = time.Now().Add(d)
}

func (c *circuitState) isOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Now().Before(c.openUntil)
}

func (c *circuitState) remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Until(c.openUntil)
}

// FallbackExtractor tries providers in order. A provider that returns a
// RateLimitError has its circuit opened for the Retry-After duration and is
// skipped until the window passes. Other errors fall through to the next
// provider immediately.
type FallbackExtractor struct {
	extractors []namedExtractor
	circuits   []*circuitState
}

// NewFallbackExtractor creates a FallbackExtractor from an ordered list of
// providers. At least one provider is required.
func NewFallbackExtractor(providers map[string]port.TaskExtractor, order []string) (*FallbackExtractor, error) {
	if len(order) == 0 {
		return nil, errors.New("fallback extractor requires at least one provider")
	}
	f := &FallbackExtractor{}
	for _, name := range order {
		ext, ok := providers[name]
		if !ok {
			return nil, fmt.Errorf("fallback extractor: provider %q not configured", name)
		}
		f.extractors = append(f.extractors, namedExtractor{name: name, extractor: ext})
		f.circuits = append(f.circuits, &circuitState{})
	}
	return f, nil
}

// Extract tries each provider in order until one succeeds.
func (f *FallbackExtractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	var lastErr error
	allRateLimited := true
	minRetryAfter := time.Duration(0)

	for i, ne := range f.extractors {
		circuit := f.circuits[i]
		if circuit.isOpen() {
			remaining := circuit.remaining()
			log.Printf("FallbackExtractor.Extract: skipping %s, circuit open for %s", ne.name, remaining.Round(time.Second))
			if minRetryAfter == 0 || remaining < minRetryAfter {
				minRetryAfter = remaining
			}
			lastErr = fmt.Errorf("%s circuit open", ne.name)
			continue
		}

		out, err := ne.extractor.Extract(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var rateLimitErr *RateLimitError
		if errors.As(err, &rateLimitErr) {
			circuit.open(rateLimitErr.RetryAfter)
			log.Printf("FallbackExtractor.Extract: %s rate limited, circuit open for %s", ne.name, rateLimitErr.RetryAfter)
			if minRetryAfter == 0 || rateLimitErr.RetryAfter < minRetryAfter {
				minRetryAfter = rateLimitErr.RetryAfter
			}
			continue
		}

		allRateLimited = false
		log.Printf("FallbackExtractor.Extract: %s failed, trying next provider: %v", ne.name, err)
	}

	if allRateLimited {
		return nil, NewRateLimitError("all providers", lastErr, int(minRetryAfter.Seconds()))
	}
	return nil, fmt.Errorf("all extraction providers failed: %w", lastErr)
}
