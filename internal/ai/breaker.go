package ai

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

type BreakerOptions struct {
	MaxFailures uint32
	OpenTimeout time.Duration
	CallTimeout time.Duration
}

func newBreaker(name string, opts BreakerOptions) *gobreaker.CircuitBreaker {
	maxFailures := opts.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	})
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

type breakerGenerator struct {
	next    IGenerator
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// WithGeneratorBreaker guards a generator with a circuit breaker and a per-call timeout.
// An open circuit surfaces as gobreaker.ErrOpenState.
func WithGeneratorBreaker(name string, next IGenerator, opts BreakerOptions) IGenerator {
	return &breakerGenerator{next: next, cb: newBreaker(name, opts), timeout: opts.CallTimeout}
}

func (b *breakerGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		callCtx, cancel := withTimeout(ctx, b.timeout)
		defer cancel()
		return b.next.Generate(callCtx, prompt)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

type breakerClassifier struct {
	next    IClassifier
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

func WithClassifierBreaker(next IClassifier, opts BreakerOptions) IClassifier {
	return &breakerClassifier{next: next, cb: newBreaker(next.Name(), opts), timeout: opts.CallTimeout}
}

func (b *breakerClassifier) Name() string {
	return b.next.Name()
}

func (b *breakerClassifier) Classify(ctx context.Context, text string) (*Classification, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		callCtx, cancel := withTimeout(ctx, b.timeout)
		defer cancel()
		return b.next.Classify(callCtx, text)
	})
	if err != nil {
		return nil, err
	}
	return res.(*Classification), nil
}
