package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/krishisakhi/sakhi-agent/internal/domain"
	"github.com/krishisakhi/sakhi-agent/internal/observability"
)

const (
	maxAttempts    = 3
	retryDelayUnit = 2 * time.Second
)

// Invoker calls the model with bounded retry under transient overload.
// The backoff is linear: the delay before attempt n+1 is n times the
// unit, so 2s then 4s across the three attempts. Non-overload failures
// abort immediately.
type Invoker struct {
	client      domain.ModelClient
	maxAttempts int
	delayUnit   time.Duration
	sleep       func(time.Duration)
}

func NewInvoker(client domain.ModelClient) *Invoker {
	return &Invoker{
		client:      client,
		maxAttempts: maxAttempts,
		delayUnit:   retryDelayUnit,
		sleep:       time.Sleep,
	}
}

// Invoke returns the model's reply text, or domain.ErrModelUnavailable
// once the retry budget is exhausted, so callers can show a "very busy"
// message instead of a generic failure. No timeout is imposed here; the
// transport owns connection-level deadlines.
func (i *Invoker) Invoke(ctx context.Context, req domain.ModelRequest) (string, error) {
	log := observability.LoggerFromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= i.maxAttempts; attempt++ {
		text, err := i.client.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		if !domain.IsOverload(err) {
			return "", err
		}

		lastErr = err
		log.Warn("model overloaded", "attempt", attempt, "error", err)

		if attempt < i.maxAttempts {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			i.sleep(time.Duration(attempt) * i.delayUnit)
		}
	}

	return "", fmt.Errorf("%w: %v", domain.ErrModelUnavailable, lastErr)
}
