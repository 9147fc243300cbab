package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistify/internal/shared"
)

const (
	defaultMaxRetries        = 3
	defaultInitialDelay      = time.Second
	defaultMaxRateLimitWaits = 10
)

// Doer sends a single HTTP request. [*http.Client] satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Retrier wraps a [Doer] with exponential backoff.
//
// HTTP 429 responses are waited out using the Retry-After header (or the current backoff when absent) and do not
// consume an attempt; they are capped separately by MaxRateLimitWaits. Transport failures consume an attempt.
// Every other response, including 5xx, is returned to the caller untouched.
type Retrier struct {
	client            Doer
	maxRetries        int
	initialDelay      time.Duration
	maxRateLimitWaits int
	sleep             Sleeper
	logger            *log.Logger
}

// NewRetrier creates a [Retrier] from the retry section of the config. Zero values fall back to defaults.
func NewRetrier(client Doer, cfg shared.RetryConfig, logger *log.Logger) *Retrier {
	r := &Retrier{
		client:            client,
		maxRetries:        cfg.MaxRetries,
		initialDelay:      cfg.InitialDelay.Duration,
		maxRateLimitWaits: cfg.MaxRateLimitWaits,
		sleep:             SleepWithContext,
		logger:            logger,
	}
	if r.client == nil {
		r.client = http.DefaultClient
	}
	if r.maxRetries <= 0 {
		r.maxRetries = defaultMaxRetries
	}
	if r.initialDelay <= 0 {
		r.initialDelay = defaultInitialDelay
	}
	if r.maxRateLimitWaits <= 0 {
		r.maxRateLimitWaits = defaultMaxRateLimitWaits
	}
	if r.logger == nil {
		r.logger = shared.NewLogger(io.Discard)
	}
	return r
}

// WithSleeper replaces the wait function, used by tests to record backoff durations.
func (r *Retrier) WithSleeper(s Sleeper) *Retrier {
	r.sleep = s
	return r
}

// HTTPClient returns an [http.Client] whose requests go through r, for libraries that take a plain client.
func (r *Retrier) HTTPClient() *http.Client {
	return &http.Client{Transport: retryTransport{retrier: r}}
}

// retryTransport adapts a [Retrier] to [http.RoundTripper].
type retryTransport struct {
	retrier *Retrier
}

func (t retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.retrier.Do(req.Clone(req.Context()))
}

// Do sends req until it yields a non-429 response or the attempts run out.
//
// After the last failed attempt it returns a [*shared.RequestFailedError] wrapping the last transport error.
func (r *Retrier) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		_ = req.Body.Close()
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(bodyBytes)), nil
		}
	}

	ctx := req.Context()
	delay := r.initialDelay
	waits := 0
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("reset request body: %w", err)
			}
			req.Body = body
		}

		resp, err := r.client.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			lastErr = err
			attempt++
			r.logger.Warn("request failed", "method", req.Method, "path", req.URL.Path, "attempt", attempt, "max", r.maxRetries, "error", err)
			if attempt == r.maxRetries {
				break
			}
			if err := r.sleep(ctx, delay); err != nil {
				return nil, err
			}
			delay *= 2
			continue
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		wait := parseRetryAfter(resp)
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		waits++
		if waits > r.maxRateLimitWaits {
			return nil, &shared.RequestFailedError{
				Attempts: attempt + waits,
				Err:      &shared.APIError{Status: http.StatusTooManyRequests, Message: "rate limit waits exhausted"},
			}
		}
		if wait <= 0 {
			wait = delay
		}

		r.logger.Warn("rate limited", "method", req.Method, "path", req.URL.Path, "wait", wait, "waits", waits)
		if err := r.sleep(ctx, wait); err != nil {
			return nil, err
		}
		delay *= 2
	}

	if lastErr == nil {
		lastErr = errors.New("no attempts made")
	}
	return nil, &shared.RequestFailedError{Attempts: r.maxRetries, Err: lastErr}
}

// parseRetryAfter reads Retry-After as whole seconds or an HTTP date.
func parseRetryAfter(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if when, err := http.ParseTime(retryAfter); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}

	return 0
}

// SleepWithContext waits for delay or until ctx is done.
func SleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
