package discogs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/mmcdole/crate/internal/domain"
)

const (
	DefaultUserAgent      = "CrateSync/1.0"
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = 2 * time.Second
	defaultTimeout        = 30 * time.Second

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 100 << 20
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Getter fetches a URL and returns the response body.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// RequestError is a classified request failure. Kind is one of the domain
// sentinels (ErrNetwork, ErrRateLimited, ErrServer, ErrClient, ErrCancelled).
type RequestError struct {
	Kind       error
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%v: GET %s: status %d", e.Kind, e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%v: GET %s: %v", e.Kind, e.URL, e.Err)
	default:
		return fmt.Sprintf("%v: GET %s", e.Kind, e.URL)
	}
}

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Retryable reports whether another attempt may succeed.
func (e *RequestError) Retryable() bool {
	return e.Kind == domain.ErrNetwork || e.Kind == domain.ErrRateLimited || e.Kind == domain.ErrServer
}

// TransportOptions configures a Transport. Zero values select defaults,
// except MaxRetries where a negative value means no retries.
type TransportOptions struct {
	HTTPClient Doer
	UserAgent  string
	Token      string
	MaxRetries int
	BaseDelay  time.Duration
}

// Transport issues GET requests with classification and bounded retries.
type Transport struct {
	doer       Doer
	userAgent  string
	token      string
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewTransport creates a Transport.
func NewTransport(opts TransportOptions, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultRetryBaseDelay
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Transport{
		doer:       opts.HTTPClient,
		userAgent:  opts.UserAgent,
		token:      opts.Token,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		logger:     logger,
	}
}

// Get fetches reqURL. 429, 5xx and transport failures are retried with
// exponential backoff up to the retry budget; other 4xx fail immediately.
// Cancellation of ctx is honoured before every attempt and during every wait.
func (t *Transport) Get(ctx context.Context, reqURL string) ([]byte, error) {
	attempt := 0
	operation := func() ([]byte, error) {
		attempt++
		if err := ctx.Err(); err != nil {
			return nil, backoff.Permanent(cancelled(reqURL, err))
		}

		body, err := t.do(ctx, reqURL)
		if err == nil {
			return body, nil
		}

		var reqErr *RequestError
		if errors.As(err, &reqErr) && !reqErr.Retryable() {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(t.newBackOff()),
		backoff.WithMaxTries(uint(t.maxRetries+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			t.logger.Warn("retrying request", "url", reqURL, "attempt", attempt, "delay", next, "error", err)
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, cancelled(reqURL, ctxErr)
		}
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		t.logger.Error("request failed", "url", reqURL, "attempts", attempt, "error", err)
		return nil, err
	}
	return body, nil
}

func (t *Transport) newBackOff() *backoff.ExponentialBackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     t.baseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         t.baseDelay << t.maxRetries,
	}
}

// do performs a single attempt.
func (t *Transport) do(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &RequestError{Kind: domain.ErrClient, URL: reqURL, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	if t.token != "" {
		req.Header.Set("Authorization", "Discogs token="+t.token)
	}

	t.logger.Debug("discogs request", "url", reqURL)

	resp, err := t.doer.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, cancelled(reqURL, ctxErr)
		}
		return nil, &RequestError{Kind: domain.ErrNetwork, URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if remaining := resp.Header.Get("X-Discogs-Ratelimit-Remaining"); remaining != "" {
		t.logger.Debug("rate limit", "remaining", remaining, "status", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, cancelled(reqURL, ctxErr)
		}
		return nil, &RequestError{Kind: domain.ErrNetwork, URL: reqURL, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if kind := classifyStatus(resp.StatusCode); kind != nil {
		return nil, &RequestError{Kind: kind, URL: reqURL, StatusCode: resp.StatusCode}
	}
	return body, nil
}

// classifyStatus maps an HTTP status to an error kind, or nil for 2xx.
func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case code >= 500:
		return domain.ErrServer
	default:
		return domain.ErrClient
	}
}

func cancelled(reqURL string, cause error) *RequestError {
	return &RequestError{Kind: domain.ErrCancelled, URL: reqURL, Err: cause}
}
