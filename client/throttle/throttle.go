package throttle

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines the throttler's requests per second and burst rate.
type Config struct {
	RPS   int
	Burst int
	// PerPath keeps one bucket per request URL path instead of a single
	// bucket shared by all calls.
	PerPath bool
}

// throttle is an http.RoundTripper, using the time/rate token
// bucket limiter to restrict outbound calls.
type throttle struct {
	cfg    Config
	shared *rate.Limiter
	next   http.RoundTripper
	logFn  func() *slog.Logger

	mu     sync.Mutex
	byPath map[string]*rate.Limiter
}

// NewRoundTripper returns an http.RoundTripper that throttles outbound requests.
// logFn lazily resolves the logger at request time, making option ordering
// irrelevant. A nil-returning logFn disables wait logging.
func NewRoundTripper(cfg Config, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if cfg.RPS <= 0 || cfg.Burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", cfg.RPS, cfg.Burst, ErrMustNotBeZero)
	}
	if next == nil {
		next = http.DefaultTransport
	}
	if logFn == nil {
		logFn = func() *slog.Logger { return nil }
	}

	t := &throttle{
		cfg:   cfg,
		next:  next,
		logFn: logFn,
	}
	if cfg.PerPath {
		t.byPath = make(map[string]*rate.Limiter)
	} else {
		t.shared = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
	}

	return t, nil
}

// limiter returns the bucket for path, creating it on first use.
func (t *throttle) limiter(path string) *rate.Limiter {
	if !t.cfg.PerPath {
		return t.shared
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.byPath[path]
	if !ok {
		l = rate.NewLimiter(rate.Limit(t.cfg.RPS), t.cfg.Burst)
		t.byPath[path] = l
	}
	return l
}

func (t *throttle) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	limiter := t.limiter(r.URL.Path)

	// Reserve a token and only log when the caller actually has to wait.
	res := limiter.Reserve()
	if !res.OK() {
		return nil, fmt.Errorf("%w: burst %d exceeded", ErrWaitingFailed, t.cfg.Burst)
	}

	delay := res.Delay()
	if delay == 0 {
		return t.next.RoundTrip(r)
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
		res.Cancel()
		return nil, fmt.Errorf("%w: wait of %s would exceed context deadline", ErrWaitingFailed, delay)
	}

	logger := t.logFn()
	if logger != nil {
		logger.Info("throttle tokens exhausted", "rate", t.cfg.RPS, "burst", t.cfg.Burst, "path", r.URL.Path, "wait", delay.String())
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		res.Cancel()
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, ctx.Err())
	}

	if logger != nil {
		logger.Info("throttle wait complete", "waited", delay.String(), "path", r.URL.Path)
	}

	return t.next.RoundTrip(r)
}
