package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/capture/client/throttle"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client         *http.Client
	rt             http.RoundTripper
	timeout        *time.Duration
	connectTimeout time.Duration
	readTimeout    time.Duration
	userAgent      string
	throttle       *throttle.Config
	logger         *slog.Logger
	tracer         trace.Tracer
	clock          func() time.Time
	credentials    *Credentials
	defaults       map[string]any
	unsigned       bool
	uncompressed   bool
}

// WithCredentials authenticates every call with creds. They are validated
// by [Build].
func WithCredentials(creds Credentials) Option {
	return func(c *options) error {
		c.credentials = &creds
		return nil
	}
}

// WithDefaults sets parameters sent with every call. Values must be
// supported by [param.Of]. The map is copied.
func WithDefaults(defaults map[string]any) Option {
	return func(c *options) error {
		c.defaults = make(map[string]any, len(defaults))
		for k, v := range defaults {
			c.defaults[k] = v
		}
		return nil
	}
}

// WithClient replaces the default [http.Client] used by the [Client].
// The given client is copied, not modified.
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
// Connect and read timeouts only apply to the default transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithConnectTimeout bounds how long dialing the API may take. Zero disables it.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("connect timeout must not be negative")
		}
		c.connectTimeout = d
		return nil
	}
}

// WithReadTimeout bounds how long to wait for response headers once the
// request is written. Zero disables it.
func WithReadTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("read timeout must not be negative")
		}
		c.readTimeout = d
		return nil
	}
}

// WithUserAgent overrides [DefaultUserAgent].
func WithUserAgent(header string) Option {
	return func(c *options) error {
		if header == "" {
			return errors.New("user agent must not be empty")
		}
		c.userAgent = header
		return nil
	}
}

// WithoutSigning sends parameters as-is, without Authorization headers.
func WithoutSigning() Option {
	return func(c *options) error {
		c.unsigned = true
		return nil
	}
}

// WithoutCompression stops the client from requesting gzip responses.
func WithoutCompression() Option {
	return func(c *options) error {
		c.uncompressed = true
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		c.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithPathThrottle is like [WithThrottle] but keeps a separate bucket per
// API endpoint.
func WithPathThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		c.throttle = &throttle.Config{RPS: rps, Burst: burst, PerPath: true}
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithTracer records a span for every call. A no-op tracer is used otherwise.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithClock sets the time source for request signatures.
func WithClock(now func() time.Time) Option {
	return func(c *options) error {
		c.clock = now
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

func dialer(timeout time.Duration) *net.Dialer {
	return &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}
}

// CallOption is a functional option for [Client.Call].
type CallOption func(options *callOpts) error

type callOpts struct {
	timeout      *time.Duration
	responseBody any
	useJSONNum   bool
}

// WithCallTimeout bounds the whole call, overriding client timeouts that are longer.
func WithCallTimeout(d time.Duration) CallOption {
	return func(opts *callOpts) error {
		if d <= 0 {
			return errors.New("call timeout must be positive")
		}
		opts.timeout = &d
		return nil
	}
}

// WithDestination additionally decodes a successful response body into
// bodyTemplate. bodyTemplate must be a pointer.
func WithDestination[T any](bodyTemplate *T) CallOption {
	return func(opts *callOpts) error {
		if bodyTemplate == nil {
			return errors.New("destination must not be nil")
		}
		opts.responseBody = bodyTemplate

		return nil
	}
}

// WithJSONNumber tells the JSON decoder to use [json.Decoder.UseNumber],
// preserving number precision as [json.Number] instead of float64.
func WithJSONNumber() CallOption {
	return func(opts *callOpts) error {
		opts.useJSONNum = true

		return nil
	}
}
