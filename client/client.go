package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/capture/client/param"
	"github.com/adamwoolhether/capture/client/signer"
	"github.com/adamwoolhether/capture/client/throttle"
)

// Version is the library version reported in the default User-Agent.
const Version = "0.3.0"

// DefaultUserAgent is sent when [WithUserAgent] is not used.
const DefaultUserAgent = "capture-go/" + Version

const redacted = "REDACTED"

// Client calls the Capture API. Configuration is fixed at [Build] time, so a
// Client is safe for concurrent use.
type Client struct {
	c        *http.Client
	logger   *slog.Logger
	tracer   trace.Tracer
	signer   *signer.Signer
	apiURL   string
	defaults param.Params
	sign     bool
	compress bool
}

// Build returns a Client for the API at baseURL. A baseURL without an
// http:// or https:// prefix is assumed to be https.
func Build(baseURL string, optFns ...Option) (*Client, error) {
	apiURL, err := normalizeURL(baseURL)
	if err != nil {
		return nil, err
	}

	opts := options{
		connectTimeout: defaultConnectTimeout,
		readTimeout:    defaultReadTimeout,
		userAgent:      DefaultUserAgent,
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	defaults, err := param.From(opts.defaults)
	if err != nil {
		return nil, fmt.Errorf("%w: default parameters: %w", ErrInvalidConfig, err)
	}
	if opts.credentials != nil {
		if err := opts.credentials.Validate(); err != nil {
			return nil, fmt.Errorf("%w: credentials: %w", ErrInvalidConfig, err)
		}
		for k, v := range opts.credentials.params() {
			defaults[k] = param.String(v)
		}
	}

	client := &Client{
		c:        &http.Client{},
		logger:   slog.Default(),
		tracer:   noop.NewTracerProvider().Tracer("no-op tracer"),
		signer:   signer.New(opts.clock),
		apiURL:   apiURL,
		defaults: defaults,
		sign:     !opts.unsigned,
		compress: !opts.uncompressed,
	}

	if opts.client != nil {
		hc := *opts.client
		client.c = &hc
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.DialContext = dialer(opts.connectTimeout).DialContext
		base.ResponseHeaderTimeout = opts.readTimeout
		transport = base
	}
	transport = userAgent{value: opts.userAgent, base: transport}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(*opts.throttle, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.c.Transport = transport

	return client, nil
}

// URL returns the absolute API base URL requests are sent to.
func (c *Client) URL() string {
	return c.apiURL
}

// Call POSTs params to the API endpoint at path and returns the decoded
// response envelope.
//
// Call-specific params override the client's defaults; a nil value leaves the
// default in place. Errors are one of:
//
//   - [ErrInvalidConfig] when the request cannot be signed
//   - [param.ErrUnsupportedType] when a parameter cannot be encoded
//   - *[APIError] when the API answered with stat "error"
//   - *[UnexpectedStatusError] for HTTP failures and malformed bodies
//   - transport errors from [http.Client.Do] as-is, wrapped
func (c *Client) Call(ctx context.Context, path string, params map[string]any, opts ...CallOption) (Response, error) {
	var settings callOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return nil, err
		}
	}

	if path == "" {
		return nil, ErrEmptyPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	endpoint := c.apiURL + path

	callParams, err := param.From(params)
	if err != nil {
		return nil, fmt.Errorf("encoding parameters: %w", err)
	}

	ctx, span := c.tracer.Start(ctx, "capture.call", trace.WithAttributes(attribute.String("capture.path", path)))
	defer span.End()

	traceID := span.SpanContext().TraceID().String()
	if !span.SpanContext().TraceID().IsValid() {
		traceID = uuid.New().String()
	}

	resp, err := c.call(ctx, path, endpoint, traceID, param.Merge(c.defaults, callParams), settings)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return resp, nil
}

func (c *Client) call(ctx context.Context, path, endpoint, traceID string, params param.Params, settings callOpts) (Response, error) {
	body := params.Encode()
	header := make(http.Header)

	if c.sign {
		signed, err := c.signer.Sign(path, body)
		if err != nil {
			return nil, fmt.Errorf("%w: signing %s: %w", ErrInvalidConfig, path, err)
		}
		header = signed.Header
		body = signed.Params
	}

	c.logger.DebugContext(ctx, "capture call", "trace_id", traceID, "url", endpoint)
	c.logger.DebugContext(ctx, "capture params", "trace_id", traceID, "params", redact(body))

	if settings.timeout != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *settings.timeout)
		defer cancel()
	}

	form := make(url.Values, len(body))
	for k, v := range body {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.compress {
		req.Header.Set("Accept-Encoding", "gzip")
	} else {
		req.Header.Set("Accept-Encoding", "identity")
	}

	status, raw, err := c.exec(req)
	if err != nil {
		return nil, err
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", status))

	resp, err := classify(status, raw, settings.useJSONNum)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.logger.DebugContext(ctx, "capture api error", "trace_id", traceID, "response", apiErr.Response)
		}
		return nil, err
	}

	if settings.responseBody != nil {
		if err := json.Unmarshal(raw, settings.responseBody); err != nil {
			return nil, fmt.Errorf("decoding body: %w", err)
		}
	}

	return resp, nil
}

// exec runs the request and returns the status code and the decoded body.
func (c *Client) exec(req *http.Request) (int, []byte, error) {
	resp, err := c.c.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("exec http do: %w", err)
	}
	defer func() {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			c.logger.Error("failed to discard unused body", "error", err)
		}
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	var r io.Reader = resp.Body
	if c.compress && strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return 0, nil, fmt.Errorf("opening gzip body: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return 0, nil, fmt.Errorf("reading body: %w", err)
	}

	return resp.StatusCode, b, nil
}

// classify turns a raw response into an envelope or a typed error.
func classify(status int, body []byte, useJSONNum bool) (Response, error) {
	env, ok := parseEnvelope(body, useJSONNum)
	if !ok {
		if status >= http.StatusBadRequest {
			return nil, newStatusError(status, body, ErrUnexpectedStatusCode)
		}
		return nil, newStatusError(status, body, ErrMalformedResponse)
	}

	if env.Stat() == StatError {
		return nil, newAPIError(status, env)
	}

	if !acceptedStatus(status) {
		return nil, newStatusError(status, body, ErrUnexpectedStatusCode)
	}

	return env, nil
}

// parseEnvelope reports whether body is a single JSON object carrying a
// valid stat field.
func parseEnvelope(body []byte, useJSONNum bool) (Response, bool) {
	d := json.NewDecoder(bytes.NewReader(body))
	if useJSONNum {
		d.UseNumber()
	}

	var env Response
	if err := d.Decode(&env); err != nil || env == nil {
		return nil, false
	}
	if _, err := d.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}

	switch env.Stat() {
	case StatOK, StatError:
		return env, true
	default:
		return nil, false
	}
}

// acceptedStatus reports whether status may carry a successful envelope:
// any 2xx, plus the 400 and 401 the token endpoint answers with regular
// envelopes.
func acceptedStatus(status int) bool {
	switch {
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		return true
	case status == http.StatusBadRequest, status == http.StatusUnauthorized:
		return true
	default:
		return false
	}
}

func normalizeURL(baseURL string) (string, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return "", fmt.Errorf("%w: base url must not be empty", ErrInvalidConfig)
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: parsing base url: %w", ErrInvalidConfig, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: base url %q has no host", ErrInvalidConfig, baseURL)
	}

	return baseURL, nil
}

func redact(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		switch k {
		case signer.ParamClientSecret, signer.ParamAccessToken:
			out[k] = redacted
		default:
			out[k] = v
		}
	}
	return out
}
