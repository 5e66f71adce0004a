// Package throttle provides an [http.RoundTripper] that rate-limits
// outbound API calls using a token-bucket algorithm from
// [golang.org/x/time/rate].
//
// # Usage
//
// Wrap an existing transport with [NewRoundTripper]:
//
//	rt, err := throttle.NewRoundTripper(
//		throttle.Config{RPS: 10, Burst: 5, PerPath: true},
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//	httpClient := &http.Client{Transport: rt}
//
// With PerPath set every API endpoint (request URL path) gets its own
// bucket, so a burst of entity.find calls does not starve entity.update.
//
// When the rate limit is exceeded, outbound requests block until a
// token becomes available or the request context is cancelled. Nothing
// is retried.
package throttle
