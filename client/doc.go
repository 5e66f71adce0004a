// Package client implements a caller for the Capture JSON/HTTP API built on
// [net/http].
//
// # Building a Client
//
// Use [Build] with the API base URL and functional options:
//
//	c, err := client.Build("myapp.us.janraincapture.com",
//		client.WithCredentials(client.Credentials{
//			ClientID:     "...",
//			ClientSecret: "...",
//		}),
//		client.WithReadTimeout(5*time.Second),
//	)
//
// A base URL without a protocol is assumed to be https. Credentials are
// folded into the default parameters and consumed by the
// [github.com/adamwoolhether/capture/client/signer] package, so they are never
// sent as form fields.
//
// # Making Calls
//
// [Client.Call] POSTs form-encoded parameters to an endpoint and returns the
// decoded response envelope:
//
//	resp, err := c.Call(ctx, "entity.count", map[string]any{
//		"type_name": "user",
//	})
//
// Parameter values are encoded by the
// [github.com/adamwoolhether/capture/client/param] package: lists and maps as
// JSON, booleans as "true"/"false", nil values dropped.
//
// # Errors
//
// Errors are distinguishable by kind:
//
//	var apiErr *client.APIError
//	var statusErr *client.UnexpectedStatusError
//	switch {
//	case errors.Is(err, client.ErrInvalidConfig):
//		// bad base URL or credentials, nothing was sent
//	case errors.As(err, &apiErr):
//		// the API answered stat "error"; see apiErr.Code and apiErr.Name
//	case errors.As(err, &statusErr):
//		// HTTP failure or a body that is not a stat envelope
//	}
//
// The 400 and 401 statuses of the OAuth token endpoint are treated as regular
// responses. Calls are never retried.
package client
