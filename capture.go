// Package capture exposes client builders for the Janrain Capture API.
package capture

import (
	"fmt"

	"github.com/adamwoolhether/capture/client"
	"github.com/adamwoolhether/capture/config"
)

// Version of the client library.
const Version = client.Version

// NewClient instantiates a new *Client for the API at baseURL with the provided options.
func NewClient(baseURL string, opts ...client.Option) (*client.Client, error) {
	return client.Build(baseURL, opts...)
}

// FromSettings builds a client from resolved settings, typically the result
// of [config.Resolve] or an entry of a [config.File]. opts are applied after
// the settings' credentials.
func FromSettings(s config.Settings, opts ...client.Option) (*client.Client, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", client.ErrInvalidConfig, err)
	}

	return client.Build(s.BaseURL, append([]client.Option{client.WithCredentials(s.Credentials)}, opts...)...)
}
