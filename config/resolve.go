package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/adamwoolhether/capture/client"
)

// Environment variables consulted by [Resolve], without the CAPTURE_ prefix.
const (
	envPrefix       = "CAPTURE"
	envClientID     = "client_id"
	envClientSecret = "client_secret"
	envAccessToken  = "access_token"
	envBaseURL      = "apid_uri"
)

// Sources are the places credentials may come from, in the order [Resolve]
// consults them.
type Sources struct {
	// Explicit values, typically command line flags.
	BaseURL      string
	ClientID     string
	ClientSecret string
	AccessToken  string

	// ConfigKey is a dotted path into the config file, e.g. "clients.demo".
	ConfigKey string
	// DefaultClient selects defaults.default_client from the config file.
	DefaultClient bool
	// ConfigPath overrides [Path].
	ConfigPath string
}

// LoadEnv loads KEY=value pairs from the given dotenv files into the process
// environment. Missing files are ignored and existing variables win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Resolve picks the first complete set of credentials from:
//
//  1. an explicit client id and secret
//  2. an explicit access token
//  3. the config file entry at ConfigKey
//  4. the config file's default client
//  5. CAPTURE_CLIENT_ID and CAPTURE_CLIENT_SECRET
//  6. CAPTURE_ACCESS_TOKEN
//
// The base URL is the explicit value, else the one stored with the
// credentials, else CAPTURE_APID_URI. Failures wrap [client.ErrInvalidConfig].
func Resolve(src Sources) (Settings, error) {
	env := viper.New()
	env.SetEnvPrefix(envPrefix)
	env.AutomaticEnv()

	var s Settings
	switch {
	case src.ClientID != "" && src.ClientSecret != "":
		s.ClientID, s.ClientSecret = src.ClientID, src.ClientSecret

	case src.AccessToken != "":
		s.AccessToken = src.AccessToken

	case src.ConfigKey != "":
		f, err := Load(src.ConfigPath)
		if err != nil {
			return Settings{}, err
		}
		if s, err = f.Settings(src.ConfigKey); err != nil {
			return Settings{}, fmt.Errorf("%w: %w", client.ErrInvalidConfig, err)
		}

	case src.DefaultClient:
		f, err := Load(src.ConfigPath)
		if err != nil {
			return Settings{}, err
		}
		if s, err = f.DefaultClient(); err != nil {
			return Settings{}, fmt.Errorf("%w: %w", client.ErrInvalidConfig, err)
		}

	case env.GetString(envClientID) != "" && env.GetString(envClientSecret) != "":
		s.ClientID, s.ClientSecret = env.GetString(envClientID), env.GetString(envClientSecret)

	case env.GetString(envAccessToken) != "":
		s.AccessToken = env.GetString(envAccessToken)

	default:
		return Settings{}, fmt.Errorf("%w: no credentials specified to authenticate with the Capture API", client.ErrInvalidConfig)
	}

	switch {
	case src.BaseURL != "":
		s.BaseURL = src.BaseURL
	case s.BaseURL != "":
	case env.GetString(envBaseURL) != "":
		s.BaseURL = env.GetString(envBaseURL)
	default:
		return Settings{}, fmt.Errorf("%w: no URL specified for the Capture API", client.ErrInvalidConfig)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", client.ErrInvalidConfig, err)
	}

	return s, nil
}
