// Package config resolves Capture API credentials and endpoints from a YAML
// configuration file, environment variables and explicit values.
//
// The file lives at $JANRAIN_CONFIG, ~/.janrain-capture or the deprecated
// ~/.apidrc, in that order, and looks like:
//
//	defaults:
//	  default_client: demo
//	clusters:
//	  dev:
//	    apid_uri: https://dev.example.com
//	    client_id: ...
//	    client_secret: ...
//	clients:
//	  demo:
//	    apid_uri: https://demo.example.com
//	    client_id: ...
//	    client_secret: ...
//	  on-dev:
//	    cluster: dev
//
// A client naming a cluster inherits the cluster's settings for every field
// it leaves empty.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/adamwoolhether/capture/client"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "JANRAIN_CONFIG"

const (
	fileName           = ".janrain-capture"
	deprecatedFileName = ".apidrc"
)

// ErrNotFound is returned when a client, cluster or path is missing from the file.
var ErrNotFound = errors.New("not found in config file")

// Settings are the resolved values needed to build a [client.Client].
type Settings struct {
	BaseURL            string `json:"apid_uri" mapstructure:"apid_uri" validate:"required"`
	client.Credentials `mapstructure:",squash"`
	Cluster            string `json:"cluster,omitempty" mapstructure:"cluster"`
}

// Validate reports a [client.FieldErrors] when s is unusable.
func (s Settings) Validate() error {
	return client.Validate(s)
}

// merge fills the fields s leaves empty from base.
func (s Settings) merge(base Settings) Settings {
	if s.BaseURL == "" {
		s.BaseURL = base.BaseURL
	}
	if s.ClientID == "" {
		s.ClientID = base.ClientID
	}
	if s.ClientSecret == "" {
		s.ClientSecret = base.ClientSecret
	}
	if s.AccessToken == "" {
		s.AccessToken = base.AccessToken
	}
	return s
}

// File is a parsed configuration file.
type File struct {
	v    *viper.Viper
	path string
}

// Path returns the configuration file to use: $JANRAIN_CONFIG when set,
// otherwise ~/.janrain-capture, falling back to ~/.apidrc when only the
// latter exists.
func Path() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}

	primary := filepath.Join(home, fileName)
	if _, err := os.Stat(primary); err == nil {
		return primary, nil
	}

	deprecated := filepath.Join(home, deprecatedFileName)
	if _, err := os.Stat(deprecated); err == nil {
		return deprecated, nil
	}

	return primary, nil
}

// Load parses the YAML file at path. An empty path uses [Path].
func Load(path string) (*File, error) {
	if path == "" {
		var err error
		if path, err = Path(); err != nil {
			return nil, fmt.Errorf("%w: %w", client.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading config file %s: %w", client.ErrInvalidConfig, path, err)
	}

	return &File{v: v, path: path}, nil
}

// Path returns the location the file was read from.
func (f *File) Path() string {
	return f.path
}

// Section returns the raw mapping at a dotted path such as "clients.demo".
func (f *File) Section(path string) (map[string]any, error) {
	if !f.v.IsSet(path) {
		return nil, fmt.Errorf("%q: %w", path, ErrNotFound)
	}

	section, ok := f.v.Get(path).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%q is not a mapping: %w", path, ErrNotFound)
	}

	return section, nil
}

// Settings decodes the settings at a dotted path, merging the referenced cluster
// when the entry has a cluster key.
func (f *File) Settings(path string) (Settings, error) {
	if _, err := f.Section(path); err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := f.v.UnmarshalKey(path, &s); err != nil {
		return Settings{}, fmt.Errorf("decoding %q: %w", path, err)
	}

	if s.Cluster != "" {
		cluster, err := f.Cluster(s.Cluster)
		if err != nil {
			return Settings{}, fmt.Errorf("resolving %q: %w", path, err)
		}
		s = s.merge(cluster)
	}

	return s, nil
}

// Client returns the settings of the named client.
func (f *File) Client(name string) (Settings, error) {
	s, err := f.Settings("clients." + name)
	if err != nil {
		return Settings{}, fmt.Errorf("client %q: %w", name, err)
	}
	return s, nil
}

// Cluster returns the settings of the named cluster.
func (f *File) Cluster(name string) (Settings, error) {
	path := "clusters." + name
	if _, err := f.Section(path); err != nil {
		return Settings{}, fmt.Errorf("cluster %q: %w", name, err)
	}

	var s Settings
	if err := f.v.UnmarshalKey(path, &s); err != nil {
		return Settings{}, fmt.Errorf("decoding cluster %q: %w", name, err)
	}
	return s, nil
}

// DefaultClient returns the client named by defaults.default_client.
func (f *File) DefaultClient() (Settings, error) {
	name := f.v.GetString("defaults.default_client")
	if name == "" {
		return Settings{}, fmt.Errorf("defaults.default_client: %w", ErrNotFound)
	}
	return f.Client(name)
}
