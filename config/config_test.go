package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/capture/client"
	"github.com/adamwoolhether/capture/config"
)

const testConfig = `
defaults:
  default_client: demo
clusters:
  dev:
    apid_uri: https://dev.example.com
    client_id: dev-id
    client_secret: dev-secret
clients:
  demo:
    apid_uri: https://demo.example.com
    client_id: demo-id
    client_secret: demo-secret
  cluster-client:
    cluster: dev
  override-client:
    cluster: dev
    client_id: own-id
    client_secret: own-secret
  oauth:
    apid_uri: https://oauth.example.com
    access_token: tok
  broken:
    cluster: missing
some:
  arbitrary:
    path:
      foo: bar
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "janrain-config")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	return path
}

func loadConfig(t *testing.T) *config.File {
	t.Helper()

	f, err := config.Load(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	return f
}

func TestFile_Client(t *testing.T) {
	f := loadConfig(t)

	testCases := []struct {
		name string
		exp  config.Settings
	}{
		{
			name: "demo",
			exp: config.Settings{
				BaseURL:     "https://demo.example.com",
				Credentials: client.Credentials{ClientID: "demo-id", ClientSecret: "demo-secret"},
			},
		},
		{
			name: "cluster-client",
			exp: config.Settings{
				BaseURL:     "https://dev.example.com",
				Credentials: client.Credentials{ClientID: "dev-id", ClientSecret: "dev-secret"},
				Cluster:     "dev",
			},
		},
		{
			name: "override-client",
			exp: config.Settings{
				BaseURL:     "https://dev.example.com",
				Credentials: client.Credentials{ClientID: "own-id", ClientSecret: "own-secret"},
				Cluster:     "dev",
			},
		},
		{
			name: "oauth",
			exp: config.Settings{
				BaseURL:     "https://oauth.example.com",
				Credentials: client.Credentials{AccessToken: "tok"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.Client(tc.name)
			if err != nil {
				t.Fatalf("client %q: %v", tc.name, err)
			}

			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("settings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFile_NotFound(t *testing.T) {
	f := loadConfig(t)

	if _, err := f.Client("nope"); !errors.Is(err, config.ErrNotFound) {
		t.Errorf("exp ErrNotFound for unknown client, got: %v", err)
	}
	if _, err := f.Cluster("nope"); !errors.Is(err, config.ErrNotFound) {
		t.Errorf("exp ErrNotFound for unknown cluster, got: %v", err)
	}
	if _, err := f.Client("broken"); !errors.Is(err, config.ErrNotFound) {
		t.Errorf("exp ErrNotFound for missing referenced cluster, got: %v", err)
	}
	if _, err := f.Section("foo.bar"); !errors.Is(err, config.ErrNotFound) {
		t.Errorf("exp ErrNotFound for unknown path, got: %v", err)
	}
}

func TestFile_Section(t *testing.T) {
	f := loadConfig(t)

	got, err := f.Section("some.arbitrary.path")
	if err != nil {
		t.Fatalf("section: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("exp foo=bar, got %v", got)
	}
}

func TestFile_SettingsDottedPath(t *testing.T) {
	f := loadConfig(t)

	got, err := f.Settings("clusters.dev")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}

	exp := config.Settings{
		BaseURL:     "https://dev.example.com",
		Credentials: client.Credentials{ClientID: "dev-id", ClientSecret: "dev-secret"},
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestFile_DefaultClient(t *testing.T) {
	f := loadConfig(t)

	got, err := f.DefaultClient()
	if err != nil {
		t.Fatalf("default client: %v", err)
	}

	if got.ClientID != "demo-id" || got.BaseURL != "https://demo.example.com" {
		t.Errorf("unexpected default client: %+v", got)
	}
}

func TestLoad_EnvPath(t *testing.T) {
	path := writeConfig(t, testConfig)
	t.Setenv(config.EnvConfigPath, path)

	got, err := config.Path()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if got != path {
		t.Errorf("exp %s, got %s", path, got)
	}

	f, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Path() != path {
		t.Errorf("exp file read from %s, got %s", path, f.Path())
	}
}

func TestPath_DeprecatedFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvConfigPath, "")

	deprecated := filepath.Join(home, ".apidrc")
	if err := os.WriteFile(deprecated, []byte(testConfig), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := config.Path()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if got != deprecated {
		t.Errorf("exp %s, got %s", deprecated, got)
	}

	primary := filepath.Join(home, ".janrain-capture")
	if err := os.WriteFile(primary, []byte(testConfig), 0o600); err != nil {
		t.Fatal(err)
	}

	if got, _ = config.Path(); got != primary {
		t.Errorf("exp %s to take precedence, got %s", primary, got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, client.ErrInvalidConfig) {
		t.Errorf("exp ErrInvalidConfig, got: %v", err)
	}
}
