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

func clearEnv(t *testing.T) {
	t.Helper()

	for _, k := range []string{"CAPTURE_CLIENT_ID", "CAPTURE_CLIENT_SECRET", "CAPTURE_ACCESS_TOKEN", "CAPTURE_APID_URI"} {
		t.Setenv(k, "")
	}
}

func TestResolve_Order(t *testing.T) {
	path := writeConfig(t, testConfig)

	testCases := []struct {
		name string
		src  config.Sources
		env  map[string]string
		exp  config.Settings
	}{
		{
			name: "explicit id and secret beat everything",
			src:  config.Sources{ClientID: "flag-id", ClientSecret: "flag-secret", BaseURL: "flag.example.com", DefaultClient: true, ConfigPath: path},
			env:  map[string]string{"CAPTURE_CLIENT_ID": "env-id", "CAPTURE_CLIENT_SECRET": "env-secret"},
			exp:  config.Settings{BaseURL: "flag.example.com", Credentials: client.Credentials{ClientID: "flag-id", ClientSecret: "flag-secret"}},
		},
		{
			name: "explicit access token",
			src:  config.Sources{AccessToken: "flag-token", BaseURL: "flag.example.com"},
			exp:  config.Settings{BaseURL: "flag.example.com", Credentials: client.Credentials{AccessToken: "flag-token"}},
		},
		{
			name: "config key",
			src:  config.Sources{ConfigKey: "clients.cluster-client", DefaultClient: true, ConfigPath: path},
			exp:  config.Settings{BaseURL: "https://dev.example.com", Credentials: client.Credentials{ClientID: "dev-id", ClientSecret: "dev-secret"}, Cluster: "dev"},
		},
		{
			name: "default client with explicit base url",
			src:  config.Sources{DefaultClient: true, ConfigPath: path, BaseURL: "other.example.com"},
			exp:  config.Settings{BaseURL: "other.example.com", Credentials: client.Credentials{ClientID: "demo-id", ClientSecret: "demo-secret"}},
		},
		{
			name: "environment id and secret",
			env:  map[string]string{"CAPTURE_CLIENT_ID": "env-id", "CAPTURE_CLIENT_SECRET": "env-secret", "CAPTURE_APID_URI": "env.example.com", "CAPTURE_ACCESS_TOKEN": "env-token"},
			exp:  config.Settings{BaseURL: "env.example.com", Credentials: client.Credentials{ClientID: "env-id", ClientSecret: "env-secret"}},
		},
		{
			name: "environment access token",
			env:  map[string]string{"CAPTURE_ACCESS_TOKEN": "env-token", "CAPTURE_APID_URI": "env.example.com"},
			exp:  config.Settings{BaseURL: "env.example.com", Credentials: client.Credentials{AccessToken: "env-token"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			got, err := config.Resolve(tc.src)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}

			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("settings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	path := writeConfig(t, testConfig)

	testCases := []struct {
		name string
		src  config.Sources
		env  map[string]string
	}{
		{name: "nothing"},
		{name: "id without secret", src: config.Sources{ClientID: "id", BaseURL: "x.example.com"}},
		{name: "no base url", src: config.Sources{ClientID: "id", ClientSecret: "secret"}},
		{name: "unknown config key", src: config.Sources{ConfigKey: "clients.nope", ConfigPath: path}},
		{name: "missing config file", src: config.Sources{DefaultClient: true, ConfigPath: filepath.Join(t.TempDir(), "missing")}},
		{name: "env secret only", env: map[string]string{"CAPTURE_CLIENT_SECRET": "secret", "CAPTURE_APID_URI": "env.example.com"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			if _, err := config.Resolve(tc.src); !errors.Is(err, client.ErrInvalidConfig) {
				t.Errorf("exp ErrInvalidConfig, got: %v", err)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("CAPTURE_CLIENT_ID")
	os.Unsetenv("CAPTURE_CLIENT_SECRET")
	os.Unsetenv("CAPTURE_APID_URI")

	dotenv := filepath.Join(t.TempDir(), ".env")
	body := "CAPTURE_CLIENT_ID=dot-id\nCAPTURE_CLIENT_SECRET=dot-secret\nCAPTURE_APID_URI=dot.example.com\n"
	if err := os.WriteFile(dotenv, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := config.LoadEnv(filepath.Join(t.TempDir(), "missing.env"), dotenv); err != nil {
		t.Fatalf("load env: %v", err)
	}

	got, err := config.Resolve(config.Sources{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	exp := config.Settings{BaseURL: "dot.example.com", Credentials: client.Credentials{ClientID: "dot-id", ClientSecret: "dot-secret"}}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}
