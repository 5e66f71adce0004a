// Package cli implements the capture-api command.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/adamwoolhether/capture/client"
	"github.com/adamwoolhether/capture/config"
	"github.com/adamwoolhether/capture/internal/logger"
)

type flags struct {
	baseURL       string
	clientID      string
	clientSecret  string
	accessToken   string
	configKey     string
	defaultClient bool
	configPath    string
	params        []string
	unsigned      bool
	debug         bool
	output        string
	timeout       time.Duration
}

// Execute runs the command with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewCommand(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(stderr, "API Error %d - %s\n", apiErr.Code, apiErr.Description)
		return 1
	}

	fmt.Fprintln(stderr, err)
	return 1
}

// NewCommand returns the root capture-api command. Results are written to
// stdout, logs to stderr.
func NewCommand(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "capture-api <api_call> [parameter=value ...]",
		Short: "Call the Capture API",
		Long: `Call a Capture API endpoint and print the JSON result.

Credentials are taken from the first source that provides them: --client-id
and --client-secret, --access-token, --config-key, --default-client, then the
CAPTURE_CLIENT_ID/CAPTURE_CLIENT_SECRET or CAPTURE_ACCESS_TOKEN environment
variables. The API URL comes from --apid-uri, the selected config entry or
CAPTURE_APID_URI.`,
		Example: `  capture-api /entity.count type_name=user
  capture-api -d entity -p type_name=user -p id=42`,
		Version:       client.Version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args[0], append(f.params, args[1:]...))
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("capture-api {{.Version}}\n")

	fs := cmd.Flags()
	fs.StringVarP(&f.baseURL, "apid-uri", "u", "", "full URI to the Capture API domain")
	fs.StringVarP(&f.clientID, "client-id", "i", "", "authenticate with a specific client_id")
	fs.StringVarP(&f.clientSecret, "client-secret", "s", "", "authenticate with a specific client_secret")
	fs.StringVarP(&f.accessToken, "access-token", "t", "", "authenticate with an OAuth access token")
	fs.StringVarP(&f.configKey, "config-key", "k", "", "authenticate using the credentials at a path in the config file (eg. clients.demo)")
	fs.BoolVarP(&f.defaultClient, "default-client", "d", false, "authenticate using the default client in the config file")
	fs.StringVar(&f.configPath, "config", "", "config file to read instead of $JANRAIN_CONFIG or ~/.janrain-capture")
	fs.StringArrayVarP(&f.params, "parameters", "p", nil, "parameter=value passed through to the API call (repeatable)")
	fs.BoolVarP(&f.unsigned, "disable-signed-requests", "x", false, "send credentials as parameters instead of signing the request")
	fs.BoolVarP(&f.debug, "debug", "b", false, "log debug messages to stderr")
	fs.StringVarP(&f.output, "output", "o", "json", "output format: json or yaml")
	fs.DurationVar(&f.timeout, "timeout", 0, "abort the call after this long (eg. 30s)")

	return cmd
}

func run(cmd *cobra.Command, f flags, apiCall string, rawParams []string) error {
	if f.output != "json" && f.output != "yaml" {
		return fmt.Errorf("unknown output format %q", f.output)
	}

	params, err := parseParams(rawParams)
	if err != nil {
		return err
	}

	if err := config.LoadEnv(".env"); err != nil {
		return err
	}

	settings, err := config.Resolve(config.Sources{
		BaseURL:       f.baseURL,
		ClientID:      f.clientID,
		ClientSecret:  f.clientSecret,
		AccessToken:   f.accessToken,
		ConfigKey:     f.configKey,
		DefaultClient: f.defaultClient,
		ConfigPath:    f.configPath,
	})
	if err != nil {
		return err
	}

	log, sync := logger.New(cmd.ErrOrStderr(), f.debug)
	defer sync()

	opts := []client.Option{
		client.WithCredentials(settings.Credentials),
		client.WithLogger(log),
		client.WithUserAgent("capture-api/" + client.Version),
	}
	if f.unsigned {
		opts = append(opts, client.WithoutSigning())
	}

	c, err := client.Build(settings.BaseURL, opts...)
	if err != nil {
		return err
	}

	callOpts := []client.CallOption{client.WithJSONNumber()}
	if f.timeout > 0 {
		callOpts = append(callOpts, client.WithCallTimeout(f.timeout))
	}

	resp, err := c.Call(cmd.Context(), apiCall, params, callOpts...)
	if err != nil {
		return err
	}

	return write(cmd.OutOrStdout(), f.output, resp)
}

// parseParams splits key=value arguments. Only the first '=' separates.
func parseParams(raw []string) (map[string]any, error) {
	params := make(map[string]any, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("parameter %q must look like key=value", kv)
		}
		params[k] = v
	}
	return params, nil
}

func write(w io.Writer, format string, resp client.Response) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plain(map[string]any(resp))); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()

	default:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	}
}

// plain replaces json.Number values so YAML renders them as numbers.
func plain(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = plain(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	default:
		return v
	}
}
