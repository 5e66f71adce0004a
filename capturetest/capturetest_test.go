package capturetest_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/adamwoolhether/capture/capturetest"
	"github.com/adamwoolhether/capture/client"
)

func TestServer_VerifiesSignature(t *testing.T) {
	creds := client.Credentials{ClientID: "id", ClientSecret: "secret"}

	srv := capturetest.NewServer(creds)
	t.Cleanup(srv.Close)
	srv.Handle("/entity", func(capturetest.Request) (int, any) {
		return http.StatusOK, capturetest.OK(nil)
	})

	testCases := []struct {
		name  string
		creds client.Credentials
		ok    bool
	}{
		{name: "matching secret", creds: creds, ok: true},
		{name: "wrong secret", creds: client.Credentials{ClientID: "id", ClientSecret: "other"}},
		{name: "wrong id", creds: client.Credentials{ClientID: "other", ClientSecret: "secret"}},
		{name: "oauth instead of signature", creds: client.Credentials{AccessToken: "secret"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := client.Build(srv.URL, client.WithCredentials(tc.creds))
			if err != nil {
				t.Fatalf("build: %v", err)
			}

			_, err = c.Call(context.Background(), "entity", map[string]any{"id": 1, "attributes": []any{"email"}})
			if tc.ok {
				if err != nil {
					t.Errorf("call: %v", err)
				}
				return
			}

			var apiErr *client.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != 402 || apiErr.StatusCode != http.StatusUnauthorized {
				t.Errorf("exp invalid_auth api error, got: %v", err)
			}
		})
	}
}

func TestServer_VerifiesToken(t *testing.T) {
	srv := capturetest.NewServer(client.Credentials{AccessToken: "tok"})
	t.Cleanup(srv.Close)
	srv.Handle("/entity", func(capturetest.Request) (int, any) {
		return http.StatusOK, capturetest.OK(nil)
	})

	good, _ := client.Build(srv.URL, client.WithCredentials(client.Credentials{AccessToken: "tok"}))
	if _, err := good.Call(context.Background(), "entity", nil); err != nil {
		t.Errorf("valid token rejected: %v", err)
	}

	bad, _ := client.Build(srv.URL, client.WithCredentials(client.Credentials{AccessToken: "nope"}))
	if _, err := bad.Call(context.Background(), "entity", nil); !errors.Is(err, client.ErrAPIResponse) {
		t.Errorf("exp api error for invalid token, got: %v", err)
	}
}

func TestServer_RecordsRequests(t *testing.T) {
	srv := capturetest.NewServer(client.Credentials{})
	t.Cleanup(srv.Close)
	srv.Handle("/entity.find", func(r capturetest.Request) (int, any) {
		return http.StatusOK, capturetest.OK(map[string]any{"filter": r.Params.Get("filter")})
	})

	if _, ok := srv.Last(); ok {
		t.Fatal("exp no requests before the first call")
	}

	c, _ := client.Build(srv.URL, client.WithoutSigning())
	resp, err := c.Call(context.Background(), "entity.find", map[string]any{"filter": "email = 'a@b.c'"})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if resp["filter"] != "email = 'a@b.c'" {
		t.Errorf("filter not echoed: %v", resp)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 {
		t.Fatalf("exp 1 request, got %d", len(reqs))
	}
	if reqs[0].ID == "" || reqs[0].Path != "/entity.find" {
		t.Errorf("unexpected request record: %+v", reqs[0])
	}
}

func TestServer_Errors(t *testing.T) {
	srv := capturetest.NewServer(client.Credentials{})
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/entity")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", resp.StatusCode)
	}

	resp, err = http.PostForm(srv.URL+"/unknown", url.Values{"a": {"1"}})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("unknown path: status %d content type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}
