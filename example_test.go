package capture_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/capture"
	"github.com/adamwoolhether/capture/capturetest"
	"github.com/adamwoolhether/capture/client"
	"github.com/adamwoolhether/capture/config"
)

func ExampleNewClient() {
	creds := client.Credentials{ClientID: "id", ClientSecret: "secret"}

	srv := capturetest.NewServer(creds)
	defer srv.Close()
	srv.Handle("/entity.count", func(r capturetest.Request) (int, any) {
		return http.StatusOK, capturetest.OK(map[string]any{"total_count": 3})
	})

	c, err := capture.NewClient(srv.URL, client.WithCredentials(creds))
	if err != nil {
		fmt.Println("build error:", err)
		return
	}

	resp, err := c.Call(context.Background(), "entity.count", map[string]any{"type_name": "user"})
	if err != nil {
		fmt.Println("call error:", err)
		return
	}

	fmt.Println(resp["total_count"])
	// Output: 3
}

func ExampleFromSettings() {
	srv := capturetest.NewServer(client.Credentials{AccessToken: "token"})
	defer srv.Close()
	srv.Handle("/entity", func(r capturetest.Request) (int, any) {
		return http.StatusOK, capturetest.OK(map[string]any{
			"result": map[string]any{"id": r.Params.Get("id")},
		})
	})

	c, err := capture.FromSettings(config.Settings{
		BaseURL:     srv.URL,
		Credentials: client.Credentials{AccessToken: "token"},
	})
	if err != nil {
		fmt.Println("build error:", err)
		return
	}

	var entity struct {
		Result struct {
			ID string `json:"id"`
		} `json:"result"`
	}
	if _, err := c.Call(context.Background(), "/entity", map[string]any{"id": 42}, client.WithDestination(&entity)); err != nil {
		fmt.Println("call error:", err)
		return
	}

	fmt.Println(entity.Result.ID)
	// Output: 42
}
