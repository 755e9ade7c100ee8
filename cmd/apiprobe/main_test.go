package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-api-client/internal/app"
	"github.com/samvad-hq/samvad-api-client/internal/config"
	"github.com/samvad-hq/samvad-api-client/pkg/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest(t *testing.T) {
	req, err := buildRequest(" post ", "/orders", `{"sku":"A1"}`, []string{"page=2", "q=a=b"})
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/orders", req.Path)
	assert.JSONEq(t, `{"sku":"A1"}`, string(req.Body.(json.RawMessage)))
	assert.Equal(t, map[string]string{"page": "2", "q": "a=b"}, req.Query)
}

func TestBuildRequestRejectsBadInput(t *testing.T) {
	_, err := buildRequest("GET", "/x", "{not json", nil)
	assert.Error(t, err)

	_, err = buildRequest("GET", "/x", "", []string{"novalue"})
	assert.Error(t, err)

	_, err = buildRequest("GET", "/x", "", []string{"=v"})
	assert.Error(t, err)
}

func TestRootCmdWiresSubcommands(t *testing.T) {
	root := newRootCmd(nil)

	cmd, _, err := root.Find([]string{"request", "/x"})
	require.NoError(t, err)
	assert.Equal(t, "request", cmd.Name())
	assert.NotNil(t, cmd.Flags().ShorthandLookup("X"))

	cmd, _, err = root.Find([]string{"cookies", "clear"})
	require.NoError(t, err)
	assert.Equal(t, "clear", cmd.Name())
}

func TestRunRequestPrintsBodyOrClassifiedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.Write([]byte(`{"success":true}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"sku is required"}}`))
	}))
	defer srv.Close()

	p, err := app.NewProbe(context.Background(), &config.Config{
		APIBaseURL:      srv.URL,
		Locale:          "zh",
		CookieStoreType: "none",
		ReportTimeout:   time.Second,
	}, nil)
	require.NoError(t, err)
	defer p.Close()

	var out bytes.Buffer
	require.NoError(t, runRequest(context.Background(), p, apiclient.Request{Method: "GET", Path: "/ok"}, &out))
	assert.Equal(t, "{\"success\":true}\n", out.String())

	out.Reset()
	err = runRequest(context.Background(), p, apiclient.Request{Method: "POST", Path: "/orders"}, &out)
	require.ErrorIs(t, err, errRequestFailed)

	var printed map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &printed))
	assert.Equal(t, "BUSINESS_ERROR", printed["type"])
	assert.Equal(t, "sku is required", printed["message"])
	assert.Equal(t, float64(400), printed["status"])
}
