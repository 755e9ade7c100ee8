package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-api-client/internal/config"
	"github.com/samvad-hq/samvad-api-client/pkg/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		AppName:               "probe-test",
		APIBaseURL:            baseURL,
		Locale:                "zh",
		CookieStoreType:       "bbolt",
		CookieStorePath:       filepath.Join(t.TempDir(), "cookies.db"),
		CookieSessionTTL:      time.Hour,
		CookieCleanupInterval: time.Hour,
		ReportTimeout:         time.Second,
	}
}

func TestProbePersistsCookiesAcrossRuns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
			w.Write([]byte(`{"success":true}`))
		case "/me":
			c, err := r.Cookie("session")
			if err != nil || c.Value != "s1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"success":true,"data":{"name":"asha"}}`))
		}
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	first, err := NewProbe(ctx, cfg, nil)
	require.NoError(t, err)
	_, err = first.Request(ctx, apiclient.Request{Method: http.MethodPost, Path: "/auth/login"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewProbe(ctx, cfg, nil)
	require.NoError(t, err)

	resp, err := second.Request(ctx, apiclient.Request{Method: http.MethodGet, Path: "/me"})
	require.NoError(t, err)
	assert.Contains(t, string(resp.Body()), "asha")

	require.NoError(t, second.ClearCookies())
	require.NoError(t, second.Close())

	third, err := NewProbe(ctx, cfg, nil)
	require.NoError(t, err)
	defer third.Close()

	_, err = third.Request(ctx, apiclient.Request{Method: http.MethodGet, Path: "/me"})
	require.Error(t, err)
	assert.True(t, apiclient.IsKind(err, apiclient.KindUnauthorized))
}

func TestProbeReportsFailures(t *testing.T) {
	var (
		mu      sync.Mutex
		reports []map[string]any
	)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var rep map[string]any
		_ = json.Unmarshal(body, &rep)
		mu.Lock()
		reports = append(reports, rep)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer sink.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer api.Close()

	reportersFile := filepath.Join(t.TempDir(), "reporters.yaml")
	require.NoError(t, os.WriteFile(reportersFile, []byte(`
reporters:
  - id: sink
    type: http
    kinds: [NOT_FOUND]
    http:
      url: `+sink.URL+`
`), 0o600))

	cfg := testConfig(t, api.URL)
	cfg.CookieStoreType = "none"
	cfg.ReportersFile = reportersFile

	p, err := NewProbe(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Request(context.Background(), apiclient.Request{Method: http.MethodGet, Path: "/missing"})
	require.Error(t, err)
	assert.True(t, apiclient.IsKind(err, apiclient.KindNotFound))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reports, 1)
	assert.Equal(t, "NOT_FOUND", reports[0]["type"])
	assert.Equal(t, "probe-test", reports[0]["app"])
	assert.Equal(t, "请求的资源不存在", reports[0]["message"])
}

func TestNewProbeRejectsBadConfig(t *testing.T) {
	_, err := NewProbe(context.Background(), nil, nil)
	require.Error(t, err)

	cfg := testConfig(t, "")
	cfg.CookieStoreType = "redis"
	_, err = NewProbe(context.Background(), cfg, nil)
	require.Error(t, err)

	cfg = testConfig(t, "")
	cfg.CookieStoreType = "none"
	cfg.ReportersFile = filepath.Join(t.TempDir(), "absent.yaml")
	_, err = NewProbe(context.Background(), cfg, nil)
	require.Error(t, err)
}
