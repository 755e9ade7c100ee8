package httpclient

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestRestyClientWithOptionsAppliesBaseURLAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ping" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Client"); got != "probe" {
			t.Fatalf("missing default header, got %q", got)
		}
		w.Header().Set("X-Reply", "pong")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewRestyClientWithOptions(Options{
		BaseURL: srv.URL + "/",
		Headers: map[string]string{"X-Client": "probe"},
	})

	raw, err := client.R().Get("/api/ping")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp := Wrap(raw)
	if resp.StatusCode() != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if string(resp.Body()) != "ok" {
		t.Fatalf("body = %q", resp.Body())
	}
	if resp.Header().Get("X-Reply") != "pong" {
		t.Fatalf("header = %v", resp.Header())
	}
}

func TestRestyClientWithOptionsUsesJar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err != nil || c.Value != "abc" {
			t.Fatalf("expected session cookie, got %v (%v)", c, err)
		}
	}))
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New: %v", err)
	}
	u, _ := url.Parse(srv.URL)
	jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "abc"}})

	client := NewRestyClientWithOptions(Options{BaseURL: srv.URL, Jar: jar})
	if _, err := client.R().Get("/"); err != nil {
		t.Fatalf("Get: %v", err)
	}
}
