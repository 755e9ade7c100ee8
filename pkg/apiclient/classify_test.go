package apiclient

import (
	"errors"
	"net/http"
	"testing"
)

func TestRuleTableCoversEveryKind(t *testing.T) {
	seen := map[ErrorKind]bool{networkRule.kind: true, fallbackRule.kind: true}
	for _, r := range statusRules {
		seen[r.kind] = true
	}
	for _, k := range Kinds() {
		if !seen[k] {
			t.Errorf("kind %s has no rule", k)
		}
	}
}

func TestRuleForStatusFallsBackToUnknown(t *testing.T) {
	for _, status := range []int{301, 405, 418, 429, 503} {
		if got := ruleForStatus(status).kind; got != KindUnknown {
			t.Errorf("status %d: kind = %s, want %s", status, got, KindUnknown)
		}
	}
}

func TestClassifierNetworkKeepsOriginal(t *testing.T) {
	cause := errors.New("no route to host")
	ce := classifier{messages: DefaultCatalog()}.network(cause)
	if ce.Kind != KindNetwork {
		t.Fatalf("kind = %s", ce.Kind)
	}
	if !errors.Is(ce, cause) {
		t.Fatalf("expected original error in chain")
	}
	if ce.Message != "网络连接失败，请检查网络设置或后端服务是否可用" {
		t.Fatalf("message = %q", ce.Message)
	}
}

func TestServerMessage(t *testing.T) {
	cases := map[string]string{
		`{"error":{"message":"quota"}}`:  "quota",
		`{"error":{"message":" pad "}}`:  " pad ",
		`{"error":{"message":"   "}}`:    "   ",
		`{"error":{"message":""}}`:       "",
		`{"error":{"message":7}}`:        "",
		`{"error":"flat"}`:               "",
		`{"message":"top level"}`:        "",
		`<html><body>oops</body></html>`: "",
		``:                               "",
	}
	for body, want := range cases {
		if got := serverMessage([]byte(body)); got != want {
			t.Errorf("serverMessage(%q) = %q, want %q", body, got, want)
		}
	}
}

func TestBodySnippetReducesHTML(t *testing.T) {
	header := http.Header{"Content-Type": []string{"text/html; charset=utf-8"}}
	body := []byte(`<html><head><title>502 Bad Gateway</title></head><body><center><h1>502 Bad Gateway</h1></center><hr><center>nginx</center></body></html>`)

	if got := bodySnippet(body, header); got != "502 Bad Gateway" {
		t.Fatalf("snippet = %q", got)
	}
}

func TestBodySnippetTruncates(t *testing.T) {
	body := make([]byte, maxSnippetBytes*2)
	for i := range body {
		body[i] = 'a'
	}
	if got := bodySnippet(body, nil); len(got) != maxSnippetBytes {
		t.Fatalf("len = %d", len(got))
	}
}

func TestParseErrorKind(t *testing.T) {
	k, err := ParseErrorKind(" server_error ")
	if err != nil || k != KindServer {
		t.Fatalf("ParseErrorKind = %s, %v", k, err)
	}
	if _, err := ParseErrorKind("TEAPOT"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
