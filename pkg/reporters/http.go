package reporters

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerErrorKind      = "X-Error-Kind"
	maxErrorSnippet      = 512
)

// webhookReporter posts each report as JSON to an HTTP endpoint. The report id
// is sent as Idempotency-Key, so a sink that answers 409 for a key it has
// already stored counts as delivered.
type webhookReporter struct {
	id     string
	method string
	target string
	client *resty.Client
	log    Logger
}

func newHTTPReporter(_ context.Context, cfg ReporterConfig, log Logger) (Reporter, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("reporter %q missing http configuration", cfg.ID)
	}

	client := httpclient.NewRestyClientWithOptions(httpclient.Options{
		Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		Headers: cfg.HTTP.Headers,
	})
	client.SetHeader("Content-Type", "application/json; charset=utf-8")

	return &webhookReporter{
		id:     cfg.ID,
		method: cfg.HTTP.Method,
		target: cfg.HTTP.URL,
		client: client,
		log:    ensureLogger(log),
	}, nil
}

func (w *webhookReporter) ID() string   { return w.id }
func (w *webhookReporter) Type() string { return TypeHTTP }

func (w *webhookReporter) Report(ctx context.Context, rep Report) error {
	req := w.client.R().
		SetContext(ctx).
		SetHeader(headerErrorKind, string(rep.Kind)).
		SetBody(rep)
	if rep.ID != "" {
		req.SetHeader(headerIdempotencyKey, rep.ID)
	}

	resp, err := req.Execute(w.method, w.target)
	if err != nil {
		return fmt.Errorf("deliver report %s: %w", rep.ID, err)
	}

	switch status := resp.StatusCode(); {
	case resp.IsSuccess():
	case status == http.StatusConflict && rep.ID != "":
		w.log.DebugObj("http reporter sink already has report", "reporter_http_duplicate", map[string]any{
			"reporter_id": w.id,
			"report_id":   rep.ID,
		})
		return nil
	default:
		return fmt.Errorf("deliver report %s: status %d: %s", rep.ID, status, errorSnippet(resp.Body()))
	}

	w.log.DebugObj("http reporter delivered report", "reporter_http_delivery", map[string]any{
		"reporter_id": w.id,
		"report_id":   rep.ID,
		"status":      resp.StatusCode(),
	})
	return nil
}

func errorSnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet]
	}
	return s
}
