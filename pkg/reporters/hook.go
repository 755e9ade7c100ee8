package reporters

import (
	"context"
	"time"

	"github.com/samvad-hq/samvad-api-client/pkg/apiclient"
)

const defaultReportTimeout = 5 * time.Second

// FailureHook adapts a Fanout to apiclient.FailureReporter.
type FailureHook struct {
	app     string
	fanout  *Fanout
	timeout time.Duration
	log     Logger
}

// NewFailureHook returns a hook that publishes every classified failure to fanout.
func NewFailureHook(app string, fanout *Fanout, timeout time.Duration, log Logger) *FailureHook {
	if timeout <= 0 {
		timeout = defaultReportTimeout
	}
	return &FailureHook{
		app:     app,
		fanout:  fanout,
		timeout: timeout,
		log:     ensureLogger(log),
	}
}

// Report delivers ce synchronously. The caller's cancellation does not abort
// delivery; only the hook timeout does. Delivery errors are logged only.
func (h *FailureHook) Report(ctx context.Context, ce *apiclient.ClassifiedError) {
	if h == nil || h.fanout.Size() == 0 || ce == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	delivered, err := h.fanout.Publish(ctx, NewReport(h.app, ce))
	if err != nil {
		h.log.WarnObj("failure report delivery failed", "report_error", map[string]any{
			"kind":      string(ce.Kind),
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	h.log.DebugObj("failure report delivered", "report_delivery", map[string]any{
		"kind":      string(ce.Kind),
		"delivered": delivered,
	})
}
