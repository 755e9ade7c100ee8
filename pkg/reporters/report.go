package reporters

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/samvad-api-client/pkg/apiclient"
)

// Report is the payload delivered for every classified API failure.
type Report struct {
	ID         string              `json:"id"`
	App        string              `json:"app"`
	Kind       apiclient.ErrorKind `json:"type"`
	Message    string              `json:"message"`
	StatusCode int                 `json:"status,omitempty"`
	Method     string              `json:"method,omitempty"`
	URL        string              `json:"url,omitempty"`
	Cause      string              `json:"cause,omitempty"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// NewReport builds a Report from a classified failure.
func NewReport(app string, ce *apiclient.ClassifiedError) Report {
	rep := Report{
		ID:         uuid.NewString(),
		App:        app,
		OccurredAt: time.Now().UTC(),
	}
	if ce == nil {
		return rep
	}
	rep.Kind = ce.Kind
	rep.Message = ce.Message
	rep.StatusCode = ce.StatusCode
	rep.Method = ce.Method
	rep.URL = ce.URL
	if ce.Original != nil {
		rep.Cause = ce.Original.Error()
	}
	return rep
}

// Attributes are the routing keys sinks expose next to the JSON body.
// Empty values are left out; SQS and SNS reject them.
func (r Report) Attributes() map[string]string {
	attrs := map[string]string{
		"report_id":  r.ID,
		"error_kind": string(r.Kind),
		"app":        r.App,
	}
	if r.StatusCode > 0 {
		attrs["status_code"] = strconv.Itoa(r.StatusCode)
	}
	for k, v := range attrs {
		if v == "" {
			delete(attrs, k)
		}
	}
	return attrs
}
