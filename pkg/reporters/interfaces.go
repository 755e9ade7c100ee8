package reporters

import "context"

// Reporter delivers failure reports to a downstream sink (HTTP, SQS, SNS, Pub/Sub).
type Reporter interface {
	ID() string
	Type() string
	Report(ctx context.Context, rep Report) error
}
