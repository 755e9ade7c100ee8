package reporters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// sqsClient is the part of the SQS API the reporter calls.
type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// sqsReporter enqueues reports. FIFO queues group messages by error kind and
// deduplicate on the report id.
type sqsReporter struct {
	id       string
	queueURL string
	fifo     bool
	client   sqsClient
	log      Logger
}

func newSQSReporter(ctx context.Context, cfg ReporterConfig, log Logger) (Reporter, error) {
	if cfg.SQS == nil {
		return nil, fmt.Errorf("reporter %q missing sqs configuration", cfg.ID)
	}

	awsCfg, err := loadAWSConfig(ctx, cfg.SQS.Region, cfg.SQS.Credentials)
	if err != nil {
		return nil, err
	}
	return newSQSReporterWithClient(cfg.ID, cfg.SQS.QueueURL, sqs.NewFromConfig(awsCfg), log), nil
}

func newSQSReporterWithClient(id, queueURL string, client sqsClient, log Logger) *sqsReporter {
	return &sqsReporter{
		id:       id,
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
		client:   client,
		log:      ensureLogger(log),
	}
}

func (s *sqsReporter) ID() string   { return s.id }
func (s *sqsReporter) Type() string { return TypeSQS }

func (s *sqsReporter) Report(ctx context.Context, rep Report) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: sqsAttributes(rep),
	}
	if s.fifo {
		group := string(rep.Kind)
		if group == "" {
			group = "unclassified"
		}
		input.MessageGroupId = aws.String(group)
		if rep.ID != "" {
			input.MessageDeduplicationId = aws.String(rep.ID)
		}
	}

	out, err := s.client.SendMessage(ctx, input)
	if err != nil {
		s.log.ErrorObj("sqs reporter send failed", "reporter_sqs_error", map[string]any{
			"reporter_id": s.id,
			"report_id":   rep.ID,
			"error":       err.Error(),
		})
		return fmt.Errorf("enqueue report %s: %w", rep.ID, err)
	}
	s.log.DebugObj("sqs reporter enqueued report", "reporter_sqs_delivery", map[string]any{
		"reporter_id": s.id,
		"report_id":   rep.ID,
		"message_id":  aws.ToString(out.MessageId),
	})
	return nil
}

func sqsAttributes(rep Report) map[string]types.MessageAttributeValue {
	attrs := rep.Attributes()
	out := make(map[string]types.MessageAttributeValue, len(attrs))
	for k, v := range attrs {
		dataType := "String"
		if k == "status_code" {
			dataType = "Number"
		}
		out[k] = types.MessageAttributeValue{
			DataType:    aws.String(dataType),
			StringValue: aws.String(v),
		}
	}
	return out
}
