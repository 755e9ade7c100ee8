package reporters

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/samvad-hq/samvad-api-client/pkg/apiclient"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSQSReporterSendSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	rep := newSQSReporterWithClient("queue", "https://example.com/queue", client, nil)

	err := rep.Report(context.Background(), Report{ID: "r-1", App: "probe", Kind: apiclient.KindServiceTimeout, StatusCode: 504})
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attrs := client.input.MessageAttributes
	if kind := attrs["error_kind"]; aws.ToString(kind.StringValue) != "SERVICE_TIMEOUT" || aws.ToString(kind.DataType) != "String" {
		t.Fatalf("error_kind attribute wrong: %#v", kind)
	}
	if status := attrs["status_code"]; aws.ToString(status.StringValue) != "504" || aws.ToString(status.DataType) != "Number" {
		t.Fatalf("status_code attribute wrong: %#v", status)
	}
	if aws.ToString(attrs["report_id"].StringValue) != "r-1" {
		t.Fatalf("report_id attribute wrong: %#v", attrs["report_id"])
	}
	if client.input.MessageGroupId != nil || client.input.MessageDeduplicationId != nil {
		t.Fatalf("standard queue must not carry FIFO fields")
	}
	if !strings.Contains(aws.ToString(client.input.MessageBody), `"type":"SERVICE_TIMEOUT"`) {
		t.Fatalf("MessageBody missing kind: %s", aws.ToString(client.input.MessageBody))
	}
}

func TestSQSReporterFIFOQueue(t *testing.T) {
	client := &fakeSQSClient{}
	rep := newSQSReporterWithClient("queue", "https://sqs.ap-south-1.amazonaws.com/123/failures.fifo", client, nil)

	if err := rep.Report(context.Background(), Report{ID: "r-2", Kind: apiclient.KindNotFound}); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if got := aws.ToString(client.input.MessageGroupId); got != "NOT_FOUND" {
		t.Fatalf("MessageGroupId = %q", got)
	}
	if got := aws.ToString(client.input.MessageDeduplicationId); got != "r-2" {
		t.Fatalf("MessageDeduplicationId = %q", got)
	}
	if _, ok := client.input.MessageAttributes["status_code"]; ok {
		t.Fatalf("status_code must be omitted when no status was received")
	}
}

func TestSQSReporterSendError(t *testing.T) {
	rep := newSQSReporterWithClient("queue", "https://example.com/queue", &fakeSQSClient{err: errors.New("boom")}, nil)

	if err := rep.Report(context.Background(), Report{}); err == nil {
		t.Fatalf("expected error from Report")
	}
}

func TestSNSReporterPublishSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	rep := &snsReporter{
		id:       "topic",
		topicARN: "arn:aws:sns:::topic",
		client:   client,
		log:      noopLogger{},
	}

	if err := rep.Report(context.Background(), Report{App: "probe", Kind: apiclient.KindNetwork}); err != nil {
		t.Fatalf("Report returned error: %v", err)
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	if got := aws.ToString(client.input.Subject); got != "probe: NETWORK_ERROR" {
		t.Fatalf("Subject = %s", got)
	}
	if attr := client.input.MessageAttributes["error_kind"]; aws.ToString(attr.StringValue) != "NETWORK_ERROR" {
		t.Fatalf("error_kind attribute wrong: %#v", attr)
	}
}

func TestSNSReporterPublishError(t *testing.T) {
	rep := &snsReporter{
		id:       "topic",
		topicARN: "arn:aws:sns:::topic",
		client:   &fakeSNSClient{err: errors.New("boom")},
		log:      noopLogger{},
	}

	if err := rep.Report(context.Background(), Report{}); err == nil {
		t.Fatalf("expected error from Report")
	}
}

func TestLoadAWSConfigWithStaticCredentials(t *testing.T) {
	cfg, err := loadAWSConfig(context.Background(), "ap-south-1", &AWSCredentials{
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
	})
	if err != nil {
		t.Fatalf("loadAWSConfig: %v", err)
	}
	if cfg.Region != "ap-south-1" {
		t.Fatalf("region = %s", cfg.Region)
	}
	creds, err := cfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if creds.AccessKeyID != "AKID" {
		t.Fatalf("access key = %s", creds.AccessKeyID)
	}
}
