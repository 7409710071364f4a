package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSSender abstracts SQS send operations for dependency inversion.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher publishes outbound email to an SQS queue.
type SQSPublisher struct {
	client   SQSSender
	queueURL string
}

// NewSQSPublisher creates a new SQSPublisher.
func NewSQSPublisher(client SQSSender, queueURL string) *SQSPublisher {
	return &SQSPublisher{
		client:   client,
		queueURL: queueURL,
	}
}

// Send implements Sender.
func (p *SQSPublisher) Send(ctx context.Context, email OutboundEmail) error {
	body, err := json.Marshal(email)
	if err != nil {
		return err
	}

	bodyStr := string(body)
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &p.queueURL,
		MessageBody: &bodyStr,
	})
	if err != nil {
		return fmt.Errorf("failed to publish email to %v: %w", email.To, err)
	}
	return nil
}
