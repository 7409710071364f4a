package queue

import (
	"context"
	"fmt"
)

// JSONPoster is the subset of apiclient.Client used by HTTPSender.
type JSONPoster interface {
	Post(ctx context.Context, path string, body any) error
}

// HTTPSender posts outbound email to the queue REST API.
type HTTPSender struct {
	api JSONPoster
}

// NewHTTPSender creates a new HTTPSender.
func NewHTTPSender(api JSONPoster) *HTTPSender {
	return &HTTPSender{api: api}
}

// Send implements Sender.
func (s *HTTPSender) Send(ctx context.Context, email OutboundEmail) error {
	if err := s.api.Post(ctx, "/emails", email); err != nil {
		return fmt.Errorf("failed to queue email to %v: %w", email.To, err)
	}
	return nil
}
