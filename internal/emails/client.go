// Package emails registers received messages with the email backend.
package emails

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jarrod-lowe/inbound-email-service/internal/account"
	"github.com/jarrod-lowe/inbound-email-service/internal/message"
)

// JSONSender is the subset of apiclient.Client used by Client.
type JSONSender interface {
	Put(ctx context.Context, path string, body any) error
	Post(ctx context.Context, path string, body any) error
}

// Client calls the email registration endpoints.
type Client struct {
	api JSONSender
	now func() time.Time
}

// NewClient creates a new Client.
func NewClient(api JSONSender) *Client {
	return &Client{
		api: api,
		now: time.Now,
	}
}

// RegisterReceivedEmail records messageID as received by the account behind recipient.
func (c *Client) RegisterReceivedEmail(ctx context.Context, recipient, messageID string, parsed *message.ParsedMessage) error {
	body := message.ToReceivedEmail(parsed, c.now())
	if err := c.api.Put(ctx, receivedPath(recipient, messageID), body); err != nil {
		return fmt.Errorf("failed to register %s for %s: %w", messageID, recipient, err)
	}
	return nil
}

// BounceReceivedEmail asks the backend to bounce messageID back to its sender.
func (c *Client) BounceReceivedEmail(ctx context.Context, recipient, messageID string) error {
	if err := c.api.Post(ctx, receivedPath(recipient, messageID)+"/bounce", struct{}{}); err != nil {
		return fmt.Errorf("failed to bounce %s for %s: %w", messageID, recipient, err)
	}
	return nil
}

func receivedPath(recipient, messageID string) string {
	accountID := account.ExtractAccountFromAddress(recipient)
	return "/accounts/" + url.PathEscape(accountID) + "/emails/received/" + url.PathEscape(messageID)
}
