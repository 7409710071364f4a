// Package notify emails operators when an inbound message cannot be processed.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jarrod-lowe/inbound-email-service/internal/queue"
)

// Subject is the subject line of every error notification.
const Subject = "Error processing SES inbound"

// Notifier sends error notifications to a fixed operator address.
type Notifier struct {
	sender queue.Sender
	from   string
	target string
	now    func() time.Time
}

// NewNotifier creates a new Notifier.
func NewNotifier(sender queue.Sender, from, target string) *Notifier {
	return &Notifier{
		sender: sender,
		from:   from,
		target: target,
		now:    time.Now,
	}
}

// NotifyError reports a processing failure for messageID.
func (n *Notifier) NotifyError(ctx context.Context, messageID string, cause error) error {
	text := Body(messageID, n.now(), cause)
	email := queue.OutboundEmail{
		From:    n.from,
		To:      []string{n.target},
		Subject: Subject,
		Text:    text,
		HTML:    strings.ReplaceAll(text, "\n", "<br>"),
	}
	if err := n.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to send notification for %s: %w", messageID, err)
	}
	return nil
}

// Body renders the notification text. The error text is HTML-escaped because the
// same text is reused for the HTML part.
func Body(messageID string, at time.Time, cause error) string {
	errText := "unknown error"
	if cause != nil {
		errText = cause.Error()
	}
	return fmt.Sprintf("Error processing SES inbound message %s\nTime: %s\nError: %s",
		messageID, at.UTC().Format(time.RFC3339), html.EscapeString(errText))
}
