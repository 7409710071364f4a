package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jarrod-lowe/inbound-email-service/internal/queue"
)

// mockSender implements queue.Sender for testing.
type mockSender struct {
	sendFunc func(ctx context.Context, email queue.OutboundEmail) error
	sent     []queue.OutboundEmail
}

func (m *mockSender) Send(ctx context.Context, email queue.OutboundEmail) error {
	m.sent = append(m.sent, email)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, email)
	}
	return nil
}

func TestBody(t *testing.T) {
	at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	got := Body("msg-1", at, errors.New(`bad <script> & "quote"`))

	want := "Error processing SES inbound message msg-1\n" +
		"Time: 2024-01-15T12:00:00Z\n" +
		"Error: bad &lt;script&gt; &amp; &#34;quote&#34;"
	if got != want {
		t.Errorf("Body =\n%s\nwant\n%s", got, want)
	}
}

func TestBody_NilError(t *testing.T) {
	got := Body("msg-1", time.Unix(0, 0), nil)
	if !strings.HasSuffix(got, "Error: unknown error") {
		t.Errorf("Body = %q, want unknown error", got)
	}
}

func TestNotifyError(t *testing.T) {
	sender := &mockSender{}
	notifier := NewNotifier(sender, "inbound@example.com", "ops@example.com")
	notifier.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }

	if err := notifier.NotifyError(context.Background(), "msg-1", errors.New("boom")); err != nil {
		t.Fatalf("NotifyError error = %v, want nil", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	email := sender.sent[0]
	if email.Subject != Subject {
		t.Errorf("Subject = %q, want %q", email.Subject, Subject)
	}
	if email.From != "inbound@example.com" || len(email.To) != 1 || email.To[0] != "ops@example.com" {
		t.Errorf("From/To = %q/%v", email.From, email.To)
	}
	if !strings.Contains(email.HTML, "msg-1<br>Time: 2024-01-15T12:00:00Z<br>Error: boom") {
		t.Errorf("HTML = %q", email.HTML)
	}
	if strings.Contains(email.Text, "<br>") {
		t.Errorf("Text = %q, want plain newlines", email.Text)
	}
}

func TestNotifyError_SendFailure(t *testing.T) {
	sendErr := errors.New("queue down")
	notifier := NewNotifier(&mockSender{
		sendFunc: func(ctx context.Context, email queue.OutboundEmail) error { return sendErr },
	}, "a@example.com", "b@example.com")

	if err := notifier.NotifyError(context.Background(), "msg-1", errors.New("boom")); !errors.Is(err, sendErr) {
		t.Errorf("error = %v, want %v", err, sendErr)
	}
}
