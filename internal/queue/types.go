// Package queue submits outbound email to the send queue.
package queue

import (
	"context"

	"github.com/jarrod-lowe/inbound-email-service/internal/message"
)

// OutboundAttachment references an attachment already copied into the queue area.
type OutboundAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	ContentID   string `json:"cid,omitempty"`
	Content     string `json:"content"`
}

// OutboundEmail is the message body accepted by the send queue.
type OutboundEmail struct {
	From        string               `json:"from"`
	Sender      string               `json:"sender,omitempty"`
	ReplyTo     string               `json:"replyTo,omitempty"`
	To          []string             `json:"to"`
	Subject     string               `json:"subject"`
	Text        string               `json:"text,omitempty"`
	HTML        string               `json:"html,omitempty"`
	Headers     map[string]string    `json:"headers,omitempty"`
	InReplyTo   string               `json:"inReplyTo,omitempty"`
	References  []string             `json:"references,omitempty"`
	Attachments []OutboundAttachment `json:"attachments,omitempty"`
}

// Sender delivers one outbound email to the queue.
type Sender interface {
	Send(ctx context.Context, email OutboundEmail) error
}

// NewForward builds the queue body that forwards email to a single target. The
// message is sent from emailFrom under the original sender's display name, with
// replies directed back to the original sender.
func NewForward(emailFrom, target string, email message.Email, attachments []message.Attachment) OutboundEmail {
	from := forwardFrom(emailFrom, email.FromAddress.First())

	replyTo := email.ReplyToAddress.First().Address
	if replyTo == "" {
		replyTo = email.FromAddress.First().Address
	}

	out := OutboundEmail{
		From:       from,
		Sender:     from,
		ReplyTo:    replyTo,
		To:         []string{target},
		Subject:    email.Subject,
		Text:       email.BodyText,
		HTML:       email.BodyHTML,
		Headers:    email.Headers,
		InReplyTo:  email.InReplyTo,
		References: email.References,
	}
	for _, a := range attachments {
		filename := a.Filename
		if filename == "" {
			filename = "unnamed"
		}
		out.Attachments = append(out.Attachments, OutboundAttachment{
			Filename:    filename,
			ContentType: a.ContentType,
			ContentID:   a.ContentID,
			Content:     a.StorageKey,
		})
	}
	return out
}

func forwardFrom(emailFrom string, original message.Address) string {
	name := original.Name
	if name == "" {
		name = original.Address
	}
	if name == "" {
		return emailFrom
	}
	return `"` + name + `" <` + emailFrom + `>`
}

// Forwarder sends forwarded copies of inbound mail through a Sender.
type Forwarder struct {
	sender    Sender
	emailFrom string
}

// NewForwarder creates a new Forwarder.
func NewForwarder(sender Sender, emailFrom string) *Forwarder {
	return &Forwarder{
		sender:    sender,
		emailFrom: emailFrom,
	}
}

// SendEmail forwards email to target with attachments pointing at their queue copies.
func (f *Forwarder) SendEmail(ctx context.Context, target string, email message.Email, attachments []message.Attachment) error {
	return f.sender.Send(ctx, NewForward(f.emailFrom, target, email, attachments))
}
