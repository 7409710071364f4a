package message

import (
	"html"
	"strings"
	"time"
)

// Email is the canonical representation handed to the outbound queue.
type Email struct {
	ID             string            `json:"id"`
	Attachments    []string          `json:"attachments"`
	BodyHTML       string            `json:"bodyHtml"`
	BodyText       string            `json:"bodyText"`
	CCAddress      *AddressList      `json:"ccAddress,omitempty"`
	FromAddress    AddressList       `json:"fromAddress"`
	Headers        map[string]string `json:"headers"`
	InReplyTo      string            `json:"inReplyTo,omitempty"`
	Recipients     []string          `json:"recipients"`
	References     []string          `json:"references"`
	ReplyToAddress AddressList       `json:"replyToAddress"`
	Subject        string            `json:"subject,omitempty"`
	ToAddress      *AddressList      `json:"toAddress,omitempty"`
}

// ReceivedAttachment describes an attachment in a registration request.
type ReceivedAttachment struct {
	Filename string `json:"filename"`
	ID       string `json:"id"`
	Size     int    `json:"size"`
	Type     string `json:"type"`
}

// ReceivedEmail is the body used to register a received message with an account.
type ReceivedEmail struct {
	Attachments []ReceivedAttachment `json:"attachments"`
	Cc          []string             `json:"cc"`
	From        string               `json:"from"`
	Subject     string               `json:"subject"`
	Timestamp   int64                `json:"timestamp"`
	To          []string             `json:"to"`
	Viewed      bool                 `json:"viewed"`
}

func emptyAddressList() AddressList {
	return AddressList{Value: []Address{{}}}
}

// ToEmail converts a parsed message into the outbound representation, addressed to
// recipients.
func ToEmail(messageID string, parsed *ParsedMessage, recipients []string) Email {
	email := Email{
		ID:             parsed.MessageID,
		Attachments:    make([]string, len(parsed.Attachments)),
		BodyHTML:       parsed.HTML,
		BodyText:       parsed.Text,
		CCAddress:      parsed.Cc,
		FromAddress:    emptyAddressList(),
		Headers:        parsed.Headers,
		InReplyTo:      parsed.InReplyTo,
		Recipients:     recipients,
		References:     parsed.References,
		ReplyToAddress: emptyAddressList(),
		Subject:        parsed.Subject,
		ToAddress:      parsed.To,
	}
	if email.ID == "" {
		email.ID = messageID
	}
	if email.BodyHTML == "" && parsed.Text != "" {
		email.BodyHTML = textToHTML(parsed.Text)
	}
	if email.Headers == nil {
		email.Headers = map[string]string{}
	}
	if email.References == nil {
		email.References = []string{}
	}
	if parsed.From != nil && len(parsed.From.Value) > 0 {
		email.FromAddress = *parsed.From
	}
	if parsed.ReplyTo != nil && len(parsed.ReplyTo.Value) > 0 {
		email.ReplyToAddress = *parsed.ReplyTo
	}
	for i, a := range parsed.Attachments {
		email.Attachments[i] = a.ID
	}
	return email
}

// ToReceivedEmail builds the registration body. now stands in for a missing Date header.
func ToReceivedEmail(parsed *ParsedMessage, now time.Time) ReceivedEmail {
	received := ReceivedEmail{
		Attachments: make([]ReceivedAttachment, len(parsed.Attachments)),
		Cc:          addressStrings(parsed.Cc),
		From:        "unknown",
		Subject:     parsed.Subject,
		Timestamp:   now.UnixMilli(),
		To:          addressStrings(parsed.To),
	}
	if parsed.From != nil && parsed.From.Text != "" {
		received.From = parsed.From.Text
	}
	if !parsed.Date.IsZero() {
		received.Timestamp = parsed.Date.UnixMilli()
	}
	for i, a := range parsed.Attachments {
		received.Attachments[i] = ReceivedAttachment{
			Filename: a.Filename,
			ID:       a.ID,
			Size:     a.Size,
			Type:     a.ContentType,
		}
	}
	return received
}

func addressStrings(list *AddressList) []string {
	out := []string{}
	if list == nil {
		return out
	}
	for _, a := range list.Value {
		out = append(out, a.String())
	}
	return out
}

// textToHTML renders plain text as a single escaped paragraph.
func textToHTML(text string) string {
	escaped := html.EscapeString(strings.TrimRight(text, "\r\n"))
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br/>") + "</p>"
}
