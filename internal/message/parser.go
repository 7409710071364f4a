package message

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/jhillyerd/enmime/v2"
)

// ErrParse wraps failures to read a raw message.
var ErrParse = errors.New("failed to parse message")

// Parse reads a raw RFC 5322 message.
func Parse(data []byte) (*ParsedMessage, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	parsed := &ParsedMessage{
		MessageID:  strings.TrimSpace(env.GetHeader("Message-Id")),
		Subject:    env.GetHeader("Subject"),
		From:       addressHeader(env, "From"),
		To:         addressHeader(env, "To"),
		Cc:         addressHeader(env, "Cc"),
		ReplyTo:    addressHeader(env, "Reply-To"),
		Headers:    headerMap(env),
		InReplyTo:  strings.TrimSpace(env.GetHeader("In-Reply-To")),
		References: strings.Fields(env.GetHeader("References")),
		Text:       env.Text,
		HTML:       env.HTML,
	}

	if date := env.GetHeader("Date"); date != "" {
		if t, err := mail.ParseDate(date); err == nil {
			parsed.Date = t.UTC()
		}
	}

	for _, part := range env.Attachments {
		parsed.Attachments = append(parsed.Attachments, newAttachment(part, false))
	}
	for _, part := range env.Inlines {
		parsed.Attachments = append(parsed.Attachments, newAttachment(part, true))
	}

	return parsed, nil
}

// addressHeader returns nil when the header is absent or unparseable.
func addressHeader(env *enmime.Envelope, key string) *AddressList {
	list, err := env.AddressList(key)
	if err != nil || len(list) == 0 {
		return nil
	}
	addrs := make([]Address, len(list))
	for i, a := range list {
		addrs[i] = Address{Name: a.Name, Address: a.Address}
	}
	return NewAddressList(addrs)
}

// headerMap flattens top-level headers to lower-case keys; repeated headers are joined.
func headerMap(env *enmime.Envelope) map[string]string {
	headers := make(map[string]string)
	for _, key := range env.GetHeaderKeys() {
		values := env.GetHeaderValues(key)
		headers[strings.ToLower(key)] = strings.Join(values, ", ")
	}
	return headers
}

func newAttachment(part *enmime.Part, related bool) Attachment {
	sum := md5.Sum(part.Content)
	checksum := hex.EncodeToString(sum[:])

	cid := strings.Trim(strings.TrimSpace(part.ContentID), "<>")
	id := cid
	if id == "" {
		id = checksum
	}

	headers := make(map[string]string, len(part.Header))
	for key, values := range part.Header {
		headers[strings.ToLower(key)] = strings.Join(values, ", ")
	}

	return Attachment{
		ID:          id,
		ContentID:   cid,
		Checksum:    checksum,
		Filename:    part.FileName,
		ContentType: part.ContentType,
		Disposition: part.Disposition,
		Size:        len(part.Content),
		Related:     related,
		Headers:     headers,
		Content:     part.Content,
	}
}
