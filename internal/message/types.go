// Package message parses raw inbound mail and converts it into the shapes the
// email and queue backends accept.
package message

import (
	"strings"
	"time"
)

// Address is a single mailbox with optional display name.
type Address struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// String formats the address as `Name <address>`, or the bare address without a name.
func (a Address) String() string {
	if a.Name == "" {
		return a.Address
	}
	return a.Name + " <" + a.Address + ">"
}

// AddressList is the parsed form of an address header.
type AddressList struct {
	Text  string    `json:"text"`
	Value []Address `json:"value"`
}

// NewAddressList builds an AddressList with its display text.
func NewAddressList(addrs []Address) *AddressList {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return &AddressList{Text: strings.Join(parts, ", "), Value: addrs}
}

// First returns the first address, or the zero Address.
func (l *AddressList) First() Address {
	if l == nil || len(l.Value) == 0 {
		return Address{}
	}
	return l.Value[0]
}

// Attachment is one attached or inline part. Content holds the bytes until the part is
// uploaded; afterwards StorageKey points at the stored copy.
type Attachment struct {
	ID          string            `json:"id"`
	ContentID   string            `json:"cid,omitempty"`
	Checksum    string            `json:"checksum"`
	Filename    string            `json:"filename,omitempty"`
	ContentType string            `json:"contentType"`
	Disposition string            `json:"contentDisposition,omitempty"`
	Size        int               `json:"size"`
	Related     bool              `json:"related"`
	Headers     map[string]string `json:"headers,omitempty"`
	Content     []byte            `json:"-"`
	StorageKey  string            `json:"content,omitempty"`
}

// WithStorageKey returns a copy of the attachment that points at key and carries no bytes.
func (a Attachment) WithStorageKey(key string) Attachment {
	a.Content = nil
	a.StorageKey = key
	return a
}

// ParsedMessage is the structured form of a raw RFC 5322 message.
type ParsedMessage struct {
	MessageID   string
	Subject     string
	Date        time.Time
	From        *AddressList
	To          *AddressList
	Cc          *AddressList
	ReplyTo     *AddressList
	Headers     map[string]string
	InReplyTo   string
	References  []string
	Text        string
	HTML        string
	Attachments []Attachment
}
