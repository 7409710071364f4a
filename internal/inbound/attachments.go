package inbound

import (
	"context"
	"encoding/json"
	"mime"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jarrod-lowe/inbound-email-service/internal/message"
	"github.com/jarrod-lowe/inbound-email-service/internal/storage"
)

// ObjectStore is the storage used while materializing a message.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte, metadata map[string]string) error
	Copy(ctx context.Context, from, to string) error
	Delete(ctx context.Context, key string) error
}

// Metadata defaults for attachments that omit them.
const (
	defaultDisposition = "application/octet-stream"
	defaultFilename    = "unnamed"
	emptyHeaders       = "{}"
)

// Object metadata must be US-ASCII and at most 2 KB across keys and values.
const (
	maxMetadataSize  = 2048
	maxFilenameRunes = 100
)

// attachmentMetadata describes an attachment as object metadata. Non-ASCII values
// are RFC 2047 encoded; the headers entry is dropped when the total would not fit.
func attachmentMetadata(a message.Attachment) map[string]string {
	disposition := a.Disposition
	if disposition == "" {
		disposition = defaultDisposition
	}
	filename := strings.TrimSpace(a.Filename)
	if filename == "" {
		filename = defaultFilename
	}
	if utf8.RuneCountInString(filename) > maxFilenameRunes {
		filename = string([]rune(filename)[:maxFilenameRunes])
	}

	headers := emptyHeaders
	if len(a.Headers) > 0 {
		if data, err := json.Marshal(a.Headers); err == nil {
			headers = string(data)
		}
	}

	meta := map[string]string{
		"checksum":           metadataValue(a.Checksum),
		"contentDisposition": metadataValue(disposition),
		"contentType":        metadataValue(a.ContentType),
		"filename":           metadataValue(filename),
		"headers":            metadataValue(headers),
		"related":            strconv.FormatBool(a.Related),
		"size":               strconv.Itoa(a.Size),
	}
	if metadataSize(meta) > maxMetadataSize {
		meta["headers"] = emptyHeaders
	}
	return meta
}

// metadataValue makes v safe for object metadata.
func metadataValue(v string) string {
	for i := 0; i < len(v); i++ {
		if c := v[i]; c >= utf8.RuneSelf || (c < ' ' && c != '\t') || c == 0x7f {
			return mime.QEncoding.Encode("utf-8", strings.ToValidUTF8(v, "\uFFFD"))
		}
	}
	return v
}

func metadataSize(meta map[string]string) int {
	n := 0
	for k, v := range meta {
		n += len(k) + len(v)
	}
	return n
}

// uniqueAttachments drops attachments whose id repeats an earlier one. Identical
// parts share a checksum id and so a storage key.
func uniqueAttachments(attachments []message.Attachment) []message.Attachment {
	seen := NewSet()
	var out []message.Attachment
	for _, a := range attachments {
		if seen.Add(a.ID) {
			out = append(out, a)
		}
	}
	return out
}

// uploadAttachments stages each attachment under inbound/<messageID>/<id> and returns
// records that point at the stored copies.
func uploadAttachments(ctx context.Context, store ObjectStore, messageID string, attachments []message.Attachment, limit int) ([]message.Attachment, error) {
	uploaded := make([]message.Attachment, len(attachments))
	err := forEach(limit, len(attachments), func(i int) error {
		a := attachments[i]
		key := storage.InboundAttachmentKey(messageID, a.ID)
		if err := store.Put(ctx, key, a.Content, attachmentMetadata(a)); err != nil {
			return err
		}
		uploaded[i] = a.WithStorageKey(key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uploaded, nil
}
