package inbound

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jarrod-lowe/inbound-email-service/internal/message"
	"github.com/jarrod-lowe/inbound-email-service/internal/storage"
)

// OutboundSender queues one email for delivery to target.
type OutboundSender interface {
	SendEmail(ctx context.Context, target string, email message.Email, attachments []message.Attachment) error
}

// ObjectCopier copies objects within the bucket.
type ObjectCopier interface {
	Copy(ctx context.Context, from, to string) error
}

// Relay forwards a message to external targets. Each target gets its own copy of
// the attachments under queue/<token>/ so no two sends share an object.
type Relay struct {
	store    ObjectCopier
	sender   OutboundSender
	newToken func() string
	limit    int
}

// NewRelay creates a Relay running up to limit targets at once.
func NewRelay(store ObjectCopier, sender OutboundSender, limit int) *Relay {
	return &Relay{
		store:    store,
		sender:   sender,
		newToken: uuid.NewString,
		limit:    limit,
	}
}

// ForwardEmail sends email to every target. A failing target does not stop the others.
func (r *Relay) ForwardEmail(ctx context.Context, targets []string, email message.Email, attachments []message.Attachment) error {
	return forEach(r.limit, len(targets), func(i int) error {
		if err := r.forwardOne(ctx, targets[i], email, attachments); err != nil {
			return fmt.Errorf("forward to %s: %w", targets[i], err)
		}
		return nil
	})
}

func (r *Relay) forwardOne(ctx context.Context, target string, email message.Email, attachments []message.Attachment) error {
	token := r.newToken()

	relocated := make([]message.Attachment, len(attachments))
	for i, a := range attachments {
		key := storage.QueueAttachmentKey(token, a.ID)
		if err := r.store.Copy(ctx, a.StorageKey, key); err != nil {
			return err
		}
		relocated[i] = a.WithStorageKey(key)
	}

	return r.sender.SendEmail(ctx, target, email, relocated)
}
