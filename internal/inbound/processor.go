package inbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jarrod-lowe/jmap-service-libs/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jarrod-lowe/inbound-email-service/internal/account"
	"github.com/jarrod-lowe/inbound-email-service/internal/message"
	"github.com/jarrod-lowe/inbound-email-service/internal/storage"
)

// EmailRegistrar records received and bounced messages with the email backend.
type EmailRegistrar interface {
	RegisterReceivedEmail(ctx context.Context, recipient, messageID string, parsed *message.ParsedMessage) error
	BounceReceivedEmail(ctx context.Context, recipient, messageID string) error
}

// Forwarder sends a message on to external targets.
type Forwarder interface {
	ForwardEmail(ctx context.Context, targets []string, email message.Email, attachments []message.Attachment) error
}

// RecipientRouter classifies the recipients of a message.
type RecipientRouter interface {
	ProcessRecipients(ctx context.Context, recipients []string, sender string) (RecipientResult, error)
}

// ProcessingError reports everything that went wrong while processing one message.
type ProcessingError struct {
	MessageID string
	Err       error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing message %s: %v", e.MessageID, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Processor materializes inbound messages for their recipients.
type Processor struct {
	store     ObjectStore
	router    RecipientRouter
	registrar EmailRegistrar
	forwarder Forwarder
	parse     func(data []byte) (*message.ParsedMessage, error)
	logger    *slog.Logger
	limit     int
}

// NewProcessor creates a Processor. limit bounds concurrent uploads and deliveries.
func NewProcessor(store ObjectStore, router RecipientRouter, registrar EmailRegistrar, forwarder Forwarder, logger *slog.Logger, limit int) *Processor {
	return &Processor{
		store:     store,
		router:    router,
		registrar: registrar,
		forwarder: forwarder,
		parse:     message.Parse,
		logger:    logger,
		limit:     limit,
	}
}

// ProcessReceivedEmail routes the staged message messageID to recipients.
//
// Failures before the attachments are staged leave the inbound objects in place.
// Once staging starts, every inbound object is deleted after all copies are done,
// even if some deliveries failed; the failures are returned together.
func (p *Processor) ProcessReceivedEmail(ctx context.Context, messageID string, recipients []string, sender string) error {
	tracer := tracing.Tracer("inbound-processor")
	ctx, span := tracer.Start(ctx, "ProcessReceivedEmail",
		trace.WithAttributes(
			attribute.String("message.id", messageID),
			attribute.Int("recipients.count", len(recipients)),
		))
	defer span.End()

	err := p.process(ctx, messageID, recipients, sender)
	if err != nil {
		tracing.RecordError(span, err)
		return &ProcessingError{MessageID: messageID, Err: err}
	}
	return nil
}

func (p *Processor) process(ctx context.Context, messageID string, recipients []string, sender string) error {
	raw, err := p.store.Get(ctx, storage.InboundMessageKey(messageID))
	if err != nil {
		return fmt.Errorf("failed to fetch raw message: %w", err)
	}

	parsed, err := p.parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse raw message: %w", err)
	}

	result, err := p.router.ProcessRecipients(ctx, recipients, sender)
	if err != nil {
		return fmt.Errorf("failed to route recipients: %w", err)
	}

	p.logger.InfoContext(ctx, "Routed inbound message",
		slog.String("message_id", messageID),
		slog.Any("valid", result.Valid.Values()),
		slog.Any("bounced", result.Bounced.Values()),
		slog.Int("forward_targets", result.ForwardTargets.Len()),
	)

	attachments := uniqueAttachments(parsed.Attachments)

	var errs []error
	uploaded, err := uploadAttachments(ctx, p.store, messageID, attachments, p.limit)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to stage attachments: %w", err))
	} else {
		errs = append(errs, p.materialize(ctx, messageID, parsed, result, uploaded)...)
	}

	if err := p.cleanup(ctx, messageID, attachments); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// materialize delivers to valid recipients that were not bounced, forwards to the
// aggregated targets and bounces the bounced recipients.
func (p *Processor) materialize(ctx context.Context, messageID string, parsed *message.ParsedMessage, result RecipientResult, attachments []message.Attachment) []error {
	var errs []error

	deliver := result.Valid.Difference(result.Bounced)
	err := forEach(p.limit, len(deliver), func(i int) error {
		return p.deliver(ctx, deliver[i], messageID, parsed, attachments)
	})
	if err != nil {
		errs = append(errs, err)
	}

	if result.ForwardTargets.Len() > 0 {
		email := message.ToEmail(messageID, parsed, result.Valid.Values())
		if err := p.forwarder.ForwardEmail(ctx, result.ForwardTargets.Values(), email, attachments); err != nil {
			errs = append(errs, err)
		}
	}

	for _, recipient := range result.Bounced.Values() {
		if err := p.bounce(ctx, recipient, messageID, parsed); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// deliver registers the message for recipient and copies it into the account's area.
func (p *Processor) deliver(ctx context.Context, recipient, messageID string, parsed *message.ParsedMessage, attachments []message.Attachment) error {
	accountID := account.ExtractAccountFromAddress(recipient)

	if err := p.registrar.RegisterReceivedEmail(ctx, recipient, messageID, parsed); err != nil {
		p.logError(ctx, "Failed to register received email", messageID, recipient, err)
		return err
	}

	if err := p.store.Copy(ctx, storage.InboundMessageKey(messageID), storage.ReceivedMessageKey(accountID, messageID)); err != nil {
		p.logError(ctx, "Failed to copy message", messageID, recipient, err)
		return err
	}

	for _, a := range attachments {
		if err := p.store.Copy(ctx, a.StorageKey, storage.ReceivedAttachmentKey(accountID, messageID, a.ID)); err != nil {
			p.logError(ctx, "Failed to copy attachment", messageID, recipient, err)
			return err
		}
	}
	return nil
}

func (p *Processor) bounce(ctx context.Context, recipient, messageID string, parsed *message.ParsedMessage) error {
	if err := p.registrar.RegisterReceivedEmail(ctx, recipient, messageID, parsed); err != nil {
		p.logError(ctx, "Failed to register bounced email", messageID, recipient, err)
		return err
	}
	if err := p.registrar.BounceReceivedEmail(ctx, recipient, messageID); err != nil {
		p.logError(ctx, "Failed to bounce email", messageID, recipient, err)
		return err
	}
	p.logger.InfoContext(ctx, "Bounced inbound message",
		slog.String("message_id", messageID),
		slog.String("recipient", recipient),
	)
	return nil
}

// cleanup deletes the staged raw message and attachments, one delete per key.
func (p *Processor) cleanup(ctx context.Context, messageID string, attachments []message.Attachment) error {
	keys := NewSet(storage.InboundMessageKey(messageID))
	for _, a := range attachments {
		keys.Add(storage.InboundAttachmentKey(messageID, a.ID))
	}

	var errs []error
	for _, key := range keys.Values() {
		if err := p.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to clean up inbound objects: %w", errors.Join(errs...))
	}
	return nil
}

func (p *Processor) logError(ctx context.Context, msg, messageID, recipient string, err error) {
	p.logger.ErrorContext(ctx, msg,
		slog.String("message_id", messageID),
		slog.String("recipient", recipient),
		slog.String("error", err.Error()),
	)
}
