// Package inbound routes a received message to its recipients' accounts and
// materializes it in storage.
package inbound

import (
	"context"
	"fmt"

	"github.com/jarrod-lowe/jmap-service-libs/tracing"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jarrod-lowe/inbound-email-service/internal/account"
	"github.com/jarrod-lowe/inbound-email-service/internal/bounce"
)

// AccountResolver looks up the account behind an address.
type AccountResolver interface {
	Resolve(ctx context.Context, address string) (account.Resolution, error)
	MustGet(ctx context.Context, accountID string) (account.Account, error)
}

// RecipientResult is the routing outcome for one message.
type RecipientResult struct {
	// Valid holds recipient addresses with a known account, plus the admin account
	// id in place of any unknown recipient the admin policy does not bounce.
	Valid *Set
	// Bounced holds original recipient addresses whose resolved account bounces the sender.
	Bounced *Set
	// ForwardTargets is the union of every resolved account's forward targets.
	ForwardTargets *Set
}

// Router classifies recipients.
type Router struct {
	resolver     AccountResolver
	adminAccount string
}

// NewRouter creates a Router that falls back to adminAccount for unknown recipients.
func NewRouter(resolver AccountResolver, adminAccount string) *Router {
	return &Router{
		resolver:     resolver,
		adminAccount: adminAccount,
	}
}

// ProcessRecipients resolves each distinct recipient once. Addresses that differ
// only in case or Unicode form count as one recipient. The admin account is
// fetched before any recipient and must exist.
func (r *Router) ProcessRecipients(ctx context.Context, recipients []string, sender string) (RecipientResult, error) {
	tracer := tracing.Tracer("inbound-router")
	ctx, span := tracer.Start(ctx, "Router.ProcessRecipients")
	defer span.End()

	admin, err := r.resolver.MustGet(ctx, r.adminAccount)
	if err != nil {
		tracing.RecordError(span, err)
		return RecipientResult{}, fmt.Errorf("failed to load admin account: %w", err)
	}

	result := RecipientResult{
		Valid:          NewSet(),
		Bounced:        NewSet(),
		ForwardTargets: NewSet(),
	}
	seen := NewSet()

	for _, recipient := range recipients {
		if !seen.Add(account.CanonicalAddress(recipient)) {
			continue
		}

		res, err := r.resolver.Resolve(ctx, recipient)
		if err != nil {
			tracing.RecordError(span, err)
			return RecipientResult{}, err
		}

		policy := admin
		if res.Found {
			policy = res.Account
		}

		result.ForwardTargets.AddAll(policy.ForwardTargets)
		bounced := bounce.ShouldBounceSender(sender, policy.BounceSenders)
		if bounced {
			result.Bounced.Add(recipient)
		}

		switch {
		case res.Found:
			result.Valid.Add(recipient)
		case !bounced:
			result.Valid.Add(r.adminAccount)
		}
	}

	span.SetAttributes(
		attribute.Int("recipients.valid", result.Valid.Len()),
		attribute.Int("recipients.bounced", result.Bounced.Len()),
		attribute.Int("forward_targets", result.ForwardTargets.Len()),
	)
	return result, nil
}
