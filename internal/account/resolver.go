package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jarrod-lowe/jmap-service-libs/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Resolution is the outcome of looking up the account behind an address. Found is
// false when the backend has no record; Account is then the zero value.
type Resolution struct {
	AccountID string
	Account   Account
	Found     bool
}

// Resolver maps addresses to accounts.
type Resolver struct {
	backend Backend
}

// NewResolver creates a new Resolver.
func NewResolver(backend Backend) *Resolver {
	return &Resolver{backend: backend}
}

// Resolve looks up the account for address. A missing account is reported through
// Resolution.Found; only backend failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, address string) (Resolution, error) {
	accountID := ExtractAccountFromAddress(address)

	tracer := tracing.Tracer("inbound-account-resolver")
	ctx, span := tracer.Start(ctx, "account.Resolve",
		trace.WithAttributes(tracing.AccountID(accountID)))
	defer span.End()

	acct, err := r.backend.GetAccount(ctx, accountID)
	if errors.Is(err, ErrAccountNotFound) {
		span.SetAttributes(attribute.Bool("account.found", false))
		return Resolution{AccountID: accountID}, nil
	}
	if err != nil {
		tracing.RecordError(span, err)
		return Resolution{}, fmt.Errorf("failed to fetch account %q: %w", accountID, err)
	}

	span.SetAttributes(attribute.Bool("account.found", true))
	return Resolution{AccountID: accountID, Account: *acct, Found: true}, nil
}

// MustGet fetches an account that is required to exist; a missing record is an error.
func (r *Resolver) MustGet(ctx context.Context, accountID string) (Account, error) {
	res, err := r.Resolve(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	if !res.Found {
		return Account{}, fmt.Errorf("account %q: %w", res.AccountID, ErrAccountNotFound)
	}
	return res.Account, nil
}
