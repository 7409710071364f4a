// Package account resolves recipient addresses to tenant accounts and their inbound policy.
package account

import (
	"context"
	"errors"
)

// ErrAccountNotFound is returned by a Backend when no account exists for an id.
var ErrAccountNotFound = errors.New("account not found")

// Account is a tenant's inbound policy.
type Account struct {
	// BounceSenders holds sender patterns; an entry may join several patterns with commas.
	BounceSenders []string `json:"bounceSenders"`
	// ForwardTargets are external addresses that receive a copy of every inbound message.
	ForwardTargets []string `json:"forwardTargets,omitempty"`
}

// Backend fetches accounts by id.
type Backend interface {
	GetAccount(ctx context.Context, accountID string) (*Account, error)
}
