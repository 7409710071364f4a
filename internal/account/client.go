package account

import (
	"context"
	"errors"
	"net/url"

	"github.com/jarrod-lowe/inbound-email-service/internal/apiclient"
)

// JSONGetter is the subset of apiclient.Client used to read accounts.
type JSONGetter interface {
	Get(ctx context.Context, path string, out any) error
}

// HTTPClient reads accounts from the accounts REST API.
type HTTPClient struct {
	api JSONGetter
}

// NewHTTPClient creates a new HTTPClient.
func NewHTTPClient(api JSONGetter) *HTTPClient {
	return &HTTPClient{api: api}
}

// GetAccount fetches the inbound policy for accountID.
func (c *HTTPClient) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	var acct Account
	err := c.api.Get(ctx, "/accounts/"+url.PathEscape(accountID)+"/internal", &acct)
	if errors.Is(err, apiclient.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}
