package account

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jarrod-lowe/inbound-email-service/internal/apiclient"
)

// fakeGetter implements JSONGetter for testing.
type fakeGetter struct {
	getFunc func(ctx context.Context, path string, out any) error
}

func (f *fakeGetter) Get(ctx context.Context, path string, out any) error {
	if f.getFunc != nil {
		return f.getFunc(ctx, path, out)
	}
	return nil
}

func TestHTTPClient_GetAccount(t *testing.T) {
	var capturedPath string
	client := NewHTTPClient(&fakeGetter{
		getFunc: func(ctx context.Context, path string, out any) error {
			capturedPath = path
			return json.Unmarshal([]byte(`{"bounceSenders":["spam.net"],"forwardTargets":["f1@x.com"]}`), out)
		},
	})

	acct, err := client.GetAccount(context.Background(), "first last")
	if err != nil {
		t.Fatalf("GetAccount error = %v, want nil", err)
	}

	if capturedPath != "/accounts/first%20last/internal" {
		t.Errorf("path = %q, want %q", capturedPath, "/accounts/first%20last/internal")
	}
	if len(acct.BounceSenders) != 1 || acct.BounceSenders[0] != "spam.net" {
		t.Errorf("BounceSenders = %v, want [spam.net]", acct.BounceSenders)
	}
	if len(acct.ForwardTargets) != 1 || acct.ForwardTargets[0] != "f1@x.com" {
		t.Errorf("ForwardTargets = %v, want [f1@x.com]", acct.ForwardTargets)
	}
}

func TestHTTPClient_GetAccount_NotFound(t *testing.T) {
	client := NewHTTPClient(&fakeGetter{
		getFunc: func(ctx context.Context, path string, out any) error {
			return apiclient.ErrNotFound
		},
	})

	_, err := client.GetAccount(context.Background(), "nobody")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("error = %v, want ErrAccountNotFound", err)
	}
}

func TestHTTPClient_GetAccount_ServerError(t *testing.T) {
	client := NewHTTPClient(&fakeGetter{
		getFunc: func(ctx context.Context, path string, out any) error {
			return apiclient.ErrServerFail
		},
	})

	_, err := client.GetAccount(context.Background(), "e")
	if !errors.Is(err, apiclient.ErrServerFail) {
		t.Errorf("error = %v, want ErrServerFail", err)
	}
	if errors.Is(err, ErrAccountNotFound) {
		t.Error("server failure reported as not found")
	}
}
