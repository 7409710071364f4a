package apiclient

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// signingService is the SigV4 service name for API Gateway endpoints.
const signingService = "execute-api"

// SigV4Transport signs requests for IAM-authorised backends that take no API key.
type SigV4Transport struct {
	wrapped     http.RoundTripper
	credentials aws.CredentialsProvider
	region      string
	signer      *v4.Signer
	now         func() time.Time
}

// NewSigV4Transport wraps a RoundTripper with SigV4 request signing.
func NewSigV4Transport(wrapped http.RoundTripper, credentials aws.CredentialsProvider, region string) *SigV4Transport {
	return &SigV4Transport{
		wrapped:     wrapped,
		credentials: credentials,
		region:      region,
		signer:      v4.NewSigner(),
		now:         time.Now,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *SigV4Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	creds, err := t.credentials.Retrieve(ctx)
	if err != nil {
		return nil, err
	}

	signed := req.Clone(ctx)
	hash, err := hashBody(signed)
	if err != nil {
		return nil, err
	}

	if err := t.signer.SignHTTP(ctx, creds, signed, hash, signingService, t.region, t.now()); err != nil {
		return nil, err
	}
	return t.wrapped.RoundTrip(signed)
}

// hashBody returns the hex SHA-256 of the request body and leaves the body re-readable.
func hashBody(req *http.Request) (string, error) {
	if req.Body == nil || req.Body == http.NoBody {
		sum := sha256.Sum256(nil)
		return hex.EncodeToString(sum[:]), nil
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		return "", err
	}
	req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(data))
	req.ContentLength = int64(len(data))

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
