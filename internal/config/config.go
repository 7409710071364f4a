// Package config loads the service configuration from the environment.
package config

import (
	"errors"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting read at cold start.
type Config struct {
	EmailBucket      string `envconfig:"EMAIL_BUCKET" required:"true" desc:"Bucket holding inbound, received and queue objects"`
	AccountAPIURL    string `envconfig:"ACCOUNT_API_URL" required:"true" desc:"Base URL of the account API, which also registers received email"`
	AccountAPIKey    string `envconfig:"ACCOUNT_API_KEY" desc:"API key for the account API; blank signs requests with SigV4"`
	QueueAPIURL      string `envconfig:"QUEUE_API_URL" desc:"Base URL of the outbound queue API"`
	QueueAPIKey      string `envconfig:"QUEUE_API_KEY" desc:"API key for the queue API; blank signs requests with SigV4"`
	AccountTableName string `envconfig:"ACCOUNT_TABLE_NAME" desc:"Read accounts from this DynamoDB table instead of the API"`
	OutboundQueueURL string `envconfig:"OUTBOUND_QUEUE_URL" desc:"Publish outbound email to this SQS queue instead of the API"`
	EmailFrom        string `envconfig:"EMAIL_FROM" required:"true" desc:"Envelope address for forwards and notifications"`
	ErrorEmail       string `envconfig:"ERROR_EMAIL" desc:"Operator address for error notifications"`
	NotifyViaSES     bool   `envconfig:"NOTIFY_VIA_SES" default:"false" desc:"Send notifications directly with SES"`
	AdminAccount     string `envconfig:"ADMIN_ACCOUNT" default:"admin" desc:"Fallback account for unknown recipients"`
	MaxConcurrency   int    `envconfig:"MAX_CONCURRENCY" default:"4" desc:"Parallel uploads, deliveries and forwards"`
	APIMaxRetries    int    `envconfig:"API_MAX_RETRIES" default:"3" desc:"Retries for failed API calls"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks settings that envconfig cannot express. A variable that is set
// but blank passes envconfig's required check, so required values are re-checked here.
func (c *Config) Validate() error {
	switch {
	case c.EmailBucket == "":
		return errors.New("EMAIL_BUCKET must not be empty")
	case c.AccountAPIURL == "":
		return errors.New("ACCOUNT_API_URL must not be empty")
	case c.EmailFrom == "":
		return errors.New("EMAIL_FROM must not be empty")
	}
	if c.QueueAPIURL == "" && c.OutboundQueueURL == "" {
		return errors.New("one of QUEUE_API_URL or OUTBOUND_QUEUE_URL is required")
	}
	if c.AdminAccount == "" {
		return errors.New("ADMIN_ACCOUNT must not be empty")
	}
	if c.MaxConcurrency < 1 {
		return errors.New("MAX_CONCURRENCY must be at least 1")
	}
	if c.APIMaxRetries < 0 {
		return errors.New("API_MAX_RETRIES must not be negative")
	}
	return nil
}

// NotificationsEnabled reports whether failures should be emailed to an operator.
func (c *Config) NotificationsEnabled() bool {
	return c.ErrorEmail != ""
}
