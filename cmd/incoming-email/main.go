// Package main implements the SES inbound receipt Lambda handler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jarrod-lowe/jmap-service-libs/logging"
	"github.com/jarrod-lowe/jmap-service-libs/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda/xrayconfig"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jarrod-lowe/inbound-email-service/internal/account"
	"github.com/jarrod-lowe/inbound-email-service/internal/apiclient"
	appconfig "github.com/jarrod-lowe/inbound-email-service/internal/config"
	"github.com/jarrod-lowe/inbound-email-service/internal/emails"
	"github.com/jarrod-lowe/inbound-email-service/internal/inbound"
	"github.com/jarrod-lowe/inbound-email-service/internal/notify"
	"github.com/jarrod-lowe/inbound-email-service/internal/queue"
	"github.com/jarrod-lowe/inbound-email-service/internal/storage"
)

var logger = logging.New()

// Processor routes one received message.
type Processor interface {
	ProcessReceivedEmail(ctx context.Context, messageID string, recipients []string, sender string) error
}

// Notifier reports a failed message to an operator.
type Notifier interface {
	NotifyError(ctx context.Context, messageID string, cause error) error
}

// handler implements the SES receipt logic.
type handler struct {
	processor Processor
	notifier  Notifier
}

// newHandler creates a new handler. notifier may be nil to disable notifications.
func newHandler(processor Processor, notifier Notifier) *handler {
	return &handler{
		processor: processor,
		notifier:  notifier,
	}
}

// handle processes every record in an SES receipt event. Failures are reported
// and never returned, so SES does not redeliver.
func (h *handler) handle(ctx context.Context, event events.SimpleEmailEvent) (string, error) {
	tracer := tracing.Tracer("inbound-email")
	ctx, span := tracer.Start(ctx, "IncomingEmailHandler")
	defer span.End()

	failed := 0
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record.SES); err != nil {
			failed++
		}
	}

	span.SetAttributes(
		attribute.Int("records.count", len(event.Records)),
		attribute.Int("records.failed", failed),
	)
	return fmt.Sprintf("processed %d records, %d failed", len(event.Records), failed), nil
}

func (h *handler) processRecord(ctx context.Context, ses events.SimpleEmailService) error {
	messageID := ses.Mail.MessageID
	recipients := ses.Receipt.Recipients
	if len(recipients) == 0 {
		recipients = ses.Mail.Destination
	}
	sender := ses.Mail.Source

	logger.InfoContext(ctx, "Processing inbound message",
		slog.String("message_id", messageID),
		slog.String("sender", sender),
		slog.Int("recipients", len(recipients)),
	)

	err := h.processor.ProcessReceivedEmail(ctx, messageID, recipients, sender)
	if err == nil {
		return nil
	}

	logger.ErrorContext(ctx, "Failed to process inbound message",
		slog.String("message_id", messageID),
		slog.String("error", err.Error()),
	)

	if h.notifier != nil {
		if nerr := h.notifier.NotifyError(ctx, messageID, err); nerr != nil {
			logger.ErrorContext(ctx, "Failed to send error notification",
				slog.String("message_id", messageID),
				slog.String("error", nerr.Error()),
			)
		}
	}
	return err
}

// newAPIClient builds a backend client. A blank key signs requests with SigV4 instead.
func newAPIClient(baseURL, apiKey string, base http.RoundTripper, signer func(http.RoundTripper) http.RoundTripper, retries int) *apiclient.Client {
	transport := base
	if apiKey == "" {
		transport = signer(base)
	}
	httpClient := &http.Client{Transport: transport, Timeout: 30 * time.Second}
	return apiclient.New(baseURL, apiKey, httpClient, retries)
}

func main() {
	ctx := context.Background()

	cfg, err := appconfig.Load()
	if err != nil {
		logger.Error("FATAL: Failed to load configuration", slog.String("error", err.Error()))
		panic(err)
	}

	tp, err := xrayconfig.NewTracerProvider(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to initialize tracer provider", slog.String("error", err.Error()))
		panic(err)
	}
	otel.SetTracerProvider(tp)

	// X-Ray propagation for the backend HTTP calls
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		xray.Propagator{},
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to load AWS config", slog.String("error", err.Error()))
		panic(err)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	store := storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.EmailBucket)

	baseTransport := otelhttp.NewTransport(http.DefaultTransport)
	signer := func(rt http.RoundTripper) http.RoundTripper {
		return apiclient.NewSigV4Transport(rt, awsCfg.Credentials, awsCfg.Region)
	}
	accountAPI := newAPIClient(cfg.AccountAPIURL, cfg.AccountAPIKey, baseTransport, signer, cfg.APIMaxRetries)

	var backend account.Backend = account.NewHTTPClient(accountAPI)
	if cfg.AccountTableName != "" {
		backend = account.NewDynamoDBRepository(dynamodb.NewFromConfig(awsCfg), cfg.AccountTableName)
	}

	var outbound queue.Sender
	if cfg.OutboundQueueURL != "" {
		outbound = queue.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.OutboundQueueURL)
	} else {
		outbound = queue.NewHTTPSender(newAPIClient(cfg.QueueAPIURL, cfg.QueueAPIKey, baseTransport, signer, cfg.APIMaxRetries))
	}

	router := inbound.NewRouter(account.NewResolver(backend), cfg.AdminAccount)
	relay := inbound.NewRelay(store, queue.NewForwarder(outbound, cfg.EmailFrom), cfg.MaxConcurrency)
	processor := inbound.NewProcessor(store, router, emails.NewClient(accountAPI), relay, logger, cfg.MaxConcurrency)

	var notifier Notifier
	if cfg.NotificationsEnabled() {
		notifySender := outbound
		if cfg.NotifyViaSES {
			notifySender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg))
		}
		notifier = notify.NewNotifier(notifySender, cfg.EmailFrom, cfg.ErrorEmail)
	}

	h := newHandler(processor, notifier)
	lambda.Start(otellambda.InstrumentHandler(h.handle, xrayconfig.WithRecommendedOptions(tp)...))
}
