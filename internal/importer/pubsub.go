package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// JobCatalogImport loads a JSONL file of cleaned items into the catalog.
const JobCatalogImport = "catalog_import"

// Job handling errors.
var (
	ErrUnknownJob    = errors.New("unknown job type")
	ErrMalformedJob  = errors.New("malformed job message")
	ErrTooManyFailed = errors.New("too many items failed to import")
)

// JobMessage is the payload published to the import topic.
type JobMessage struct {
	JobType string `json:"job_type"`
	// Path is a local path or an http(s) URL of a JSONL file.
	Path string `json:"path,omitempty"`
}

// PathLoader loads catalog items from a location. Loader implements it.
type PathLoader interface {
	LoadPath(ctx context.Context, location string) (*LoadResult, error)
}

// PubSubConfig configures a PubSubHandler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Loader           PathLoader
	Logger           zerolog.Logger
}

// PubSubHandler runs import jobs received from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	jobs             *JobRunner
	logger           zerolog.Logger
}

// NewPubSubHandler connects to Pub/Sub and prepares the subscriber.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	// Imports are long running; keep few in flight and extend leases.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 2
	subscriber.ReceiveSettings.MaxExtension = 30 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		jobs:             NewJobRunner(cfg.Loader, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start receives messages until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		if h.jobs.Handle(logger.WithContext(ctx), msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// JobRunner decodes and runs import jobs independently of the transport.
type JobRunner struct {
	loader PathLoader
	logger zerolog.Logger
}

// NewJobRunner creates a job runner.
func NewJobRunner(loader PathLoader, logger zerolog.Logger) *JobRunner {
	return &JobRunner{loader: loader, logger: logger}
}

// Handle runs the job in data and reports whether the message should be
// acknowledged. Unknown and malformed jobs are acknowledged so they are not
// redelivered; failed imports are not.
func (r *JobRunner) Handle(ctx context.Context, data []byte) bool {
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &r.logger
	}

	start := time.Now()
	job, err := r.Run(ctx, data)
	switch {
	case errors.Is(err, ErrUnknownJob), errors.Is(err, ErrMalformedJob):
		logger.Warn().Err(err).Str("job_type", job.JobType).Msg("job dropped")
		return true
	case err != nil:
		logger.Error().Err(err).Str("job_type", job.JobType).Msg("job failed")
		return false
	}

	logger.Info().
		Str("job_type", job.JobType).
		Dur("duration", time.Since(start)).
		Msg("job completed successfully")
	return true
}

// Run decodes data and executes the job.
func (r *JobRunner) Run(ctx context.Context, data []byte) (JobMessage, error) {
	var job JobMessage
	if err := json.Unmarshal(data, &job); err != nil {
		return job, fmt.Errorf("%w: %w", ErrMalformedJob, err)
	}

	switch job.JobType {
	case JobCatalogImport:
		if job.Path == "" {
			return job, fmt.Errorf("%w: path is required", ErrMalformedJob)
		}
		return job, r.catalogImport(ctx, job.Path)
	default:
		return job, fmt.Errorf("%w: %q", ErrUnknownJob, job.JobType)
	}
}

func (r *JobRunner) catalogImport(ctx context.Context, path string) error {
	result, err := r.loader.LoadPath(ctx, path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	// Consider the job failed when more items failed than were imported.
	if result.Failed > result.Imported {
		return fmt.Errorf("%w: %d/%d", ErrTooManyFailed, result.Failed, result.Total)
	}
	return nil
}
