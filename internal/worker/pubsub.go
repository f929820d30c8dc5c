package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job types accepted on the worker subscription.
const (
	JobTypeCacheWarmup = "cache_warmup"
	JobTypeHealthCheck = "health_check"
)

// JobMessage is the payload published to trigger a worker job.
type JobMessage struct {
	JobType string `json:"job_type"`

	// Profiles optionally restricts a cache_warmup run to the given
	// routing profiles.
	Profiles []string `json:"profiles,omitempty"`
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	WarmupJob        *WarmupJob
	Logger           zerolog.Logger
}

// PubSubHandler consumes job messages and runs warmup jobs.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	warmupJob        *WarmupJob
	logger           zerolog.Logger
}

// NewPubSubHandler creates a Pub/Sub handler for the given subscription.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Warmup runs are long: keep few messages outstanding but extend
	// their leases generously.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		warmupJob:        cfg.WarmupJob,
		logger:           cfg.Logger,
	}, nil
}

// Start blocks receiving messages until ctx is cancelled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, h.handleMessage)
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()
	logger.Debug().Msg("received pubsub message")

	// A payload that does not parse will not parse on redelivery
	// either, so ack it instead of looping.
	var job JobMessage
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Ack()
		return
	}

	start := time.Now()
	handled, err := h.dispatch(ctx, job)
	switch {
	case !handled:
		logger.Warn().Str("job_type", job.JobType).Msg("unknown job type")
		msg.Ack()
	case err != nil:
		logger.Error().Err(err).Str("job_type", job.JobType).Msg("job failed")
		msg.Nack()
	default:
		logger.Info().
			Str("job_type", job.JobType).
			Dur("duration", time.Since(start)).
			Msg("job completed")
		msg.Ack()
	}
}

// dispatch runs the handler for the job type. The bool reports whether
// the type is known; unknown jobs are acked rather than retried.
func (h *PubSubHandler) dispatch(ctx context.Context, job JobMessage) (bool, error) {
	switch job.JobType {
	case JobTypeCacheWarmup:
		return true, h.runWarmup(ctx, job)
	case JobTypeHealthCheck:
		return true, h.runHealthCheck(ctx)
	default:
		return false, nil
	}
}

func (h *PubSubHandler) runWarmup(ctx context.Context, msg JobMessage) error {
	job := h.warmupJob
	if len(msg.Profiles) > 0 {
		job = job.withProfiles(msg.Profiles)
	}

	h.logger.Info().
		Strs("profiles", job.config.Profiles).
		Msg("starting cache warmup")

	result := job.Run(ctx)

	h.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Int("total_tasks", result.TotalTasks).
		Msg("cache warmup completed")

	// The run counts as failed only when failures outnumber successes;
	// single flaky corridors should not trigger redelivery.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many warmup failures: %d/%d", result.Failed, result.TotalTasks)
	}
	return nil
}

// runHealthCheck resolves one well-known corridor to verify provider
// connectivity end to end.
func (h *PubSubHandler) runHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	probe := NewWarmupJob(WarmupJobConfig{
		Config: WarmupConfig{
			Corridors: []Corridor{
				{
					Name:        "health-check",
					Priority:    1,
					Origin:      Point{Lat: 52.3676, Lon: 4.9041}, // Amsterdam Centraal
					Destination: Point{Lat: 52.0907, Lon: 5.1214}, // Utrecht Centraal
				},
			},
			Profiles:    []string{"driving-car"},
			Concurrency: 1,
			Timeout:     10 * time.Second,
		},
		Logger: h.logger,
		Routes: h.warmupJob.routes,
	})

	result := probe.Run(ctx)
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %d errors", result.Failed)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
