package routing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/cleancommute/cleancommute/internal/routing"

// ProviderMetrics records routing provider calls and leg cache activity.
type ProviderMetrics struct {
	providerAttr    attribute.KeyValue
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
}

// NewProviderMetrics creates instruments labelled with the provider name.
func NewProviderMetrics(provider string) (*ProviderMetrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"routing.provider.request.duration",
		metric.WithDescription("Duration of routing provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"routing.provider.request.total",
		metric.WithDescription("Total number of routing provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"routing.cache.hits",
		metric.WithDescription("Route legs served from the cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"routing.cache.misses",
		metric.WithDescription("Route legs that required a provider fetch"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{
		providerAttr:    attribute.String("routing.provider", provider),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}, nil
}

// RecordRequest records one provider fetch and its outcome.
func (m *ProviderMetrics) RecordRequest(ctx context.Context, profile RouteProfile, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		m.providerAttr,
		attribute.String("routing.profile", string(profile)),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheHit counts a leg served from cache.
func (m *ProviderMetrics) RecordCacheHit(ctx context.Context, profile RouteProfile) {
	if m == nil {
		return
	}
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(
		m.providerAttr,
		attribute.String("routing.profile", string(profile)),
	))
}

// RecordCacheMiss counts a leg that had to be fetched.
func (m *ProviderMetrics) RecordCacheMiss(ctx context.Context, profile RouteProfile) {
	if m == nil {
		return
	}
	m.cacheMisses.Add(ctx, 1, metric.WithAttributes(
		m.providerAttr,
		attribute.String("routing.profile", string(profile)),
	))
}
