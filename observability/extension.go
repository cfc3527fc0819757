// Package observability provides a metrics extension for Busker that records
// lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/busker/plugin"
	"github.com/xraph/busker/track"
	"github.com/xraph/busker/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin          = (*MetricsExtension)(nil)
	_ plugin.OnInit          = (*MetricsExtension)(nil)
	_ plugin.OnTrackUploaded = (*MetricsExtension)(nil)
	_ plugin.OnTrackListened = (*MetricsExtension)(nil)
	_ plugin.OnTrackRated    = (*MetricsExtension)(nil)
	_ plugin.OnTrackRemoved  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Busker plugin to automatically track marketplace metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Track metrics
	TrackUploaded Counter
	TrackRemoved  Counter
	TrackPrice    Histogram

	// Subscription metrics
	Subscriptions      Counter
	SubscriptionAmount Histogram

	// Rating metrics
	Ratings     Counter
	RatingValue Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Track metrics
		TrackUploaded: factory.Counter("busker.track.uploaded"),
		TrackRemoved:  factory.Counter("busker.track.removed"),
		TrackPrice:    factory.Histogram("busker.track.price"),

		// Subscription metrics
		Subscriptions:      factory.Counter("busker.subscription.created"),
		SubscriptionAmount: factory.Histogram("busker.subscription.amount"),

		// Rating metrics
		Ratings:     factory.Counter("busker.rating.applied"),
		RatingValue: factory.Histogram("busker.rating.value"),

		// Error metrics
		StoreErrors:  factory.Counter("busker.store.errors"),
		PluginErrors: factory.Counter("busker.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Track lifecycle hooks
// ──────────────────────────────────────────────────

// OnTrackUploaded implements plugin.OnTrackUploaded.
func (m *MetricsExtension) OnTrackUploaded(_ context.Context, t *track.Track) error {
	m.TrackUploaded.Inc()
	m.TrackPrice.Observe(float64(t.Price.Amount))
	return nil
}

// OnTrackListened implements plugin.OnTrackListened.
func (m *MetricsExtension) OnTrackListened(_ context.Context, _ uint64, _ string, amountPaid types.Money) error {
	m.Subscriptions.Inc()
	m.SubscriptionAmount.Observe(float64(amountPaid.Amount))
	return nil
}

// OnTrackRated implements plugin.OnTrackRated.
func (m *MetricsExtension) OnTrackRated(_ context.Context, _ uint64, _ string, rating int64) error {
	m.Ratings.Inc()
	m.RatingValue.Observe(float64(rating))
	return nil
}

// OnTrackRemoved implements plugin.OnTrackRemoved.
func (m *MetricsExtension) OnTrackRemoved(_ context.Context, _ uint64, _ string) error {
	m.TrackRemoved.Inc()
	return nil
}
