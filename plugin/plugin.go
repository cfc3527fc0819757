// Package plugin provides the event-sink plugin system for Busker.
// Plugins hook into ledger lifecycle events to extend functionality:
// indexers, audit trails, metrics, notification fan-out.
package plugin

import (
	"context"

	"github.com/xraph/busker/track"
	"github.com/xraph/busker/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, ledger interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Track lifecycle hooks
// ──────────────────────────────────────────────────

// OnTrackUploaded is called when an artist registers a new track.
type OnTrackUploaded interface {
	Plugin
	OnTrackUploaded(ctx context.Context, t *track.Track) error
}

// OnTrackListened is called when a listener pays for a subscription.
type OnTrackListened interface {
	Plugin
	OnTrackListened(ctx context.Context, trackID uint64, listener string, amountPaid types.Money) error
}

// OnTrackRated is called when a subscriber rates a track.
type OnTrackRated interface {
	Plugin
	OnTrackRated(ctx context.Context, trackID uint64, rater string, rating int64) error
}

// OnTrackRemoved is called when an artist delists a track.
type OnTrackRemoved interface {
	Plugin
	OnTrackRemoved(ctx context.Context, trackID uint64, owner string) error
}
