// Package store defines the unified storage interface for all Busker
// entities. Backends must make every mutating method atomic: callers rely on
// AddSubscription behaving as an exclusive claim and on ApplyRating being a
// single serialized update.
package store

import (
	"context"

	"github.com/xraph/busker/payment"
	"github.com/xraph/busker/track"
	"github.com/xraph/busker/user"
)

// Store is the unified storage interface for all Busker entities.
// Instead of embedding sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Track methods.
	//
	// CreateTrack assigns the next sequential id (starting at 1, never
	// reused) and persists the track. ListAvailableTracks returns available
	// tracks in ascending id order from a consistent snapshot.
	// MarkTrackRemoved is idempotent and one-way. ApplyRating atomically
	// adds to the rating aggregates of an available track and returns the
	// updated track; it fails with the ledger's not-found/unavailable
	// sentinels otherwise.
	CreateTrack(ctx context.Context, t *track.Track) error
	GetTrack(ctx context.Context, trackID uint64) (*track.Track, error)
	ListAvailableTracks(ctx context.Context, opts track.ListOpts) ([]*track.Track, error)
	MarkTrackRemoved(ctx context.Context, trackID uint64) error
	ApplyRating(ctx context.Context, trackID uint64, rating int64) (*track.Track, error)

	// User methods.
	//
	// GetUser returns the not-found sentinel for principals the ledger has
	// never seen; SetReputation upserts.
	GetUser(ctx context.Context, principal string) (*user.User, error)
	SetReputation(ctx context.Context, principal string, score int64) error

	// Subscription methods.
	//
	// AddSubscription is an atomic claim: of two concurrent calls for the
	// same (principal, trackID) pair exactly one succeeds and the other
	// observes the already-subscribed sentinel. ReleaseSubscription exists
	// only to roll back a claim whose payment failed; the public API never
	// revokes a subscription.
	AddSubscription(ctx context.Context, principal string, trackID uint64) error
	ReleaseSubscription(ctx context.Context, principal string, trackID uint64) error
	HasSubscription(ctx context.Context, principal string, trackID uint64) (bool, error)

	// Payment methods.
	CreatePayment(ctx context.Context, p *payment.Payment) error
	ListPayments(ctx context.Context, principal string, opts payment.ListOpts) ([]*payment.Payment, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
