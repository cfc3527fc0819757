// Package busker provides a music marketplace ledger for Go applications.
//
// Busker is designed as a library, not a service. Import it directly into
// your Go application and wire it to a store backend and a payment
// capability. It provides:
//
//   - Track registration with per-track subscription pricing
//   - Paid subscriptions with exact-amount enforcement and atomic claims
//   - Subscriber-only track ratings on a 1..5 scale
//   - Artist reputation derived from track rating averages
//   - One-way track delisting that preserves history and ids
//   - Pluggable event sinks (audit trails, metrics, indexers)
//
// # Quick Start
//
// Create a ledger instance with your preferred store and a payer:
//
//	import (
//	    "github.com/xraph/busker"
//	    "github.com/xraph/busker/payment"
//	    "github.com/xraph/busker/store/memory"
//	)
//
//	l := busker.New(memory.New(), payment.NewMemoryPayer())
//
//	// Start the ledger (runs store migrations, notifies plugins)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// Artists register tracks with a subscription price:
//
//	t, err := l.UploadTrack(ctx, "artist-principal", busker.UploadTrackInput{
//	    Title:      "Night Drive",
//	    ArtistName: "Neon Harbor",
//	    Genre:      "synthwave",
//	    Price:      busker.USD(199),
//	})
//
// Listeners pay the exact price to subscribe, then rate what they hear:
//
//	if err := l.Subscribe(ctx, "listener-principal", t.ID, t.Price); err != nil {
//	    // busker.ErrPaymentMismatch, busker.ErrAlreadySubscribed, ...
//	}
//	if err := l.RateTrack(ctx, "listener-principal", t.ID, 5); err != nil {
//	    // busker.ErrNotSubscribed, busker.ErrRatingOutOfRange, ...
//	}
//
// Artists can delist their own tracks; removal is permanent and ids are
// never reused:
//
//	err := l.RemoveTrack(ctx, "artist-principal", t.ID)
//
// # Money
//
// All monetary calculations use integer arithmetic to avoid floating-point
// precision issues. The Money type represents amounts in the smallest
// currency unit (cents for USD, pence for GBP, etc). A subscription payment
// must equal the track price exactly; over- and underpayment are both
// rejected.
//
// # Integration
//
// Busker integrates with the Forgery ecosystem:
//
//   - Forge: application lifecycle and DI via the extension package
//   - Grove: SQLite, PostgreSQL, and MongoDB store backends
//   - Chronicle: audit trail via the audithook package
//   - go-utils: production metrics via the observability package
//
// # Identifiers
//
// Tracks use small sequential integer ids, assigned from 1 in upload order
// and never reused. Payment receipts use TypeID for globally unique,
// type-safe identifiers:
//
//	pay_01h2xcejqtf2nbrexx3vqjhp41  // Payment ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of receipts.
package busker
