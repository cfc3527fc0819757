package busker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/busker/id"
	"github.com/xraph/busker/payment"
	"github.com/xraph/busker/plugin"
	"github.com/xraph/busker/store"
	"github.com/xraph/busker/track"
	"github.com/xraph/busker/types"
)

// Ledger is the marketplace state-transition engine.
//
// It owns all track and user records through an injected store and exposes a
// small set of atomic operations. Callers are identified by an opaque
// principal string; the ledger trusts that identity without authenticating
// it. Funds movement is delegated to an injected payment.Payer.
type Ledger struct {
	store   store.Store
	payer   payment.Payer
	plugins *plugin.Registry
	logger  *slog.Logger
	caps    Capabilities
}

// Capabilities selects which optional surfaces of the marketplace contract
// are present. Two deployments of the original contract were observed, one
// with proof-of-ownership metadata and removal events, one with a listing
// accessor; both shapes are served by flags on a single code path.
type Capabilities struct {
	// ProofOfOwnership requires a non-empty proof string at upload and
	// enables the proof read accessor.
	ProofOfOwnership bool

	// RemovalEvents enables the track-removed event emission.
	RemovalEvents bool

	// Listing enables the available-track listing accessor.
	Listing bool
}

// DefaultCapabilities enables every optional surface.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		ProofOfOwnership: true,
		RemovalEvents:    true,
		Listing:          true,
	}
}

// New creates a new Ledger instance.
func New(s store.Store, p payment.Payer, opts ...Option) *Ledger {
	l := &Ledger{
		store:   s,
		payer:   p,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		caps:    DefaultCapabilities(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithCapabilities selects the optional contract surfaces.
func WithCapabilities(caps Capabilities) Option {
	return func(l *Ledger) {
		l.caps = caps
	}
}

// Capabilities returns the capability set in effect.
func (l *Ledger) Capabilities() Capabilities { return l.caps }

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("busker started",
		"proof_of_ownership", l.caps.ProofOfOwnership,
		"removal_events", l.caps.RemovalEvents,
		"listing", l.caps.Listing,
	)

	return nil
}

// Stop shuts down the Ledger.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// ──────────────────────────────────────────────────
// Track Registration
// ──────────────────────────────────────────────────

// UploadTrackInput carries the artist-supplied track metadata.
type UploadTrackInput struct {
	Title      string
	ArtistName string
	Genre      string // free text, not validated
	Price      types.Money

	// ProofOfOwnership must be non-empty when the capability is enabled.
	ProofOfOwnership string
}

// UploadTrack registers a new track owned by caller and returns its id.
// Ids are sequential starting at 1 and never reused.
func (l *Ledger) UploadTrack(ctx context.Context, caller string, in UploadTrackInput) (uint64, error) {
	if caller == "" {
		return 0, fmt.Errorf("%w: caller principal is empty", ErrInvalidArgument)
	}
	if !in.Price.IsPositive() {
		return 0, fmt.Errorf("%w: price must be positive, got %s", ErrInvalidArgument, in.Price)
	}
	if l.caps.ProofOfOwnership && in.ProofOfOwnership == "" {
		return 0, fmt.Errorf("%w: proof of ownership is required", ErrInvalidArgument)
	}

	t := &track.Track{
		Entity:           types.NewEntity(),
		Title:            in.Title,
		ArtistName:       in.ArtistName,
		Genre:            in.Genre,
		Price:            in.Price,
		ArtistPrincipal:  caller,
		Available:        true,
		ProofOfOwnership: in.ProofOfOwnership,
	}

	if err := l.store.CreateTrack(ctx, t); err != nil {
		return 0, err
	}

	l.plugins.EmitTrackUploaded(ctx, t)

	l.logger.Debug("track uploaded",
		"track_id", t.ID,
		"title", t.Title,
		"artist", t.ArtistName,
		"price", t.Price.String(),
		"artist_principal", t.ArtistPrincipal,
	)

	return t.ID, nil
}

// ──────────────────────────────────────────────────
// Subscriptions
// ──────────────────────────────────────────────────

// Subscribe pays for a one-time, non-revocable subscription granting caller
// rating rights on the track. The payment must equal the track price
// exactly; there is no over- or underpayment tolerance, and no refund path
// exists anywhere in the system — removing a track later does not return
// funds.
//
// The operation is all-or-nothing: the subscription is first claimed
// atomically in the store (so a concurrent duplicate call observes
// ErrAlreadySubscribed rather than double-charging), then the full amount is
// transferred to the owning artist. If the transfer fails the claim is
// released and no state change persists.
func (l *Ledger) Subscribe(ctx context.Context, caller string, trackID uint64, amount types.Money) error {
	t, err := l.store.GetTrack(ctx, trackID)
	if err != nil {
		return err
	}
	if !t.Available {
		return ErrUnavailable
	}
	if !amount.Equal(t.Price) {
		return fmt.Errorf("%w: track %d costs %s, got %s", ErrPaymentMismatch, trackID, t.Price, amount)
	}

	// Claim before paying: exactly one of two concurrent identical calls
	// gets past this point.
	if err := l.store.AddSubscription(ctx, caller, trackID); err != nil {
		return err
	}

	if err := l.payer.Pay(ctx, t.ArtistPrincipal, amount); err != nil {
		if relErr := l.store.ReleaseSubscription(ctx, caller, trackID); relErr != nil {
			l.logger.Error("failed to release subscription claim after transfer failure",
				"listener", caller,
				"track_id", trackID,
				"error", relErr,
			)
		}
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	// The transfer cannot be unwound, so a receipt write failure is logged
	// rather than surfaced.
	receipt := &payment.Payment{
		Entity:  types.NewEntity(),
		ID:      id.NewPaymentID(),
		TrackID: trackID,
		From:    caller,
		To:      t.ArtistPrincipal,
		Amount:  amount,
	}
	if err := l.store.CreatePayment(ctx, receipt); err != nil {
		l.logger.Warn("failed to persist payment receipt",
			"payment_id", receipt.ID.String(),
			"track_id", trackID,
			"error", err,
		)
	}

	l.plugins.EmitTrackListened(ctx, trackID, caller, amount)

	l.logger.Debug("track subscribed",
		"track_id", trackID,
		"listener", caller,
		"amount", amount.String(),
	)

	return nil
}

// ──────────────────────────────────────────────────
// Ratings
// ──────────────────────────────────────────────────

// RateTrack records a rating in [1,5] by a subscribed listener and
// overwrites the owning artist's reputation with this track's new running
// average (floor division).
//
// Two quirks of the original contract are reproduced deliberately:
//   - reputation is not aggregated across the artist's catalogue; whichever
//     track was rated most recently clobbers the score outright;
//   - nothing limits a subscriber to one rating per subscription, so
//     repeated calls keep extending the sum and count.
func (l *Ledger) RateTrack(ctx context.Context, caller string, trackID uint64, rating int64) error {
	t, err := l.store.GetTrack(ctx, trackID)
	if err != nil {
		return err
	}
	if !t.Available {
		return ErrUnavailable
	}
	if rating < track.MinRating || rating > track.MaxRating {
		return fmt.Errorf("%w: rating %d not in [%d,%d]", ErrRatingOutOfRange, rating, track.MinRating, track.MaxRating)
	}

	subscribed, err := l.store.HasSubscription(ctx, caller, trackID)
	if err != nil {
		return err
	}
	if !subscribed {
		return ErrNotSubscribed
	}

	updated, err := l.store.ApplyRating(ctx, trackID, rating)
	if err != nil {
		return err
	}

	if err := l.store.SetReputation(ctx, updated.ArtistPrincipal, updated.AverageRating()); err != nil {
		return err
	}

	l.plugins.EmitTrackRated(ctx, trackID, caller, rating)

	l.logger.Debug("track rated",
		"track_id", trackID,
		"rater", caller,
		"rating", rating,
		"average", updated.AverageRating(),
	)

	return nil
}

// ──────────────────────────────────────────────────
// Removal
// ──────────────────────────────────────────────────

// RemoveTrack delists the track. Only the owning artist may call it; the
// transition is one-way and idempotent for the owner. Existing subscribers
// are not refunded.
func (l *Ledger) RemoveTrack(ctx context.Context, caller string, trackID uint64) error {
	t, err := l.store.GetTrack(ctx, trackID)
	if err != nil {
		return err
	}
	if t.ArtistPrincipal != caller {
		return fmt.Errorf("%w: only the owning artist may remove track %d", ErrUnauthorized, trackID)
	}

	if err := l.store.MarkTrackRemoved(ctx, trackID); err != nil {
		return err
	}

	if l.caps.RemovalEvents {
		l.plugins.EmitTrackRemoved(ctx, trackID, caller)
	}

	l.logger.Debug("track removed",
		"track_id", trackID,
		"owner", caller,
	)

	return nil
}

// ──────────────────────────────────────────────────
// Read accessors
// ──────────────────────────────────────────────────

// GetTrack retrieves a track by id.
func (l *Ledger) GetTrack(ctx context.Context, trackID uint64) (*track.Track, error) {
	return l.store.GetTrack(ctx, trackID)
}

// AvailableTracks returns every currently-available track in ascending id
// order, from a consistent snapshot. Requires the Listing capability.
func (l *Ledger) AvailableTracks(ctx context.Context) ([]*track.Track, error) {
	if !l.caps.Listing {
		return nil, fmt.Errorf("%w: listing", ErrCapabilityDisabled)
	}
	return l.store.ListAvailableTracks(ctx, track.ListOpts{})
}

// ProofOfOwnership returns the proof string registered for the track.
// Unknown tracks yield an empty string rather than an error, mirroring the
// permissive read behavior of the aggregate lookups. Requires the
// ProofOfOwnership capability.
func (l *Ledger) ProofOfOwnership(ctx context.Context, trackID uint64) (string, error) {
	if !l.caps.ProofOfOwnership {
		return "", fmt.Errorf("%w: proof of ownership", ErrCapabilityDisabled)
	}

	t, err := l.store.GetTrack(ctx, trackID)
	if err != nil {
		if IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return t.ProofOfOwnership, nil
}

// UserReputation returns the principal's reputation score, 0 for principals
// whose tracks have never been rated.
func (l *Ledger) UserReputation(ctx context.Context, principal string) (int64, error) {
	u, err := l.store.GetUser(ctx, principal)
	if err != nil {
		if IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return u.Reputation, nil
}

// TrackAverageRating returns floor(totalRating/ratingCount) for the track,
// 0 when the track is unknown or has never been rated.
func (l *Ledger) TrackAverageRating(ctx context.Context, trackID uint64) (int64, error) {
	t, err := l.store.GetTrack(ctx, trackID)
	if err != nil {
		if IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return t.AverageRating(), nil
}

// Payments lists the payment receipts involving the principal, newest first.
func (l *Ledger) Payments(ctx context.Context, principal string, opts payment.ListOpts) ([]*payment.Payment, error) {
	return l.store.ListPayments(ctx, principal, opts)
}

// Subscribed reports whether the principal holds a subscription to the track.
func (l *Ledger) Subscribed(ctx context.Context, principal string, trackID uint64) (bool, error) {
	return l.store.HasSubscription(ctx, principal, trackID)
}
