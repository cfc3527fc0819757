package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/busker"
	"github.com/xraph/busker/payment"
	busstore "github.com/xraph/busker/store"
	"github.com/xraph/busker/track"
	"github.com/xraph/busker/types"
	"github.com/xraph/busker/user"
)

// Collection name constants.
const (
	colTracks        = "busker_tracks"
	colUsers         = "busker_users"
	colSubscriptions = "busker_subscriptions"
	colPayments      = "busker_payments"
	colCounters      = "busker_counters"
)

// trackCounterKey is the _id of the counter document that allocates
// sequential track ids.
const trackCounterKey = "track_id"

// compile-time interface check
var _ busstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all busker collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("busker/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Track Store ====================

// CreateTrack allocates the next sequential id from the counter document and
// inserts the track under it. The $inc on the counter is atomic, so two
// concurrent uploads can never observe the same id, and ids of removed
// tracks are never handed out again.
func (s *Store) CreateTrack(ctx context.Context, t *track.Track) error {
	newID, err := s.nextTrackID(ctx)
	if err != nil {
		return err
	}

	t.ID = uint64(newID)
	m := toTrackModel(t)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("busker/mongo: create track: %w", err)
	}
	return nil
}

func (s *Store) GetTrack(ctx context.Context, trackID uint64) (*track.Track, error) {
	var m trackModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(trackID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, busker.ErrTrackNotFound
		}
		return nil, fmt.Errorf("busker/mongo: get track: %w", err)
	}
	return fromTrackModel(&m), nil
}

func (s *Store) ListAvailableTracks(ctx context.Context, opts track.ListOpts) ([]*track.Track, error) {
	var models []trackModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"available": true}).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("busker/mongo: list available tracks: %w", err)
	}

	result := make([]*track.Track, len(models))
	for i := range models {
		result[i] = fromTrackModel(&models[i])
	}
	return result, nil
}

func (s *Store) MarkTrackRemoved(ctx context.Context, trackID uint64) error {
	res, err := s.mdb.NewUpdate((*trackModel)(nil)).
		Filter(bson.M{"_id": int64(trackID)}).
		Set("available", false).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("busker/mongo: mark track removed: %w", err)
	}
	if res.MatchedCount() == 0 {
		return busker.ErrTrackNotFound
	}
	return nil
}

// ApplyRating adds to the rating aggregates with a single $inc whose filter
// requires availability, so a rating can never land on a track that was
// removed between the caller's check and this update.
func (s *Store) ApplyRating(ctx context.Context, trackID uint64, rating int64) (*track.Track, error) {
	res, err := s.mdb.NewUpdate((*trackModel)(nil)).
		Filter(bson.M{"_id": int64(trackID), "available": true}).
		SetUpdate(bson.M{
			"$inc": bson.M{"total_rating": rating, "rating_count": 1},
			"$set": bson.M{"updated_at": now()},
		}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("busker/mongo: apply rating: %w", err)
	}
	if res.MatchedCount() == 0 {
		// Distinguish missing from delisted.
		if _, getErr := s.GetTrack(ctx, trackID); getErr != nil {
			return nil, getErr
		}
		return nil, busker.ErrUnavailable
	}

	return s.GetTrack(ctx, trackID)
}

// ==================== User Store ====================

func (s *Store) GetUser(ctx context.Context, principal string) (*user.User, error) {
	var m userModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": principal}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, busker.ErrNotFound
		}
		return nil, fmt.Errorf("busker/mongo: get user: %w", err)
	}

	u := &user.User{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Principal:     m.Principal,
		Reputation:    m.Reputation,
		Subscriptions: make(map[uint64]struct{}),
	}

	var subs []subscriptionModel
	if err := s.mdb.NewFind(&subs).
		Filter(bson.M{"listener_principal": principal}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("busker/mongo: get user subscriptions: %w", err)
	}
	for i := range subs {
		u.Subscriptions[uint64(subs[i].TrackID)] = struct{}{}
	}

	return u, nil
}

func (s *Store) SetReputation(ctx context.Context, principal string, score int64) error {
	t := now()
	_, err := s.mdb.NewUpdate((*userModel)(nil)).
		Filter(bson.M{"_id": principal}).
		SetUpdate(bson.M{
			"$set":         bson.M{"reputation": score, "updated_at": t},
			"$setOnInsert": bson.M{"created_at": t},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("busker/mongo: set reputation: %w", err)
	}
	return nil
}

// ==================== Subscription Store ====================

// AddSubscription claims the (listener, track) pair. The claim document's
// _id is the pair itself, so of two concurrent identical calls exactly one
// insert succeeds and the other fails with a duplicate key error.
func (s *Store) AddSubscription(ctx context.Context, principal string, trackID uint64) error {
	t, err := s.GetTrack(ctx, trackID)
	if err != nil {
		return err
	}
	if !t.Available {
		return busker.ErrUnavailable
	}

	m := &subscriptionModel{
		ID:                subscriptionKey(principal, trackID),
		ListenerPrincipal: principal,
		TrackID:           int64(trackID),
		CreatedAt:         now(),
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return busker.ErrAlreadySubscribed
		}
		return fmt.Errorf("busker/mongo: add subscription: %w", err)
	}
	return nil
}

func (s *Store) ReleaseSubscription(ctx context.Context, principal string, trackID uint64) error {
	_, err := s.mdb.NewDelete((*subscriptionModel)(nil)).
		Filter(bson.M{"_id": subscriptionKey(principal, trackID)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("busker/mongo: release subscription: %w", err)
	}
	return nil
}

func (s *Store) HasSubscription(ctx context.Context, principal string, trackID uint64) (bool, error) {
	var m subscriptionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": subscriptionKey(principal, trackID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return false, nil
		}
		return false, fmt.Errorf("busker/mongo: has subscription: %w", err)
	}
	return true, nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	m := toPaymentModel(p)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("busker/mongo: create payment: %w", err)
	}
	return nil
}

func (s *Store) ListPayments(ctx context.Context, principal string, opts payment.ListOpts) ([]*payment.Payment, error) {
	var models []paymentModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"$or": bson.A{
			bson.M{"from_principal": principal},
			bson.M{"to_principal": principal},
		}}).
		Sort(bson.D{{Key: "created_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("busker/mongo: list payments: %w", err)
	}

	result := make([]*payment.Payment, len(models))
	for i := range models {
		p, err := fromPaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== Helpers ====================

// nextTrackID atomically increments and returns the track id counter,
// creating it on first use. Ids start at 1.
func (s *Store) nextTrackID(ctx context.Context) (int64, error) {
	var counter counterModel
	err := s.mdb.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": trackCounterKey},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("busker/mongo: allocate track id: %w", err)
	}
	return counter.Value, nil
}

// subscriptionKey builds the composite _id for a subscription claim.
func subscriptionKey(principal string, trackID uint64) string {
	return fmt.Sprintf("%s:%d", principal, trackID)
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all busker collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colTracks: {
			{Keys: bson.D{{Key: "available", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "artist_principal", Value: 1}}},
		},
		colUsers: {},
		colSubscriptions: {
			{Keys: bson.D{{Key: "listener_principal", Value: 1}}},
			{Keys: bson.D{{Key: "track_id", Value: 1}}},
		},
		colPayments: {
			{Keys: bson.D{{Key: "from_principal", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "to_principal", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colCounters: {},
	}
}
