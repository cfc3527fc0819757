package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/busker"
	"github.com/xraph/busker/id"
	"github.com/xraph/busker/payment"
	busstore "github.com/xraph/busker/store"
	"github.com/xraph/busker/track"
	"github.com/xraph/busker/types"
	"github.com/xraph/busker/user"
)

// compile-time interface check
var _ busstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("busker/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("busker/sqlite: migration failed: %w", err)
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

// ==================== Models ====================

type trackModel struct {
	grove.BaseModel `grove:"table:busker_tracks"`

	ID               int64     `grove:"id,pk"`
	Title            string    `grove:"title"`
	ArtistName       string    `grove:"artist_name"`
	Genre            string    `grove:"genre"`
	PriceAmount      int64     `grove:"price_amount"`
	PriceCurrency    string    `grove:"price_currency"`
	ArtistPrincipal  string    `grove:"artist_principal"`
	TotalListeners   int64     `grove:"total_listeners"`
	TotalRating      int64     `grove:"total_rating"`
	RatingCount      int64     `grove:"rating_count"`
	Available        bool      `grove:"available"`
	ProofOfOwnership string    `grove:"proof_of_ownership"`
	CreatedAt        time.Time `grove:"created_at"`
	UpdatedAt        time.Time `grove:"updated_at"`
}

func fromTrackModel(m *trackModel) *track.Track {
	return &track.Track{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:               uint64(m.ID),
		Title:            m.Title,
		ArtistName:       m.ArtistName,
		Genre:            m.Genre,
		Price:            types.Money{Amount: m.PriceAmount, Currency: m.PriceCurrency},
		ArtistPrincipal:  m.ArtistPrincipal,
		TotalListeners:   m.TotalListeners,
		TotalRating:      m.TotalRating,
		RatingCount:      m.RatingCount,
		Available:        m.Available,
		ProofOfOwnership: m.ProofOfOwnership,
	}
}

type userModel struct {
	grove.BaseModel `grove:"table:busker_users"`

	Principal  string    `grove:"principal,pk"`
	Reputation int64     `grove:"reputation"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
}

type subscriptionModel struct {
	grove.BaseModel `grove:"table:busker_subscriptions"`

	ListenerPrincipal string    `grove:"listener_principal,pk"`
	TrackID           int64     `grove:"track_id,pk"`
	CreatedAt         time.Time `grove:"created_at"`
}

type paymentModel struct {
	grove.BaseModel `grove:"table:busker_payments"`

	ID            string    `grove:"id,pk"`
	TrackID       int64     `grove:"track_id"`
	FromPrincipal string    `grove:"from_principal"`
	ToPrincipal   string    `grove:"to_principal"`
	Amount        int64     `grove:"amount"`
	Currency      string    `grove:"currency"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	payID, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, err
	}
	return &payment.Payment{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:      payID,
		TrackID: uint64(m.TrackID),
		From:    m.FromPrincipal,
		To:      m.ToPrincipal,
		Amount:  types.Money{Amount: m.Amount, Currency: m.Currency},
	}, nil
}

// ==================== Track Store ====================

// CreateTrack inserts the track and lets SQLite's AUTOINCREMENT allocate the
// next sequential id; RETURNING reads it back in the same statement so two
// concurrent uploads can never observe the same id.
func (s *Store) CreateTrack(ctx context.Context, t *track.Track) error {
	var newID int64
	err := s.sdb.NewRaw(`
		INSERT INTO busker_tracks (
			title, artist_name, genre, price_amount, price_currency,
			artist_principal, total_listeners, total_rating, rating_count,
			available, proof_of_ownership, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, t.Title, t.ArtistName, t.Genre, t.Price.Amount, t.Price.Currency,
		t.ArtistPrincipal, t.TotalListeners, t.TotalRating, t.RatingCount,
		t.Available, t.ProofOfOwnership, t.CreatedAt, t.UpdatedAt,
	).Scan(ctx, &newID)
	if err != nil {
		return fmt.Errorf("busker/sqlite: create track: %w", err)
	}

	t.ID = uint64(newID)
	return nil
}

func (s *Store) GetTrack(ctx context.Context, trackID uint64) (*track.Track, error) {
	m := new(trackModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", int64(trackID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, busker.ErrTrackNotFound
		}
		return nil, err
	}
	return fromTrackModel(m), nil
}

func (s *Store) ListAvailableTracks(ctx context.Context, opts track.ListOpts) ([]*track.Track, error) {
	var models []trackModel
	q := s.sdb.NewSelect(&models).Where("available = ?", true)

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*track.Track, len(models))
	for i := range models {
		result[i] = fromTrackModel(&models[i])
	}
	return result, nil
}

func (s *Store) MarkTrackRemoved(ctx context.Context, trackID uint64) error {
	res, err := s.sdb.NewUpdate((*trackModel)(nil)).
		Set("available = ?", false).
		Set("updated_at = ?", now()).
		Where("id = ?", int64(trackID)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return busker.ErrTrackNotFound
	}
	return nil
}

// ApplyRating adds to the rating aggregates in a single conditional UPDATE;
// the availability predicate keeps a rating from landing on a track that was
// removed between the caller's check and this statement.
func (s *Store) ApplyRating(ctx context.Context, trackID uint64, rating int64) (*track.Track, error) {
	res, err := s.sdb.NewUpdate((*trackModel)(nil)).
		Set("total_rating = total_rating + ?", rating).
		Set("rating_count = rating_count + 1").
		Set("updated_at = ?", now()).
		Where("id = ?", int64(trackID)).
		Where("available = ?", true).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
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
	m := new(userModel)
	err := s.sdb.NewSelect(m).
		Where("principal = ?", principal).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, busker.ErrNotFound
		}
		return nil, err
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
	if err := s.sdb.NewSelect(&subs).
		Where("listener_principal = ?", principal).
		Scan(ctx); err != nil {
		return nil, err
	}
	for i := range subs {
		u.Subscriptions[uint64(subs[i].TrackID)] = struct{}{}
	}

	return u, nil
}

func (s *Store) SetReputation(ctx context.Context, principal string, score int64) error {
	t := now()
	m := &userModel{
		Principal:  principal,
		Reputation: score,
		CreatedAt:  t,
		UpdatedAt:  t,
	}
	_, err := s.sdb.NewInsert(m).
		OnConflict("(principal) DO UPDATE").
		Set("reputation = EXCLUDED.reputation").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ==================== Subscription Store ====================

// AddSubscription claims the (listener, track) pair; the primary key makes
// the claim exclusive, so of two concurrent identical calls exactly one
// inserts a row and the other sees the conflict.
func (s *Store) AddSubscription(ctx context.Context, principal string, trackID uint64) error {
	t, err := s.GetTrack(ctx, trackID)
	if err != nil {
		return err
	}
	if !t.Available {
		return busker.ErrUnavailable
	}

	m := &subscriptionModel{
		ListenerPrincipal: principal,
		TrackID:           int64(trackID),
		CreatedAt:         now(),
	}
	res, err := s.sdb.NewInsert(m).
		OnConflict("(listener_principal, track_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return busker.ErrAlreadySubscribed
	}
	return nil
}

func (s *Store) ReleaseSubscription(ctx context.Context, principal string, trackID uint64) error {
	_, err := s.sdb.NewDelete((*subscriptionModel)(nil)).
		Where("listener_principal = ?", principal).
		Where("track_id = ?", int64(trackID)).
		Exec(ctx)
	return err
}

func (s *Store) HasSubscription(ctx context.Context, principal string, trackID uint64) (bool, error) {
	m := new(subscriptionModel)
	err := s.sdb.NewSelect(m).
		Where("listener_principal = ?", principal).
		Where("track_id = ?", int64(trackID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	m := &paymentModel{
		ID:            p.ID.String(),
		TrackID:       int64(p.TrackID),
		FromPrincipal: p.From,
		ToPrincipal:   p.To,
		Amount:        p.Amount.Amount,
		Currency:      p.Amount.Currency,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) ListPayments(ctx context.Context, principal string, opts payment.ListOpts) ([]*payment.Payment, error) {
	var models []paymentModel
	q := s.sdb.NewSelect(&models).
		Where("from_principal = ? OR to_principal = ?", principal, principal)

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
