// Package memory provides an in-process Store for tests and demos.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/busker"
	"github.com/xraph/busker/payment"
	busstore "github.com/xraph/busker/store"
	"github.com/xraph/busker/track"
	"github.com/xraph/busker/user"
)

// compile-time interface check
var _ busstore.Store = (*Store)(nil)

// Store keeps all ledger state behind a single RWMutex. Mutating methods run
// one at a time, which gives the strict per-operation serialization the
// engine relies on; readers see a consistent snapshot because every returned
// record is a copy.
type Store struct {
	mu sync.RWMutex

	// Track storage
	tracks map[uint64]*track.Track
	nextID uint64

	// User storage (reputation + subscription sets)
	users map[string]*user.User

	// Payment receipts, append-only
	payments []*payment.Payment
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		tracks: make(map[uint64]*track.Track),
		users:  make(map[string]*user.User),
	}
}

// ==================== Track Store ====================

// CreateTrack assigns the next sequential id (starting at 1) and stores the
// track. Ids are never reused, even after removal.
func (s *Store) CreateTrack(_ context.Context, t *track.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	t.ID = s.nextID

	stored := *t
	s.tracks[t.ID] = &stored
	return nil
}

func (s *Store) GetTrack(_ context.Context, trackID uint64) (*track.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tracks[trackID]
	if !ok {
		return nil, busker.ErrTrackNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Store) ListAvailableTracks(_ context.Context, opts track.ListOpts) ([]*track.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*track.Track, 0)
	for _, t := range s.tracks {
		if t.Available {
			cp := *t
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// MarkTrackRemoved flips availability off. The transition is one-way and
// idempotent: removing an already-removed track succeeds.
func (s *Store) MarkTrackRemoved(_ context.Context, trackID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tracks[trackID]
	if !ok {
		return busker.ErrTrackNotFound
	}
	t.Available = false
	t.Touch()
	return nil
}

func (s *Store) ApplyRating(_ context.Context, trackID uint64, rating int64) (*track.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tracks[trackID]
	if !ok {
		return nil, busker.ErrTrackNotFound
	}
	if !t.Available {
		return nil, busker.ErrUnavailable
	}

	t.TotalRating += rating
	t.RatingCount++
	t.Touch()

	cp := *t
	return &cp, nil
}

// ==================== User Store ====================

func (s *Store) GetUser(_ context.Context, principal string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[principal]
	if !ok {
		return nil, busker.ErrNotFound
	}

	cp := *u
	cp.Subscriptions = make(map[uint64]struct{}, len(u.Subscriptions))
	for id := range u.Subscriptions {
		cp.Subscriptions[id] = struct{}{}
	}
	return &cp, nil
}

func (s *Store) SetReputation(_ context.Context, principal string, score int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userLocked(principal).Reputation = score
	return nil
}

// ==================== Subscription Store ====================

// AddSubscription atomically claims the (principal, trackID) pair. Existence
// and availability are rechecked under the same lock so a claim can never
// slip in behind a removal.
func (s *Store) AddSubscription(_ context.Context, principal string, trackID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tracks[trackID]
	if !ok {
		return busker.ErrTrackNotFound
	}
	if !t.Available {
		return busker.ErrUnavailable
	}

	u := s.userLocked(principal)
	if _, exists := u.Subscriptions[trackID]; exists {
		return busker.ErrAlreadySubscribed
	}
	u.Subscriptions[trackID] = struct{}{}
	return nil
}

// ReleaseSubscription rolls back a claim whose payment failed.
func (s *Store) ReleaseSubscription(_ context.Context, principal string, trackID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[principal]; ok {
		delete(u.Subscriptions, trackID)
	}
	return nil
}

func (s *Store) HasSubscription(_ context.Context, principal string, trackID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[principal]
	if !ok {
		return false, nil
	}
	_, subscribed := u.Subscriptions[trackID]
	return subscribed, nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(_ context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.payments = append(s.payments, &cp)
	return nil
}

func (s *Store) ListPayments(_ context.Context, principal string, opts payment.ListOpts) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if p.From == principal || p.To == principal {
			cp := *p
			result = append(result, &cp)
		}
	}
	// Newest first.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// ==================== Store management ====================

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// userLocked returns the user record, creating it on first touch.
// Callers must hold the write lock.
func (s *Store) userLocked(principal string) *user.User {
	u, ok := s.users[principal]
	if !ok {
		u = user.New(principal)
		s.users[principal] = u
	}
	return u
}
