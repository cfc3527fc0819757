// Package track defines the Track aggregate: a priced music listing with
// availability and rating state.
package track

import (
	"github.com/xraph/busker/types"
)

// Track is a registered music listing.
//
// The ID is a sequential positive integer assigned by the store, starting at
// 1 and never reused. Availability is one-way: once a track is removed it can
// never become available again.
type Track struct {
	types.Entity
	ID              uint64      `json:"id"`
	Title           string      `json:"title"`
	ArtistName      string      `json:"artist_name"`
	Genre           string      `json:"genre"` // free text, unvalidated
	Price           types.Money `json:"price"`
	ArtistPrincipal string      `json:"artist_principal"`

	// TotalListeners is declared and exposed but never incremented by any
	// operation. It is kept as a literal always-zero field for compatibility
	// with the original contract's storage layout.
	TotalListeners int64 `json:"total_listeners"`

	TotalRating int64 `json:"total_rating"`
	RatingCount int64 `json:"rating_count"`
	Available   bool  `json:"available"`

	// ProofOfOwnership is optional metadata; whether it is required at upload
	// is a ledger capability.
	ProofOfOwnership string `json:"proof_of_ownership,omitempty"`
}

// AverageRating returns the floor of TotalRating/RatingCount, or 0 when the
// track has never been rated (guards the division by zero).
func (t *Track) AverageRating() int64 {
	if t.RatingCount == 0 {
		return 0
	}
	return t.TotalRating / t.RatingCount
}

// RatingBounds are the inclusive limits for a single rating value.
const (
	MinRating = 1
	MaxRating = 5
)

// ListOpts controls track listing queries.
type ListOpts struct {
	Limit  int
	Offset int
}
