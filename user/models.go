// Package user defines the per-principal state the ledger keeps: a
// reputation scalar and the set of tracks the principal has subscribed to.
package user

import (
	"github.com/xraph/busker/types"
)

// User is the ledger's view of a principal.
//
// Reputation is a last-writer-wins scalar: each rating on a track the user
// owns overwrites it with that track's running average. Subscriptions only
// ever grow; a subscription is never revoked.
type User struct {
	types.Entity
	Principal  string `json:"principal"`
	Reputation int64  `json:"reputation"`

	// Subscriptions holds the ids of tracks this user has paid for.
	// Membership test only; ordering carries no meaning.
	Subscriptions map[uint64]struct{} `json:"-"`
}

// New returns a User with an empty subscription set.
func New(principal string) *User {
	return &User{
		Entity:        types.NewEntity(),
		Principal:     principal,
		Subscriptions: make(map[uint64]struct{}),
	}
}

// Subscribed reports whether the user has subscribed to the given track.
func (u *User) Subscribed(trackID uint64) bool {
	_, ok := u.Subscriptions[trackID]
	return ok
}
