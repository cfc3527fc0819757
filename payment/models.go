// Package payment defines the value-transfer capability the ledger consumes
// and the receipt records it writes after funds move.
package payment

import (
	"github.com/xraph/busker/id"
	"github.com/xraph/busker/types"
)

// Payment is a receipt for a completed subscription payment. Receipts are
// append-only; the marketplace has no refund path, so nothing ever updates
// or deletes one.
type Payment struct {
	types.Entity
	ID      id.PaymentID `json:"id"`
	TrackID uint64       `json:"track_id"`
	From    string       `json:"from"` // listener principal
	To      string       `json:"to"`   // artist principal
	Amount  types.Money  `json:"amount"`
}

// ListOpts controls payment listing queries.
type ListOpts struct {
	Limit  int
	Offset int
}
