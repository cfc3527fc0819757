package payment

import (
	"context"

	"github.com/xraph/busker/types"
)

// Payer is the external funds-movement primitive the ledger invokes when a
// listener subscribes to a track. Implementations move the full amount to
// the recipient and report success or failure; the ledger treats any error
// as a signal to abort the whole subscription.
//
// The ledger never retries a failed transfer on its own — retrying is the
// caller's responsibility.
type Payer interface {
	Pay(ctx context.Context, to string, amount types.Money) error
}

// PayerFunc is an adapter to use a plain function as a Payer.
type PayerFunc func(ctx context.Context, to string, amount types.Money) error

// Pay implements Payer.
func (f PayerFunc) Pay(ctx context.Context, to string, amount types.Money) error {
	return f(ctx, to, amount)
}
