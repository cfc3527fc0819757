package payment

import (
	"context"
	"strings"
	"sync"

	"github.com/xraph/busker/types"
)

// balanceKey identifies one balance. Balances are kept per currency so a
// principal paid in several currencies holds several independent balances.
type balanceKey struct {
	principal string
	currency  string
}

// MemoryPayer is an in-process Payer that credits balances in a map.
// Use it in tests and demos; production deployments inject a real
// value-transfer backend.
type MemoryPayer struct {
	mu       sync.Mutex
	balances map[balanceKey]types.Money
	err      error
}

// NewMemoryPayer creates an empty in-process payer.
func NewMemoryPayer() *MemoryPayer {
	return &MemoryPayer{
		balances: make(map[balanceKey]types.Money),
	}
}

// Pay credits the recipient's balance in the payment's currency. If a
// failure was injected with FailWith, every call returns that error and no
// balance changes.
func (p *MemoryPayer) Pay(_ context.Context, to string, amount types.Money) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}

	key := balanceKey{principal: to, currency: strings.ToLower(amount.Currency)}
	if current, ok := p.balances[key]; ok {
		p.balances[key] = current.Add(amount)
	} else {
		p.balances[key] = amount
	}
	return nil
}

// Balance returns the recipient's accumulated USD balance. Use BalanceIn for
// other currencies.
func (p *MemoryPayer) Balance(principal string) types.Money {
	return p.BalanceIn(principal, "usd")
}

// BalanceIn returns the recipient's accumulated balance in the given
// currency. A principal never paid in that currency has a zero balance.
func (p *MemoryPayer) BalanceIn(principal, currency string) types.Money {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := balanceKey{principal: principal, currency: strings.ToLower(currency)}
	if b, ok := p.balances[key]; ok {
		return b
	}
	return types.Zero(currency)
}

// FailWith makes subsequent Pay calls fail with err. Pass nil to restore
// normal operation.
func (p *MemoryPayer) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}
