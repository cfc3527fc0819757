package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/busker/types"
)

func TestPayAccumulatesPerCurrency(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPayer()

	// One artist can be paid in several currencies; each accumulates
	// independently instead of colliding on a single balance.
	if err := p.Pay(ctx, "artist", types.USD(100)); err != nil {
		t.Fatalf("Pay(usd) failed: %v", err)
	}
	if err := p.Pay(ctx, "artist", types.EUR(100)); err != nil {
		t.Fatalf("Pay(eur) failed: %v", err)
	}
	if err := p.Pay(ctx, "artist", types.USD(50)); err != nil {
		t.Fatalf("Pay(usd again) failed: %v", err)
	}

	if got := p.BalanceIn("artist", "usd"); !got.Equal(types.USD(150)) {
		t.Errorf("usd balance = %s, want %s", got, types.USD(150))
	}
	if got := p.BalanceIn("artist", "eur"); !got.Equal(types.EUR(100)) {
		t.Errorf("eur balance = %s, want %s", got, types.EUR(100))
	}

	// Balance is the usd shorthand.
	if got := p.Balance("artist"); !got.Equal(types.USD(150)) {
		t.Errorf("Balance = %s, want %s", got, types.USD(150))
	}
}

func TestBalanceUnknownPrincipal(t *testing.T) {
	p := NewMemoryPayer()

	if got := p.Balance("nobody"); !got.IsZero() || got.Currency != "usd" {
		t.Errorf("Balance(unknown) = %s, want zero usd", got)
	}
	if got := p.BalanceIn("nobody", "EUR"); !got.IsZero() || got.Currency != "eur" {
		t.Errorf("BalanceIn(unknown, EUR) = %s, want zero eur", got)
	}
}

func TestFailWith(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPayer()

	boom := errors.New("transfer rejected")
	p.FailWith(boom)
	if err := p.Pay(ctx, "artist", types.USD(100)); !errors.Is(err, boom) {
		t.Fatalf("Pay under injected failure: got %v, want %v", err, boom)
	}
	if !p.Balance("artist").IsZero() {
		t.Errorf("balance changed under injected failure: %s", p.Balance("artist"))
	}

	p.FailWith(nil)
	if err := p.Pay(ctx, "artist", types.USD(100)); err != nil {
		t.Fatalf("Pay after clearing failure: %v", err)
	}
	if got := p.Balance("artist"); !got.Equal(types.USD(100)) {
		t.Errorf("balance after recovery = %s, want %s", got, types.USD(100))
	}
}
