package extension

import (
	"github.com/xraph/busker"
	"github.com/xraph/busker/payment"
	"github.com/xraph/busker/plugin"
	"github.com/xraph/busker/store"
)

// Option configures the Busker Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithPayer sets the payment capability for the ledger engine.
func WithPayer(p payment.Payer) Option {
	return func(e *Extension) {
		e.payer = p
	}
}

// WithBuskerOption passes a busker.Option through to the underlying engine.
func WithBuskerOption(opt busker.Option) Option {
	return func(e *Extension) {
		e.buskerOpts = append(e.buskerOpts, opt)
	}
}

// WithPlugin registers a busker plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.buskerOpts = append(e.buskerOpts, busker.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
