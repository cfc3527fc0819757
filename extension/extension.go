// Package extension provides the Forge extension adapter for Busker.
//
// It implements the forge.Extension interface to integrate Busker
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.busker" or "busker" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/busker"
	"github.com/xraph/busker/payment"
	"github.com/xraph/busker/store"
	"github.com/xraph/busker/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "busker"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Music marketplace ledger engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Busker as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *busker.Ledger
	store      store.Store
	payer      payment.Payer
	buskerOpts []busker.Option
}

// New creates a new Busker Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *busker.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use in-process defaults when nothing was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}
	if e.payer == nil {
		e.payer = payment.NewMemoryPayer()
	}

	// Build busker options from resolved config.
	opts := e.buildBuskerOpts()

	eng := busker.New(e.store, e.payer, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*busker.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("busker: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("busker: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildBuskerOpts constructs busker.Option values from the resolved config.
func (e *Extension) buildBuskerOpts() []busker.Option {
	opts := make([]busker.Option, 0, len(e.buskerOpts)+1)

	caps := busker.Capabilities{
		ProofOfOwnership: !e.config.DisableProofOfOwnership,
		RemovalEvents:    !e.config.DisableRemovalEvents,
		Listing:          !e.config.DisableListing,
	}
	opts = append(opts, busker.WithCapabilities(caps))

	// Append any pass-through busker options.
	opts = append(opts, e.buskerOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("busker: configuration is required but not found in config files; " +
				"ensure 'extensions.busker' or 'busker' key exists in your config")
		}

		e.config = programmaticConfig
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("busker: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("disable_proof_of_ownership", e.config.DisableProofOfOwnership),
		forge.F("disable_removal_events", e.config.DisableRemovalEvents),
		forge.F("disable_listing", e.config.DisableListing),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.busker" first (namespaced pattern).
	if cm.IsSet("extensions.busker") {
		if err := cm.Bind("extensions.busker", &cfg); err == nil {
			e.Logger().Debug("busker: loaded config from file",
				forge.F("key", "extensions.busker"),
			)
			return cfg, true
		}
		e.Logger().Warn("busker: failed to bind extensions.busker config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "busker" key.
	if cm.IsSet("busker") {
		if err := cm.Bind("busker", &cfg); err == nil {
			e.Logger().Debug("busker: loaded config from file",
				forge.F("key", "busker"),
			)
			return cfg, true
		}
		e.Logger().Warn("busker: failed to bind busker config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeConfigurations merges YAML config with programmatic options.
// Programmatic bool flags override when true.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableProofOfOwnership {
		yamlConfig.DisableProofOfOwnership = true
	}
	if programmaticConfig.DisableRemovalEvents {
		yamlConfig.DisableRemovalEvents = true
	}
	if programmaticConfig.DisableListing {
		yamlConfig.DisableListing = true
	}
	return yamlConfig
}
