package extension

// Config holds the Busker extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.busker" or "busker" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DisableProofOfOwnership turns off ownership receipts on upload and the
	// proof lookup surface.
	DisableProofOfOwnership bool `json:"disable_proof_of_ownership" mapstructure:"disable_proof_of_ownership" yaml:"disable_proof_of_ownership"`

	// DisableRemovalEvents suppresses plugin notifications when a track is
	// delisted.
	DisableRemovalEvents bool `json:"disable_removal_events" mapstructure:"disable_removal_events" yaml:"disable_removal_events"`

	// DisableListing turns off the available-tracks listing surface.
	DisableListing bool `json:"disable_listing" mapstructure:"disable_listing" yaml:"disable_listing"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
// All capabilities are enabled by default.
func DefaultConfig() Config {
	return Config{}
}
