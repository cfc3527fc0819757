package audithook

// Action constants for audit events.
const (
	// Track actions
	ActionTrackUploaded = "track.uploaded"
	ActionTrackListened = "track.listened"
	ActionTrackRated    = "track.rated"
	ActionTrackRemoved  = "track.removed"
)

// Resource constants for audit events.
const (
	ResourceTrack        = "track"
	ResourceSubscription = "subscription"
	ResourceRating       = "rating"
)

// Category constants for audit events.
const (
	CategoryCatalog = "catalog"
	CategoryPayment = "payment"
	CategoryRating  = "rating"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
