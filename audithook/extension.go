// Package audithook bridges Busker lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/busker/id"
	"github.com/xraph/busker/plugin"
	"github.com/xraph/busker/track"
	"github.com/xraph/busker/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin          = (*Extension)(nil)
	_ plugin.OnTrackUploaded = (*Extension)(nil)
	_ plugin.OnTrackListened = (*Extension)(nil)
	_ plugin.OnTrackRated    = (*Extension)(nil)
	_ plugin.OnTrackRemoved  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audithook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	ID         id.ID          `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Busker lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Track lifecycle hooks
// ──────────────────────────────────────────────────

// OnTrackUploaded implements plugin.OnTrackUploaded.
func (e *Extension) OnTrackUploaded(ctx context.Context, t *track.Track) error {
	return e.record(ctx, ActionTrackUploaded, SeverityInfo, OutcomeSuccess,
		ResourceTrack, trackResourceID(t.ID), CategoryCatalog, nil,
		"title", t.Title,
		"artist", t.ArtistPrincipal,
		"price", t.Price.String(),
	)
}

// OnTrackListened implements plugin.OnTrackListened.
func (e *Extension) OnTrackListened(ctx context.Context, trackID uint64, listener string, amountPaid types.Money) error {
	return e.record(ctx, ActionTrackListened, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, trackResourceID(trackID), CategoryPayment, nil,
		"listener", listener,
		"amount", amountPaid.String(),
	)
}

// OnTrackRated implements plugin.OnTrackRated.
func (e *Extension) OnTrackRated(ctx context.Context, trackID uint64, rater string, rating int64) error {
	return e.record(ctx, ActionTrackRated, SeverityInfo, OutcomeSuccess,
		ResourceRating, trackResourceID(trackID), CategoryRating, nil,
		"rater", rater,
		"rating", rating,
	)
}

// OnTrackRemoved implements plugin.OnTrackRemoved.
func (e *Extension) OnTrackRemoved(ctx context.Context, trackID uint64, owner string) error {
	return e.record(ctx, ActionTrackRemoved, SeverityWarning, OutcomeSuccess,
		ResourceTrack, trackResourceID(trackID), CategoryCatalog, nil,
		"owner", owner,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		ID:         id.NewEventID(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audithook: failed to record audit event",
			"event_id", evt.ID.String(),
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

// trackResourceID formats a track id for the audit record.
func trackResourceID(trackID uint64) string {
	return strconv.FormatUint(trackID, 10)
}
