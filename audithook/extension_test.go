package audithook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/xraph/busker/id"
	"github.com/xraph/busker/track"
	"github.com/xraph/busker/types"
)

// captureRecorder collects every event it is handed.
type captureRecorder struct {
	events []*AuditEvent
}

func (r *captureRecorder) Record(_ context.Context, event *AuditEvent) error {
	r.events = append(r.events, event)
	return nil
}

func TestHooksEmitIdentifiedEvents(t *testing.T) {
	ctx := context.Background()
	rec := &captureRecorder{}
	e := New(rec)

	tr := &track.Track{
		ID:              7,
		Title:           "song",
		ArtistPrincipal: "artist",
		Price:           types.USD(100),
	}
	if err := e.OnTrackUploaded(ctx, tr); err != nil {
		t.Fatalf("OnTrackUploaded failed: %v", err)
	}
	if err := e.OnTrackListened(ctx, 7, "listener", types.USD(100)); err != nil {
		t.Fatalf("OnTrackListened failed: %v", err)
	}
	if err := e.OnTrackRated(ctx, 7, "listener", 5); err != nil {
		t.Fatalf("OnTrackRated failed: %v", err)
	}
	if err := e.OnTrackRemoved(ctx, 7, "artist"); err != nil {
		t.Fatalf("OnTrackRemoved failed: %v", err)
	}

	wantActions := []string{
		ActionTrackUploaded,
		ActionTrackListened,
		ActionTrackRated,
		ActionTrackRemoved,
	}
	if len(rec.events) != len(wantActions) {
		t.Fatalf("recorded %d events, want %d", len(rec.events), len(wantActions))
	}

	seen := make(map[string]bool)
	for i, evt := range rec.events {
		if evt.Action != wantActions[i] {
			t.Errorf("event %d: action %q, want %q", i, evt.Action, wantActions[i])
		}
		if evt.ResourceID != "7" {
			t.Errorf("event %d: resource id %q, want %q", i, evt.ResourceID, "7")
		}
		// Every event carries its own evt_ identifier.
		if evt.ID.IsNil() || evt.ID.Prefix() != id.PrefixEvent {
			t.Errorf("event %d: id = %q, want an evt_ identifier", i, evt.ID.String())
		}
		if seen[evt.ID.String()] {
			t.Errorf("event %d: duplicate id %q", i, evt.ID.String())
		}
		seen[evt.ID.String()] = true
	}

	if rec.events[0].Metadata["title"] != "song" {
		t.Errorf("uploaded metadata title = %v, want %q", rec.events[0].Metadata["title"], "song")
	}
	if rec.events[1].Metadata["amount"] != "$1.00" {
		t.Errorf("listened metadata amount = %v, want %q", rec.events[1].Metadata["amount"], "$1.00")
	}
}

func TestDisabledActionsAreSkipped(t *testing.T) {
	ctx := context.Background()
	rec := &captureRecorder{}
	e := New(rec, WithDisabledActions(ActionTrackRated))

	if err := e.OnTrackRated(ctx, 1, "listener", 3); err != nil {
		t.Fatalf("OnTrackRated failed: %v", err)
	}
	if err := e.OnTrackRemoved(ctx, 1, "artist"); err != nil {
		t.Fatalf("OnTrackRemoved failed: %v", err)
	}

	if len(rec.events) != 1 || rec.events[0].Action != ActionTrackRemoved {
		t.Errorf("events = %v, want only %q", rec.events, ActionTrackRemoved)
	}
}

func TestRecorderFailureDoesNotPropagate(t *testing.T) {
	ctx := context.Background()
	failing := RecorderFunc(func(context.Context, *AuditEvent) error {
		return errors.New("sink unavailable")
	})
	e := New(failing, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	if err := e.OnTrackRemoved(ctx, 1, "artist"); err != nil {
		t.Errorf("recorder failure leaked to caller: %v", err)
	}
}
