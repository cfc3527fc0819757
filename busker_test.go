package busker_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/xraph/busker"
	"github.com/xraph/busker/payment"
	"github.com/xraph/busker/store/memory"
	"github.com/xraph/busker/types"
)

func newLedger(t *testing.T, opts ...busker.Option) (*busker.Ledger, *payment.MemoryPayer) {
	t.Helper()

	payer := payment.NewMemoryPayer()
	l := busker.New(memory.New(), payer, opts...)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = l.Stop() })

	return l, payer
}

func upload(t *testing.T, l *busker.Ledger, artist, title string, price types.Money) uint64 {
	t.Helper()

	trackID, err := l.UploadTrack(context.Background(), artist, busker.UploadTrackInput{
		Title:            title,
		ArtistName:       artist,
		Genre:            "synthwave",
		Price:            price,
		ProofOfOwnership: "proof-" + title,
	})
	if err != nil {
		t.Fatalf("UploadTrack(%q) failed: %v", title, err)
	}
	return trackID
}

func TestUploadTrack(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	t.Run("SequentialIDs", func(t *testing.T) {
		first := upload(t, l, "artist-1", "one", busker.USD(100))
		second := upload(t, l, "artist-1", "two", busker.USD(200))
		third := upload(t, l, "artist-2", "three", busker.USD(300))

		if first != 1 || second != 2 || third != 3 {
			t.Errorf("expected ids 1,2,3, got %d,%d,%d", first, second, third)
		}
	})

	t.Run("EmptyCaller", func(t *testing.T) {
		_, err := l.UploadTrack(ctx, "", busker.UploadTrackInput{
			Title: "x", Price: busker.USD(100), ProofOfOwnership: "p",
		})
		if !errors.Is(err, busker.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("NonPositivePrice", func(t *testing.T) {
		for _, amount := range []int64{0, -100} {
			_, err := l.UploadTrack(ctx, "artist-1", busker.UploadTrackInput{
				Title: "x", Price: busker.USD(amount), ProofOfOwnership: "p",
			})
			if !errors.Is(err, busker.ErrInvalidArgument) {
				t.Errorf("price %d: expected ErrInvalidArgument, got %v", amount, err)
			}
		}
	})

	t.Run("MissingProof", func(t *testing.T) {
		_, err := l.UploadTrack(ctx, "artist-1", busker.UploadTrackInput{
			Title: "x", Price: busker.USD(100),
		})
		if !errors.Is(err, busker.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestUnknownTrackReads(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	// Aggregate lookups on unknown entities answer zero, not an error.
	rep, err := l.UserReputation(ctx, "nobody")
	if err != nil || rep != 0 {
		t.Errorf("UserReputation(unknown) = (%d, %v), want (0, nil)", rep, err)
	}

	avg, err := l.TrackAverageRating(ctx, 999)
	if err != nil || avg != 0 {
		t.Errorf("TrackAverageRating(unknown) = (%d, %v), want (0, nil)", avg, err)
	}

	proof, err := l.ProofOfOwnership(ctx, 999)
	if err != nil || proof != "" {
		t.Errorf("ProofOfOwnership(unknown) = (%q, %v), want (\"\", nil)", proof, err)
	}

	// The direct getter does report absence.
	if _, err := l.GetTrack(ctx, 999); !busker.IsNotFound(err) {
		t.Errorf("GetTrack(unknown): expected not-found, got %v", err)
	}

	// Mutating operations report absence too.
	if err := l.Subscribe(ctx, "listener", 999, busker.USD(100)); !busker.IsNotFound(err) {
		t.Errorf("Subscribe(unknown): expected not-found, got %v", err)
	}
	if err := l.RateTrack(ctx, "listener", 999, 3); !busker.IsNotFound(err) {
		t.Errorf("RateTrack(unknown): expected not-found, got %v", err)
	}
	if err := l.RemoveTrack(ctx, "artist", 999); !busker.IsNotFound(err) {
		t.Errorf("RemoveTrack(unknown): expected not-found, got %v", err)
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("ExactAmountRequired", func(t *testing.T) {
		l, payer := newLedger(t)
		trackID := upload(t, l, "artist", "song", busker.USD(199))

		// Both over- and underpayment are rejected.
		for _, amount := range []types.Money{busker.USD(198), busker.USD(200), busker.EUR(199)} {
			if err := l.Subscribe(ctx, "listener", trackID, amount); !errors.Is(err, busker.ErrPaymentMismatch) {
				t.Errorf("Subscribe(%s): expected ErrPaymentMismatch, got %v", amount, err)
			}
		}
		if !payer.Balance("artist").IsZero() {
			t.Errorf("artist balance after rejected payments: %s, want zero", payer.Balance("artist"))
		}

		if err := l.Subscribe(ctx, "listener", trackID, busker.USD(199)); err != nil {
			t.Fatalf("Subscribe with exact amount failed: %v", err)
		}
		if got := payer.Balance("artist"); !got.Equal(busker.USD(199)) {
			t.Errorf("artist balance = %s, want $1.99", got)
		}
	})

	t.Run("DoubleSubscribe", func(t *testing.T) {
		l, payer := newLedger(t)
		trackID := upload(t, l, "artist", "song", busker.USD(100))

		if err := l.Subscribe(ctx, "listener", trackID, busker.USD(100)); err != nil {
			t.Fatalf("first Subscribe failed: %v", err)
		}
		if err := l.Subscribe(ctx, "listener", trackID, busker.USD(100)); !errors.Is(err, busker.ErrAlreadySubscribed) {
			t.Errorf("second Subscribe: expected ErrAlreadySubscribed, got %v", err)
		}

		// The artist is paid exactly once.
		if got := payer.Balance("artist"); !got.Equal(busker.USD(100)) {
			t.Errorf("artist balance = %s, want $1.00", got)
		}
	})

	t.Run("RemovedTrack", func(t *testing.T) {
		l, _ := newLedger(t)
		trackID := upload(t, l, "artist", "song", busker.USD(100))

		if err := l.RemoveTrack(ctx, "artist", trackID); err != nil {
			t.Fatalf("RemoveTrack failed: %v", err)
		}
		if err := l.Subscribe(ctx, "listener", trackID, busker.USD(100)); !errors.Is(err, busker.ErrUnavailable) {
			t.Errorf("Subscribe(removed): expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("Receipt", func(t *testing.T) {
		l, _ := newLedger(t)
		trackID := upload(t, l, "artist", "song", busker.USD(100))

		if err := l.Subscribe(ctx, "listener", trackID, busker.USD(100)); err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}

		for _, principal := range []string{"listener", "artist"} {
			receipts, err := l.Payments(ctx, principal, payment.ListOpts{})
			if err != nil {
				t.Fatalf("Payments(%s) failed: %v", principal, err)
			}
			if len(receipts) != 1 {
				t.Fatalf("Payments(%s): got %d receipts, want 1", principal, len(receipts))
			}
			r := receipts[0]
			if r.From != "listener" || r.To != "artist" || r.TrackID != trackID {
				t.Errorf("receipt = %+v, want listener->artist on track %d", r, trackID)
			}
			if !r.Amount.Equal(busker.USD(100)) {
				t.Errorf("receipt amount = %s, want $1.00", r.Amount)
			}
			if !strings.HasPrefix(r.ID.String(), "pay_") {
				t.Errorf("receipt id = %q, want pay_ prefix", r.ID.String())
			}
		}
	})
}

func TestSubscribeConcurrent(t *testing.T) {
	ctx := context.Background()
	l, payer := newLedger(t)
	trackID := upload(t, l, "artist", "song", busker.USD(100))

	const attempts = 16
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.Subscribe(ctx, "listener", trackID, busker.USD(100))
		}(i)
	}
	wg.Wait()

	var succeeded, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, busker.ErrAlreadySubscribed):
			duplicates++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if succeeded != 1 {
		t.Errorf("got %d successful subscribes, want exactly 1", succeeded)
	}
	if duplicates != attempts-1 {
		t.Errorf("got %d duplicate rejections, want %d", duplicates, attempts-1)
	}
	if got := payer.Balance("artist"); !got.Equal(busker.USD(100)) {
		t.Errorf("artist balance = %s, want exactly one payment of $1.00", got)
	}
}

func TestSubscribeTransferFailure(t *testing.T) {
	ctx := context.Background()
	l, payer := newLedger(t)
	trackID := upload(t, l, "artist", "song", busker.USD(100))

	payer.FailWith(errors.New("wire down"))

	err := l.Subscribe(ctx, "listener", trackID, busker.USD(100))
	if !errors.Is(err, busker.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	// The claim was rolled back: no subscription, no rating rights.
	subscribed, err := l.Subscribed(ctx, "listener", trackID)
	if err != nil {
		t.Fatalf("Subscribed failed: %v", err)
	}
	if subscribed {
		t.Error("subscription persisted after transfer failure")
	}
	if err := l.RateTrack(ctx, "listener", trackID, 5); !errors.Is(err, busker.ErrNotSubscribed) {
		t.Errorf("RateTrack after failed transfer: expected ErrNotSubscribed, got %v", err)
	}

	// A retry after the payer recovers succeeds.
	payer.FailWith(nil)
	if err := l.Subscribe(ctx, "listener", trackID, busker.USD(100)); err != nil {
		t.Fatalf("retry Subscribe failed: %v", err)
	}
	if got := payer.Balance("artist"); !got.Equal(busker.USD(100)) {
		t.Errorf("artist balance = %s, want $1.00", got)
	}
}

func TestSubscribeMixedCurrencies(t *testing.T) {
	ctx := context.Background()
	l, payer := newLedger(t)

	// One artist prices tracks in different currencies; paying the same
	// artist in both must credit two independent balances.
	usdTrack := upload(t, l, "artist", "stateside", busker.USD(100))
	eurTrack := upload(t, l, "artist", "continental", busker.EUR(100))

	if err := l.Subscribe(ctx, "listener", usdTrack, busker.USD(100)); err != nil {
		t.Fatalf("Subscribe(usd track) failed: %v", err)
	}
	if err := l.Subscribe(ctx, "listener", eurTrack, busker.EUR(100)); err != nil {
		t.Fatalf("Subscribe(eur track) failed: %v", err)
	}

	if got := payer.BalanceIn("artist", "usd"); !got.Equal(busker.USD(100)) {
		t.Errorf("usd balance = %s, want %s", got, busker.USD(100))
	}
	if got := payer.BalanceIn("artist", "eur"); !got.Equal(busker.EUR(100)) {
		t.Errorf("eur balance = %s, want %s", got, busker.EUR(100))
	}

	// Both subscriptions are live.
	for _, trackID := range []uint64{usdTrack, eurTrack} {
		subscribed, err := l.Subscribed(ctx, "listener", trackID)
		if err != nil {
			t.Fatalf("Subscribed(%d) failed: %v", trackID, err)
		}
		if !subscribed {
			t.Errorf("subscription to track %d missing", trackID)
		}
	}
}

func TestRateTrack(t *testing.T) {
	ctx := context.Background()

	t.Run("Bounds", func(t *testing.T) {
		l, _ := newLedger(t)
		trackID := upload(t, l, "artist", "song", busker.USD(100))
		if err := l.Subscribe(ctx, "listener", trackID, busker.USD(100)); err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}

		for _, rating := range []int64{0, 6, -1, 100} {
			if err := l.RateTrack(ctx, "listener", trackID, rating); !errors.Is(err, busker.ErrRatingOutOfRange) {
				t.Errorf("RateTrack(%d): expected ErrRatingOutOfRange, got %v", rating, err)
			}
		}
		for _, rating := range []int64{1, 5} {
			if err := l.RateTrack(ctx, "listener", trackID, rating); err != nil {
				t.Errorf("RateTrack(%d) failed: %v", rating, err)
			}
		}
	})

	t.Run("NotSubscribed", func(t *testing.T) {
		l, _ := newLedger(t)
		trackID := upload(t, l, "artist", "song", busker.USD(100))

		if err := l.RateTrack(ctx, "stranger", trackID, 3); !errors.Is(err, busker.ErrNotSubscribed) {
			t.Errorf("expected ErrNotSubscribed, got %v", err)
		}
	})

	t.Run("FloorAverage", func(t *testing.T) {
		l, _ := newLedger(t)
		trackID := upload(t, l, "artist", "song", busker.USD(100))

		for i, rating := range []int64{4, 5, 3} {
			listener := []string{"alice", "bob", "carol"}[i]
			if err := l.Subscribe(ctx, listener, trackID, busker.USD(100)); err != nil {
				t.Fatalf("Subscribe(%s) failed: %v", listener, err)
			}
			if err := l.RateTrack(ctx, listener, trackID, rating); err != nil {
				t.Fatalf("RateTrack(%s, %d) failed: %v", listener, rating, err)
			}
		}

		// (4+5+3)/3 = 4
		avg, err := l.TrackAverageRating(ctx, trackID)
		if err != nil {
			t.Fatalf("TrackAverageRating failed: %v", err)
		}
		if avg != 4 {
			t.Errorf("average = %d, want 4", avg)
		}

		rep, err := l.UserReputation(ctx, "artist")
		if err != nil {
			t.Fatalf("UserReputation failed: %v", err)
		}
		if rep != 4 {
			t.Errorf("reputation = %d, want 4", rep)
		}
	})

	t.Run("RepeatedRatingsAccumulate", func(t *testing.T) {
		l, _ := newLedger(t)
		trackID := upload(t, l, "artist", "song", busker.USD(100))
		if err := l.Subscribe(ctx, "listener", trackID, busker.USD(100)); err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}

		// One subscription does not cap the number of ratings.
		for _, rating := range []int64{5, 1, 1} {
			if err := l.RateTrack(ctx, "listener", trackID, rating); err != nil {
				t.Fatalf("RateTrack(%d) failed: %v", rating, err)
			}
		}

		// (5+1+1)/3 = 2 (floor)
		avg, err := l.TrackAverageRating(ctx, trackID)
		if err != nil {
			t.Fatalf("TrackAverageRating failed: %v", err)
		}
		if avg != 2 {
			t.Errorf("average = %d, want 2", avg)
		}
	})

	t.Run("RemovedTrack", func(t *testing.T) {
		l, _ := newLedger(t)
		trackID := upload(t, l, "artist", "song", busker.USD(100))
		if err := l.Subscribe(ctx, "listener", trackID, busker.USD(100)); err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
		if err := l.RemoveTrack(ctx, "artist", trackID); err != nil {
			t.Fatalf("RemoveTrack failed: %v", err)
		}

		if err := l.RateTrack(ctx, "listener", trackID, 5); !errors.Is(err, busker.ErrUnavailable) {
			t.Errorf("RateTrack(removed): expected ErrUnavailable, got %v", err)
		}
	})
}

func TestReputationClobbering(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	// Reputation follows whichever of the artist's tracks was rated last,
	// not an aggregate over the catalogue.
	first := upload(t, l, "artist", "first", busker.USD(100))
	second := upload(t, l, "artist", "second", busker.USD(100))

	if err := l.Subscribe(ctx, "listener", first, busker.USD(100)); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := l.Subscribe(ctx, "listener", second, busker.USD(100)); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := l.RateTrack(ctx, "listener", first, 5); err != nil {
		t.Fatalf("RateTrack failed: %v", err)
	}
	rep, _ := l.UserReputation(ctx, "artist")
	if rep != 5 {
		t.Errorf("reputation after rating first track = %d, want 5", rep)
	}

	if err := l.RateTrack(ctx, "listener", second, 1); err != nil {
		t.Fatalf("RateTrack failed: %v", err)
	}
	rep, _ = l.UserReputation(ctx, "artist")
	if rep != 1 {
		t.Errorf("reputation after rating second track = %d, want 1 (clobbered)", rep)
	}
}

func TestRemoveTrack(t *testing.T) {
	ctx := context.Background()

	t.Run("OnlyOwner", func(t *testing.T) {
		l, _ := newLedger(t)
		trackID := upload(t, l, "artist", "song", busker.USD(100))

		if err := l.RemoveTrack(ctx, "intruder", trackID); !errors.Is(err, busker.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}

		// The failed attempt changed nothing.
		tr, err := l.GetTrack(ctx, trackID)
		if err != nil {
			t.Fatalf("GetTrack failed: %v", err)
		}
		if !tr.Available {
			t.Error("track became unavailable after unauthorized removal attempt")
		}
	})

	t.Run("TerminalAndIdempotent", func(t *testing.T) {
		l, _ := newLedger(t)
		trackID := upload(t, l, "artist", "song", busker.USD(100))

		if err := l.RemoveTrack(ctx, "artist", trackID); err != nil {
			t.Fatalf("RemoveTrack failed: %v", err)
		}
		// A second removal by the owner succeeds.
		if err := l.RemoveTrack(ctx, "artist", trackID); err != nil {
			t.Errorf("second RemoveTrack: %v, want nil", err)
		}
		// Non-owners are still rejected after removal.
		if err := l.RemoveTrack(ctx, "intruder", trackID); !errors.Is(err, busker.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}

		// History stays readable after removal.
		tr, err := l.GetTrack(ctx, trackID)
		if err != nil {
			t.Fatalf("GetTrack(removed) failed: %v", err)
		}
		if tr.Available {
			t.Error("removed track still available")
		}
	})

	t.Run("ExcludedFromListing", func(t *testing.T) {
		l, _ := newLedger(t)
		keep := upload(t, l, "artist", "keep", busker.USD(100))
		drop := upload(t, l, "artist", "drop", busker.USD(100))

		if err := l.RemoveTrack(ctx, "artist", drop); err != nil {
			t.Fatalf("RemoveTrack failed: %v", err)
		}

		tracks, err := l.AvailableTracks(ctx)
		if err != nil {
			t.Fatalf("AvailableTracks failed: %v", err)
		}
		if len(tracks) != 1 || tracks[0].ID != keep {
			t.Errorf("listing = %d tracks, want only track %d", len(tracks), keep)
		}

		// The removed track's id is not reused.
		next := upload(t, l, "artist", "next", busker.USD(100))
		if next != drop+1 {
			t.Errorf("next id = %d, want %d (ids never reused)", next, drop+1)
		}
	})
}

func TestAvailableTracksOrdering(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	want := []uint64{
		upload(t, l, "a", "one", busker.USD(100)),
		upload(t, l, "b", "two", busker.USD(200)),
		upload(t, l, "c", "three", busker.USD(300)),
	}

	tracks, err := l.AvailableTracks(ctx)
	if err != nil {
		t.Fatalf("AvailableTracks failed: %v", err)
	}
	if len(tracks) != len(want) {
		t.Fatalf("got %d tracks, want %d", len(tracks), len(want))
	}
	for i, tr := range tracks {
		if tr.ID != want[i] {
			t.Errorf("position %d: id %d, want %d (ascending order)", i, tr.ID, want[i])
		}
	}
}

func TestCapabilities(t *testing.T) {
	ctx := context.Background()

	t.Run("ListingDisabled", func(t *testing.T) {
		l, _ := newLedger(t, busker.WithCapabilities(busker.Capabilities{
			ProofOfOwnership: true,
			RemovalEvents:    true,
		}))

		if _, err := l.AvailableTracks(ctx); !errors.Is(err, busker.ErrCapabilityDisabled) {
			t.Errorf("expected ErrCapabilityDisabled, got %v", err)
		}
	})

	t.Run("ProofDisabled", func(t *testing.T) {
		l, _ := newLedger(t, busker.WithCapabilities(busker.Capabilities{
			RemovalEvents: true,
			Listing:       true,
		}))

		// Uploads no longer require proof.
		trackID, err := l.UploadTrack(ctx, "artist", busker.UploadTrackInput{
			Title: "song", Price: busker.USD(100),
		})
		if err != nil {
			t.Fatalf("UploadTrack without proof failed: %v", err)
		}

		if _, err := l.ProofOfOwnership(ctx, trackID); !errors.Is(err, busker.ErrCapabilityDisabled) {
			t.Errorf("expected ErrCapabilityDisabled, got %v", err)
		}
	})
}

func TestProofOfOwnership(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	trackID, err := l.UploadTrack(ctx, "artist", busker.UploadTrackInput{
		Title: "song", Price: busker.USD(100), ProofOfOwnership: "sha256:deadbeef",
	})
	if err != nil {
		t.Fatalf("UploadTrack failed: %v", err)
	}

	proof, err := l.ProofOfOwnership(ctx, trackID)
	if err != nil {
		t.Fatalf("ProofOfOwnership failed: %v", err)
	}
	if proof != "sha256:deadbeef" {
		t.Errorf("proof = %q, want %q", proof, "sha256:deadbeef")
	}

	// Proof survives removal.
	if err := l.RemoveTrack(ctx, "artist", trackID); err != nil {
		t.Fatalf("RemoveTrack failed: %v", err)
	}
	proof, err = l.ProofOfOwnership(ctx, trackID)
	if err != nil || proof != "sha256:deadbeef" {
		t.Errorf("proof after removal = (%q, %v), want it unchanged", proof, err)
	}
}

// TestMarketplaceScenario walks the full lifecycle across several principals.
func TestMarketplaceScenario(t *testing.T) {
	ctx := context.Background()
	l, payer := newLedger(t)

	// Two artists publish.
	nightDrive := upload(t, l, "neon-harbor", "Night Drive", busker.USD(199))
	rainLoops := upload(t, l, "gray-static", "Rain Loops", busker.USD(99))

	// Three listeners subscribe to Night Drive, one also to Rain Loops.
	for _, listener := range []string{"alice", "bob", "carol"} {
		if err := l.Subscribe(ctx, listener, nightDrive, busker.USD(199)); err != nil {
			t.Fatalf("Subscribe(%s) failed: %v", listener, err)
		}
	}
	if err := l.Subscribe(ctx, "alice", rainLoops, busker.USD(99)); err != nil {
		t.Fatalf("Subscribe(alice, rain) failed: %v", err)
	}

	// Each payment landed in full, once.
	if got := payer.Balance("neon-harbor"); !got.Equal(busker.USD(3 * 199)) {
		t.Errorf("neon-harbor balance = %s, want $5.97", got)
	}
	if got := payer.Balance("gray-static"); !got.Equal(busker.USD(99)) {
		t.Errorf("gray-static balance = %s, want $0.99", got)
	}

	// Subscribers rate; non-subscribers cannot.
	for listener, rating := range map[string]int64{"alice": 4, "bob": 5, "carol": 3} {
		if err := l.RateTrack(ctx, listener, nightDrive, rating); err != nil {
			t.Fatalf("RateTrack(%s) failed: %v", listener, err)
		}
	}
	if err := l.RateTrack(ctx, "bob", rainLoops, 5); !errors.Is(err, busker.ErrNotSubscribed) {
		t.Errorf("RateTrack(bob, rain): expected ErrNotSubscribed, got %v", err)
	}

	avg, _ := l.TrackAverageRating(ctx, nightDrive)
	if avg != 4 {
		t.Errorf("Night Drive average = %d, want 4", avg)
	}
	rep, _ := l.UserReputation(ctx, "neon-harbor")
	if rep != 4 {
		t.Errorf("neon-harbor reputation = %d, want 4", rep)
	}

	// Delist Night Drive; history survives, new business does not.
	if err := l.RemoveTrack(ctx, "neon-harbor", nightDrive); err != nil {
		t.Fatalf("RemoveTrack failed: %v", err)
	}
	if err := l.Subscribe(ctx, "dave", nightDrive, busker.USD(199)); !errors.Is(err, busker.ErrUnavailable) {
		t.Errorf("Subscribe after removal: expected ErrUnavailable, got %v", err)
	}
	avg, _ = l.TrackAverageRating(ctx, nightDrive)
	if avg != 4 {
		t.Errorf("average after removal = %d, want 4 (history preserved)", avg)
	}

	tracks, err := l.AvailableTracks(ctx)
	if err != nil {
		t.Fatalf("AvailableTracks failed: %v", err)
	}
	if len(tracks) != 1 || tracks[0].ID != rainLoops {
		t.Errorf("listing after removal = %d tracks, want only Rain Loops", len(tracks))
	}

	// No refunds: the artist keeps all subscription revenue.
	if got := payer.Balance("neon-harbor"); !got.Equal(busker.USD(3 * 199)) {
		t.Errorf("neon-harbor balance after removal = %s, want unchanged", got)
	}
}
