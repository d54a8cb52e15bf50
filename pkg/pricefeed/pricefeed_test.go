package pricefeed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type mockSource struct {
	fetchQuote func(ctx context.Context) (Quote, error)
}

func (m *mockSource) FetchQuote(ctx context.Context) (Quote, error) {
	return m.fetchQuote(ctx)
}

func TestTracker(t *testing.T) {
	var polls atomic.Int32
	source := &mockSource{
		fetchQuote: func(context.Context) (Quote, error) {
			polls.Add(1)
			return Quote{Price: "1.0001", Currency: "USD", FetchedAt: time.Now()}, nil
		},
	}

	tracker := NewTracker(source, 10*time.Millisecond, zap.NewNop())
	tracker.Start(context.Background())
	defer tracker.Stop()

	deadline := time.After(time.Second)
	for polls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("tracker never polled twice")
		case <-time.After(5 * time.Millisecond):
		}
	}

	quote, err := tracker.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if quote.Price != "1.0001" || quote.Currency != "USD" {
		t.Errorf("unexpected quote %+v", quote)
	}
}

func TestTracker_NoQuoteBeforeFirstPoll(t *testing.T) {
	tracker := NewTracker(&mockSource{
		fetchQuote: func(context.Context) (Quote, error) {
			return Quote{}, errors.New("source down")
		},
	}, 10*time.Millisecond, zap.NewNop())
	tracker.Start(context.Background())
	defer tracker.Stop()

	if _, err := tracker.Latest(); !errors.Is(err, ErrNoQuote) {
		t.Fatalf("expected ErrNoQuote, got %v", err)
	}
}

func TestTracker_KeepsLastGoodQuote(t *testing.T) {
	var failing atomic.Bool
	source := &mockSource{
		fetchQuote: func(context.Context) (Quote, error) {
			if failing.Load() {
				return Quote{}, errors.New("source down")
			}
			return Quote{Price: "1.0002"}, nil
		},
	}

	tracker := NewTracker(source, 5*time.Millisecond, zap.NewNop())
	tracker.Start(context.Background())
	defer tracker.Stop()

	deadline := time.After(time.Second)
	for {
		if _, err := tracker.Latest(); err == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no quote ever observed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	failing.Store(true)
	time.Sleep(25 * time.Millisecond)

	quote, err := tracker.Latest()
	if err != nil {
		t.Fatalf("last good quote lost: %v", err)
	}
	if quote.Price != "1.0002" {
		t.Errorf("unexpected quote %+v", quote)
	}
}

func TestTracker_StopIsIdempotent(t *testing.T) {
	tracker := NewTracker(&mockSource{
		fetchQuote: func(context.Context) (Quote, error) { return Quote{Price: "1"}, nil },
	}, 10*time.Millisecond, zap.NewNop())
	tracker.Start(context.Background())

	tracker.Stop()
	tracker.Stop()
}
